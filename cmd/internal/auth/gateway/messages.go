package gateway

// Client-facing messages. Login failures share one message so callers
// cannot tell a missing account from a wrong password.
const (
	msgEmailRequired         = "Email é obrigatório"
	msgCredentialsRequired   = "Email e senha são obrigatórios"
	msgPurchaseNotFound      = "Nenhuma compra encontrada para este e-mail"
	msgPurchaseInactive      = "Compra não está ativa"
	msgUserAlreadyExists     = "Usuário já possui senha cadastrada"
	msgInvalidCredentials    = "Email ou senha inválidos"
	msgAccessDenied          = "Acesso não autorizado"
	msgUserNotFound          = "Usuário não encontrado"
	msgPurchaseFound         = "Compra encontrada"
	msgUnknownPurchaseStatus = "Status de compra inválido"
)
