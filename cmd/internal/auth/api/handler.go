// Package api exposes the purchase-gated auth flow over HTTP/JSON.
package api

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/identity"
	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/internal/auth/gateway"
	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/internal/auth/session"
)

const (
	msgInternal        = "Erro interno do servidor"
	msgTooManyAttempts = "Muitas tentativas. Tente novamente mais tarde."
)

// Handler wires HTTP auth endpoints to the gateway.
type Handler struct {
	log *slog.Logger
	cfg Config

	gw       *gateway.Gateway
	tokens   session.Manager
	failures FailureStore
	probes   *probeLimiter
	metrics  *Metrics

	now func() time.Time
}

// HandlerOption configures optional auth handler dependencies.
type HandlerOption func(*Handler)

// WithFailureStore overrides the default in-memory login failure store.
func WithFailureStore(store FailureStore) HandlerOption {
	return func(h *Handler) {
		if h == nil || store == nil {
			return
		}
		h.failures = store
	}
}

// WithMetrics enables Prometheus counters.
func WithMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) {
		if h == nil {
			return
		}
		h.metrics = m
	}
}

// WithClock overrides time.Now for token checks and throttling.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if h == nil || now == nil {
			return
		}
		h.now = now
	}
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, gw *gateway.Gateway, tokens session.Manager, cfg Config, opts ...HandlerOption) (*Handler, error) {
	if gw == nil || tokens == nil {
		return nil, errors.New("auth: nil gateway or token manager")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	h := &Handler{
		log:    log,
		cfg:    cfg,
		gw:     gw,
		tokens: tokens,
		probes: newProbeLimiter(cfg.CheckPurchaseMax, cfg.CheckPurchaseWindow),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	if h.failures == nil {
		h.failures = NewMemoryFailureStore(cfg.FailureRetention())
	}
	return h, nil
}

// APIPrefix is where the bundled SPA client sends its calls. Every route is
// served both bare and under this prefix.
const APIPrefix = "/api"

type route struct {
	path string
	fn   http.HandlerFunc
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	routes := []route{
		{"/webhook/purchase", h.handleWebhook},
		{"/webhook/hotmart", h.handleWebhook},
		{"/auth/check-purchase", h.handleCheckPurchase},
		{"/auth/create-password", h.handleCreatePassword},
		{"/auth/login", h.handleLogin},
		{"/auth/complete-onboarding", h.handleCompleteOnboarding},
		{"/auth/me", h.handleMe},
	}
	if h.cfg.EnableSimulation {
		routes = append(routes, route{"/simulate-purchase", h.handleSimulatePurchase})
	}
	if h.cfg.EnableDebug {
		routes = append(routes, route{"/debug/data", h.handleDebugData})
	}
	for _, rt := range routes {
		mux.HandleFunc(rt.path, rt.fn)
		mux.HandleFunc(APIPrefix+rt.path, rt.fn)
	}
}

// Routes lists the registered endpoints for the index page.
func (h *Handler) Routes() []string {
	routes := []string{
		"POST /webhook/purchase",
		"POST /webhook/hotmart",
		"POST /auth/check-purchase",
		"POST /auth/create-password",
		"POST /auth/login",
		"POST /auth/complete-onboarding",
		"GET /auth/me",
	}
	if h.cfg.EnableSimulation {
		routes = append(routes, "POST /simulate-purchase")
	}
	if h.cfg.EnableDebug {
		routes = append(routes, "GET /debug/data")
	}
	return routes
}

// ---- handlers ----

func (h *Handler) handleCheckPurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if !h.probes.Allow(clientIP(r, h.cfg.TrustProxy), h.now()) {
		h.metrics.authOp("check_purchase", "rate_limited")
		w.Header().Set("Retry-After", strconv.Itoa(int(h.cfg.CheckPurchaseWindow/time.Second)))
		writeJSON(w, http.StatusTooManyRequests, checkPurchaseResponse{Error: msgTooManyAttempts})
		return
	}

	// Input problems are answered with 200 and hasPurchase=false; the SPA
	// only reads the error field on a 2xx.
	var req emailRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.metrics.authOp("check_purchase", "invalid")
		writeJSON(w, http.StatusOK, checkPurchaseResponse{Error: "Requisição inválida"})
		return
	}
	if identity.NormalizeEmail(req.Email) == "" {
		h.metrics.authOp("check_purchase", "invalid")
		writeJSON(w, http.StatusOK, checkPurchaseResponse{Error: "Email é obrigatório"})
		return
	}

	res, err := h.gw.CheckPurchase(r.Context(), req.Email)
	if err != nil {
		h.log.Error("auth.check_purchase.fail", "err", err)
		h.metrics.authOp("check_purchase", "error")
		writeJSON(w, http.StatusInternalServerError, checkPurchaseResponse{Error: msgInternal})
		return
	}
	if !res.HasPurchase {
		h.metrics.authOp("check_purchase", "no_purchase")
		writeJSON(w, http.StatusOK, checkPurchaseResponse{Error: res.Message})
		return
	}

	h.metrics.authOp("check_purchase", "ok")
	date := res.PurchaseDate
	writeJSON(w, http.StatusOK, checkPurchaseResponse{
		HasPurchase:  true,
		CustomerName: res.CustomerName,
		PurchaseDate: &date,
	})
}

func (h *Handler) handleCreatePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req createPasswordRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Requisição inválida")
		return
	}

	ctx := r.Context()
	res, err := h.gw.CreatePassword(ctx, gateway.CreatePasswordInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.writeGatewayError(w, "create_password", err)
		return
	}

	h.metrics.authOp("create_password", "ok")
	h.auditPasswordCreated(ctx, res.User.Email, clientIP(r, h.cfg.TrustProxy), r.UserAgent())
	writeJSON(w, http.StatusOK, toAuthResponse(res))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Requisição inválida")
		return
	}

	ctx := r.Context()
	now := h.now()
	ip := clientIP(r, h.cfg.TrustProxy)
	ua := r.UserAgent()
	email := identity.NormalizeEmail(req.Email)

	// Throttle before touching the stores or running Argon2id.
	if blocked, retryAfter, err := h.checkLoginIPThrottle(ctx, ip, now); err != nil {
		h.log.Error("auth.login.throttle_ip.fail", "err", err)
		writeError(w, http.StatusServiceUnavailable, "server_busy", "Tente novamente mais tarde")
		return
	} else if blocked {
		h.metrics.authOp("login", "rate_limited")
		h.auditLoginRateLimited(ctx, email, ip, ua, retryAfter)
		writeRateLimited(w, retryAfter)
		return
	}
	if blocked, retryAfter, err := h.checkLoginEmailThrottle(ctx, email, now); err != nil {
		h.log.Error("auth.login.throttle_email.fail", "err", err)
		writeError(w, http.StatusServiceUnavailable, "server_busy", "Tente novamente mais tarde")
		return
	} else if blocked {
		h.metrics.authOp("login", "rate_limited")
		h.auditLoginRateLimited(ctx, email, ip, ua, retryAfter)
		writeRateLimited(w, retryAfter)
		return
	}

	res, err := h.gw.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case identity.IsUnauthorized(err):
			h.recordLoginFailure(ctx, ip, email, now)
			h.auditLoginFailed(ctx, email, ip, ua, "invalid_credentials")
		case identity.IsForbidden(err):
			h.auditLoginFailed(ctx, email, ip, ua, "purchase_inactive")
		}
		h.writeGatewayError(w, "login", err)
		return
	}

	h.resetLoginFailures(ctx, email)
	h.metrics.authOp("login", "ok")
	h.auditLoginSuccess(ctx, email, ip, ua)
	writeJSON(w, http.StatusOK, toAuthResponse(res))
}

func (h *Handler) handleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var claims session.Claims
	if h.cfg.RequireToken {
		c, ok := h.requireAuth(w, r)
		if !ok {
			return
		}
		claims = c
	}

	var req emailRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Requisição inválida")
		return
	}

	email := identity.NormalizeEmail(req.Email)
	if h.cfg.RequireToken {
		switch {
		case email == "":
			email = claims.Email
		case email != claims.Email:
			h.metrics.authOp("complete_onboarding", "forbidden")
			writeError(w, http.StatusForbidden, "forbidden", "Acesso não autorizado")
			return
		}
	}

	ctx := r.Context()
	if err := h.gw.CompleteOnboarding(ctx, email); err != nil {
		h.writeGatewayError(w, "complete_onboarding", err)
		return
	}

	h.metrics.authOp("complete_onboarding", "ok")
	h.auditOnboardingCompleted(ctx, email, clientIP(r, h.cfg.TrustProxy), r.UserAgent())
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	u, err := h.gw.Profile(r.Context(), claims.Email)
	if err != nil {
		if identity.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Usuário não encontrado")
			return
		}
		h.log.Error("auth.me.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{Success: true, User: u})
}

func (h *Handler) handleSimulatePurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req simulatePurchaseRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Requisição inválida")
		return
	}

	ctx := r.Context()
	p, err := h.gw.RegisterPurchase(ctx, gateway.RegisterPurchaseInput{
		Email:  req.Email,
		Name:   req.Name,
		Source: identity.SourceSimulation,
		Event:  "SIMULATION",
	})
	if err != nil {
		h.writeGatewayError(w, "simulate_purchase", err)
		return
	}

	h.metrics.authOp("simulate_purchase", "ok")
	h.auditPurchaseRegistered(ctx, p.Email, string(p.Source), p.Event)
	writeJSON(w, http.StatusOK, simulatePurchaseResponse{
		Success: true,
		Message: "Compra simulada com sucesso!",
		Data: simulatedPurchase{
			Email:      p.Email,
			Name:       p.Name,
			PurchaseID: p.PurchaseID,
		},
	})
}

func (h *Handler) handleDebugData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snap, err := h.gw.Snapshot(r.Context())
	if err != nil {
		h.log.Error("debug.data.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", msgInternal)
		return
	}

	resp := debugDataResponse{
		Users:          snap.Users,
		Purchases:      snap.Purchases,
		TotalUsers:     len(snap.Users),
		TotalPurchases: len(snap.Purchases),
	}
	if resp.Users == nil {
		resp.Users = []string{}
	}
	if resp.Purchases == nil {
		resp.Purchases = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ---- helpers ----

func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request) (session.Claims, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Token ausente")
		return session.Claims{}, false
	}
	claims, err := h.tokens.Verify(token, h.now())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Token inválido")
		return session.Claims{}, false
	}
	return claims, true
}

// writeGatewayError maps identity error kinds to HTTP statuses. Unknown
// errors are logged and reported generically.
func (h *Handler) writeGatewayError(w http.ResponseWriter, op string, err error) {
	status, code := statusFor(err)
	h.metrics.authOp(op, code)
	if status == http.StatusInternalServerError {
		h.log.Error("auth."+op+".fail", "err", err)
		writeError(w, status, code, msgInternal)
		return
	}
	writeError(w, status, code, publicMessage(err))
}

func statusFor(err error) (int, string) {
	switch {
	case identity.IsInvalidInput(err):
		return http.StatusBadRequest, "invalid_input"
	case identity.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case identity.IsConflict(err):
		return http.StatusConflict, "conflict"
	case identity.IsUnauthorized(err):
		return http.StatusUnauthorized, "invalid_credentials"
	case identity.IsForbidden(err):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

func publicMessage(err error) string {
	var opErr identity.OpError
	if errors.As(err, &opErr) && opErr.Msg != "" {
		return opErr.Msg
	}
	switch {
	case identity.IsInvalidInput(err):
		return "Requisição inválida"
	case identity.IsNotFound(err):
		return "Registro não encontrado"
	case identity.IsConflict(err):
		return "Registro já existe"
	case identity.IsUnauthorized(err):
		return "Não autorizado"
	case identity.IsForbidden(err):
		return "Acesso não autorizado"
	default:
		return msgInternal
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	for _, p := range strings.Split(raw, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
