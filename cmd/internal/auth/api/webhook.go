package api

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/identity"
	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/internal/auth/gateway"
	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/security/token"
)

// hottokHeader carries the provider's shared secret.
const hottokHeader = "X-Hotmart-Hottok"

// webhookStatuses maps provider events to the purchase status they imply.
// Events not listed are acknowledged and ignored.
var webhookStatuses = map[string]identity.PurchaseStatus{
	"PURCHASE_APPROVED":   identity.PurchaseActive,
	"PURCHASE_COMPLETE":   identity.PurchaseActive,
	"PURCHASE_CANCELED":   identity.PurchaseInactive,
	"PURCHASE_REFUNDED":   identity.PurchaseInactive,
	"PURCHASE_CHARGEBACK": identity.PurchaseInactive,
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Buyer struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"buyer"`
		Purchase struct {
			Transaction string `json:"transaction"`
			Product     struct {
				ID flexString `json:"id"`
			} `json:"product"`
		} `json:"purchase"`
	} `json:"data"`
}

// flexString accepts a JSON string or number; providers are not consistent
// about id types.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

// handleWebhook always answers 200 {success:true}: providers retry on
// non-2xx and every delivery is safe to drop or repeat.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer writeJSON(w, http.StatusOK, successResponse{Success: true})

	if h.cfg.WebhookHottok != "" && !token.EqualSecret(r.Header.Get(hottokHeader), h.cfg.WebhookHottok) {
		h.log.Warn("webhook.hottok.mismatch", "ip", ipString(clientIP(r, h.cfg.TrustProxy)))
		h.metrics.webhookEvent("", "rejected")
		return
	}

	var p webhookPayload
	if err := decodeLooseJSON(w, r, h.cfg.MaxBodyBytes, &p); err != nil {
		h.log.Warn("webhook.decode.fail", "err", err)
		h.metrics.webhookEvent("", "invalid")
		return
	}

	event := strings.ToUpper(strings.TrimSpace(p.Event))
	status, known := webhookStatuses[event]
	if !known {
		h.log.Info("webhook.event.ignored", "event", event)
		h.metrics.webhookEvent(event, "ignored")
		return
	}

	ctx := r.Context()
	purchase, err := h.gw.RegisterPurchase(ctx, gateway.RegisterPurchaseInput{
		Email:      p.Data.Buyer.Email,
		Name:       p.Data.Buyer.Name,
		PurchaseID: p.Data.Purchase.Transaction,
		ProductID:  string(p.Data.Purchase.Product.ID),
		Status:     status,
		Source:     identity.SourceWebhook,
		Event:      event,
	})
	if err != nil {
		if identity.IsInvalidInput(err) {
			h.log.Warn("webhook.payload.invalid", "event", event, "err", err)
			h.metrics.webhookEvent(event, "invalid")
			return
		}
		h.log.Error("webhook.register.fail", "event", event, "err", err)
		h.metrics.webhookEvent(event, "error")
		return
	}

	h.metrics.webhookEvent(event, "applied")
	h.auditPurchaseRegistered(ctx, purchase.Email, string(purchase.Source), event)
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}
