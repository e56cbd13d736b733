package api

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"time"
)

// audit emits one structured "auth.audit" record. Emails are logged in
// normalized form; passwords and tokens never are.
func (h *Handler) audit(ctx context.Context, action string, ip net.IP, ua string, attrs ...slog.Attr) {
	action = strings.TrimSpace(action)
	if action == "" {
		return
	}

	base := []slog.Attr{slog.String("action", action)}
	if ip != nil {
		base = append(base, slog.String("ip", ip.String()))
	}
	if ua = strings.TrimSpace(ua); ua != "" {
		base = append(base, slog.String("user_agent", ua))
	}
	h.log.LogAttrs(ctx, slog.LevelInfo, "auth.audit", append(base, attrs...)...)
}

func (h *Handler) auditPurchaseRegistered(ctx context.Context, email, source, event string) {
	h.audit(ctx, "auth.purchase.registered", nil, "",
		slog.String("email", email),
		slog.String("source", source),
		slog.String("event", event),
	)
}

func (h *Handler) auditPasswordCreated(ctx context.Context, email string, ip net.IP, ua string) {
	h.audit(ctx, "auth.password.created", ip, ua, slog.String("email", email))
}

func (h *Handler) auditLoginFailed(ctx context.Context, email string, ip net.IP, ua string, reason string) {
	h.audit(ctx, "auth.login.failed", ip, ua,
		slog.String("email", email),
		slog.String("reason", reason),
	)
}

func (h *Handler) auditLoginSuccess(ctx context.Context, email string, ip net.IP, ua string) {
	h.audit(ctx, "auth.login.success", ip, ua, slog.String("email", email))
}

func (h *Handler) auditLoginRateLimited(ctx context.Context, email string, ip net.IP, ua string, retryAfter time.Duration) {
	h.audit(ctx, "auth.login.rate_limited", ip, ua,
		slog.String("email", email),
		slog.Int64("retry_after_s", int64(retryAfter.Seconds())),
	)
}

func (h *Handler) auditOnboardingCompleted(ctx context.Context, email string, ip net.IP, ua string) {
	h.audit(ctx, "auth.onboarding.completed", ip, ua, slog.String("email", email))
}
