package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/identity"
	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/internal/auth/gateway"
	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/internal/auth/session"
	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/security/password"
)

type testEnv struct {
	ts      *httptest.Server
	store   *identity.MemoryStore
	tokens  session.Manager
	metrics *Metrics
}

func testAuthConfig() Config {
	return Config{
		MaxBodyBytes:           1 << 20,
		RequireToken:           true,
		EnableSimulation:       true,
		EnableDebug:            true,
		LoginIPMax:             100,
		LoginIPWindow:          5 * time.Minute,
		LoginUserWindow:        15 * time.Minute,
		LockoutShortThreshold:  5,
		LockoutShortDuration:   5 * time.Minute,
		LockoutLongThreshold:   10,
		LockoutLongDuration:    30 * time.Minute,
		LockoutSevereThreshold: 20,
		LockoutSevereDuration:  2 * time.Hour,
	}
}

func newTestEnv(t *testing.T, mutate func(*Config)) testEnv {
	t.Helper()

	cfg := testAuthConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	scfg := session.DefaultConfig()
	scfg.JWTSecret = []byte(strings.Repeat("s", 32))
	tokens, err := session.NewManager(scfg)
	require.NoError(t, err)

	store := identity.NewMemoryStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw, err := gateway.New(store, identity.NewPasswordHasher(password.LightConfig()), tokens, gateway.DefaultConfig(), gateway.WithLogger(log))
	require.NoError(t, err)

	metrics := NewMetrics(prometheus.NewRegistry())
	h, err := NewHandler(log, gw, tokens, cfg, WithMetrics(metrics))
	require.NoError(t, err)

	mux := http.NewServeMux()
	h.Register(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return testEnv{ts: ts, store: store, tokens: tokens, metrics: metrics}
}

func (e testEnv) do(t *testing.T, method, path string, body any, header http.Header) (int, map[string]any, http.Header) {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := e.ts.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(bytes.TrimSpace(raw)) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp.StatusCode, out, resp.Header
}

func bearer(tok string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + tok}}
}

func approvedWebhook(email, name, txn string) map[string]any {
	return map[string]any{
		"event": "PURCHASE_APPROVED",
		"data": map[string]any{
			"buyer":    map[string]any{"email": email, "name": name},
			"purchase": map[string]any{"transaction": txn, "product": map[string]any{"id": 12345}},
		},
	}
}

func TestAuthAPI_PurchaseToOnboardingFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body, _ := env.do(t, http.MethodPost, "/webhook/purchase", approvedWebhook("A@B.com", "Ana", "TXN1"), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, body, _ = env.do(t, http.MethodPost, "/auth/check-purchase", map[string]string{"email": "a@b.com"}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["hasPurchase"])
	assert.Equal(t, "Ana", body["customerName"])
	assert.NotEmpty(t, body["purchaseDate"])

	status, body, _ = env.do(t, http.MethodPost, "/auth/create-password", map[string]string{"email": "a@b.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, status, "body: %v", body)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "a@b.com", user["email"])
	assert.Equal(t, "Ana", user["name"])
	assert.Equal(t, false, user["hasCompletedOnboarding"])
	require.NotEmpty(t, body["token"])

	status, body, _ = env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "a@b.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "invalid_credentials", body["code"])

	status, body, _ = env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "A@B.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	token := body["token"].(string)

	status, body, _ = env.do(t, http.MethodPost, "/auth/complete-onboarding", map[string]string{"email": "a@b.com"}, bearer(token))
	require.Equal(t, http.StatusOK, status, "body: %v", body)
	assert.Equal(t, true, body["success"])

	status, body, _ = env.do(t, http.MethodGet, "/auth/me", nil, bearer(token))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["user"].(map[string]any)["hasCompletedOnboarding"])

	status, body, _ = env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "a@b.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["user"].(map[string]any)["hasCompletedOnboarding"])

	p, err := env.store.FindPurchase(t.Context(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "12345", p.ProductID)
	assert.Equal(t, "TXN1", p.PurchaseID)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.webhookEvents.WithLabelValues("PURCHASE_APPROVED", "applied")))
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.authOps.WithLabelValues("login", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.authOps.WithLabelValues("login", "invalid_credentials")))
}

func TestAuthAPI_WebhookAlwaysAcknowledges(t *testing.T) {
	env := newTestEnv(t, nil)

	cases := []struct {
		name string
		body any
	}{
		{name: "malformed json", body: "{not json"},
		{name: "unknown event", body: map[string]any{"event": "PURCHASE_DELAYED", "data": map[string]any{}}},
		{name: "missing email", body: approvedWebhook("", "Ana", "TXN1")},
		{name: "empty body", body: ""},
	}
	for _, tc := range cases {
		status, body, _ := env.do(t, http.MethodPost, "/webhook/hotmart", tc.body, nil)
		assert.Equal(t, http.StatusOK, status, tc.name)
		assert.Equal(t, true, body["success"], tc.name)
	}

	snap, err := env.store.ListPurchaseEmails(t.Context())
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestAuthAPI_WebhookRefundDeactivates(t *testing.T) {
	env := newTestEnv(t, nil)

	env.do(t, http.MethodPost, "/webhook/purchase", approvedWebhook("a@b.com", "Ana", "TXN1"), nil)

	refund := approvedWebhook("a@b.com", "Ana", "TXN1")
	refund["event"] = "PURCHASE_REFUNDED"
	status, _, _ := env.do(t, http.MethodPost, "/webhook/purchase", refund, nil)
	require.Equal(t, http.StatusOK, status)

	status, body, _ := env.do(t, http.MethodPost, "/auth/check-purchase", map[string]string{"email": "a@b.com"}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["hasPurchase"])
	assert.NotEmpty(t, body["error"])

	status, body, _ = env.do(t, http.MethodPost, "/auth/create-password", map[string]string{"email": "a@b.com", "password": "secret123"}, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", body["code"])
}

func TestAuthAPI_WebhookHottok(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.WebhookHottok = "shared-secret" })

	status, _, _ := env.do(t, http.MethodPost, "/webhook/purchase", approvedWebhook("a@b.com", "Ana", "TXN1"),
		http.Header{hottokHeader: []string{"wrong"}})
	require.Equal(t, http.StatusOK, status)
	_, err := env.store.FindPurchase(t.Context(), "a@b.com")
	assert.True(t, identity.IsNotFound(err), "mismatched hottok must not register a purchase")

	status, _, _ = env.do(t, http.MethodPost, "/webhook/purchase", approvedWebhook("a@b.com", "Ana", "TXN1"),
		http.Header{hottokHeader: []string{"shared-secret"}})
	require.Equal(t, http.StatusOK, status)
	_, err = env.store.FindPurchase(t.Context(), "a@b.com")
	assert.NoError(t, err)
}

func TestAuthAPI_CheckPurchase(t *testing.T) {
	env := newTestEnv(t, nil)

	// Input errors are reported in the body of a 200 so the client can show them.
	status, body, _ := env.do(t, http.MethodPost, "/auth/check-purchase", map[string]string{"email": ""}, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["hasPurchase"])
	assert.NotEmpty(t, body["error"])

	status, body, _ = env.do(t, http.MethodPost, "/auth/check-purchase", map[string]string{"email": "nobody@b.com"}, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["hasPurchase"])

	status, body, _ = env.do(t, http.MethodPost, "/auth/check-purchase", map[string]string{"email": "a@b.com", "extra": "x"}, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["hasPurchase"])
	assert.NotEmpty(t, body["error"])
}

func TestAuthAPI_RoutesServedUnderAPIPrefix(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body, _ := env.do(t, http.MethodPost, APIPrefix+"/auth/check-purchase", map[string]string{"email": "a@b.com"}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["hasPurchase"])

	status, _, _ = env.do(t, http.MethodPost, APIPrefix+"/simulate-purchase", map[string]string{"email": "a@b.com"}, nil)
	require.Equal(t, http.StatusOK, status)

	status, body, _ = env.do(t, http.MethodPost, APIPrefix+"/auth/check-purchase", map[string]string{"email": "a@b.com"}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["hasPurchase"])

	status, _, _ = env.do(t, http.MethodPost, APIPrefix+"/auth/create-password", map[string]string{"email": "a@b.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, status)

	status, body, _ = env.do(t, http.MethodPost, APIPrefix+"/auth/login", map[string]string{"email": "a@b.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	// Bare paths keep working alongside the prefixed ones.
	status, body, _ = env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "a@b.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])
}

func TestAuthAPI_CheckPurchaseRateLimited(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.CheckPurchaseMax = 2
		c.CheckPurchaseWindow = time.Minute
	})

	for i := 0; i < 2; i++ {
		status, _, _ := env.do(t, http.MethodPost, "/auth/check-purchase", map[string]string{"email": "probe@b.com"}, nil)
		require.Equal(t, http.StatusOK, status)
	}

	status, body, hdr := env.do(t, http.MethodPost, "/auth/check-purchase", map[string]string{"email": "probe2@b.com"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, false, body["hasPurchase"])
	assert.Equal(t, "60", hdr.Get("Retry-After"))
}

func TestAuthAPI_CreatePasswordErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body, _ := env.do(t, http.MethodPost, "/auth/create-password", map[string]string{"email": "a@b.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "invalid_input", body["code"])

	status, body, _ = env.do(t, http.MethodPost, "/auth/create-password", map[string]string{"email": "a@b.com", "password": "secret123"}, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["code"])
	assert.NotEmpty(t, body["error"])

	env.do(t, http.MethodPost, "/simulate-purchase", map[string]string{"email": "a@b.com"}, nil)

	status, _, _ = env.do(t, http.MethodPost, "/auth/create-password", map[string]string{"email": "a@b.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, status)

	status, body, _ = env.do(t, http.MethodPost, "/auth/create-password", map[string]string{"email": "A@B.com", "password": "secret123"}, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", body["code"])
}

func TestAuthAPI_LoginFailure_NoEnumeration(t *testing.T) {
	env := newTestEnv(t, nil)

	env.do(t, http.MethodPost, "/simulate-purchase", map[string]string{"email": "a@b.com"}, nil)
	env.do(t, http.MethodPost, "/auth/create-password", map[string]string{"email": "a@b.com", "password": "secret123"}, nil)

	statusA, bodyA, _ := env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "ghost@b.com", "password": "secret123"}, nil)
	statusB, bodyB, _ := env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "a@b.com", "password": "bad-password"}, nil)

	assert.Equal(t, http.StatusUnauthorized, statusA)
	assert.Equal(t, statusA, statusB)
	assert.Equal(t, bodyA, bodyB)
}

func TestAuthAPI_LoginRateLimited(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.LoginIPMax = 2 })

	for i := 0; i < 2; i++ {
		status, _, _ := env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "ghost@b.com", "password": "nope-nope"}, nil)
		require.Equal(t, http.StatusUnauthorized, status)
	}

	status, body, hdr := env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "ghost@b.com", "password": "nope-nope"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", body["code"])
	assert.NotEmpty(t, hdr.Get("Retry-After"))
}

func TestAuthAPI_LoginEmailLockout(t *testing.T) {
	env := newTestEnv(t, nil)

	env.do(t, http.MethodPost, "/simulate-purchase", map[string]string{"email": "a@b.com"}, nil)
	env.do(t, http.MethodPost, "/auth/create-password", map[string]string{"email": "a@b.com", "password": "secret123"}, nil)

	for i := 0; i < 5; i++ {
		status, _, _ := env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "a@b.com", "password": "bad-password"}, nil)
		require.Equal(t, http.StatusUnauthorized, status)
	}

	// Even the right password is refused while locked out.
	status, _, _ := env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "a@b.com", "password": "secret123"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestAuthAPI_CompleteOnboardingRequiresMatchingToken(t *testing.T) {
	env := newTestEnv(t, nil)

	env.do(t, http.MethodPost, "/simulate-purchase", map[string]string{"email": "a@b.com"}, nil)
	_, body, _ := env.do(t, http.MethodPost, "/auth/create-password", map[string]string{"email": "a@b.com", "password": "secret123"}, nil)
	token := body["token"].(string)

	status, _, _ := env.do(t, http.MethodPost, "/auth/complete-onboarding", map[string]string{"email": "a@b.com"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _, _ = env.do(t, http.MethodPost, "/auth/complete-onboarding", map[string]string{"email": "a@b.com"}, bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body, _ = env.do(t, http.MethodPost, "/auth/complete-onboarding", map[string]string{"email": "other@b.com"}, bearer(token))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, false, body["success"])

	// Body email may be omitted; the token's subject is used.
	status, _, _ = env.do(t, http.MethodPost, "/auth/complete-onboarding", map[string]string{}, bearer(token))
	assert.Equal(t, http.StatusOK, status)

	// Idempotent.
	status, _, _ = env.do(t, http.MethodPost, "/auth/complete-onboarding", map[string]string{"email": "A@B.com"}, bearer(token))
	assert.Equal(t, http.StatusOK, status)
}

func TestAuthAPI_CompleteOnboardingWithoutTokenRequirement(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.RequireToken = false })

	status, body, _ := env.do(t, http.MethodPost, "/auth/complete-onboarding", map[string]string{"email": "ghost@b.com"}, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["code"])

	env.do(t, http.MethodPost, "/simulate-purchase", map[string]string{"email": "a@b.com"}, nil)
	env.do(t, http.MethodPost, "/auth/create-password", map[string]string{"email": "a@b.com", "password": "secret123"}, nil)

	status, _, _ = env.do(t, http.MethodPost, "/auth/complete-onboarding", map[string]string{"email": "a@b.com"}, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAuthAPI_SimulatePurchase(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body, _ := env.do(t, http.MethodPost, "/simulate-purchase", map[string]string{"email": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])

	status, body, _ = env.do(t, http.MethodPost, "/simulate-purchase", map[string]string{"email": "Test@B.com"}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "test@b.com", data["email"])
	assert.Equal(t, gateway.DefaultCustomerName, data["name"])
	assert.True(t, strings.HasPrefix(data["purchaseId"].(string), "TEST_"))

	p, err := env.store.FindPurchase(t.Context(), "test@b.com")
	require.NoError(t, err)
	assert.Equal(t, identity.SourceSimulation, p.Source)
	assert.Equal(t, gateway.DefaultProductID, p.ProductID)
}

func TestAuthAPI_DisabledEndpointsAreNotRegistered(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.EnableSimulation = false
		c.EnableDebug = false
	})

	// The bare mux answers unknown paths with a plain-text 404.
	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/simulate-purchase"},
		{http.MethodPost, APIPrefix + "/simulate-purchase"},
		{http.MethodGet, "/debug/data"},
		{http.MethodGet, APIPrefix + "/debug/data"},
	}
	for _, tc := range cases {
		req, err := http.NewRequest(tc.method, env.ts.URL+tc.path, strings.NewReader(`{"email":"a@b.com"}`))
		require.NoError(t, err)
		resp, err := env.ts.Client().Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, tc.path)
	}
}

func TestAuthAPI_DebugData(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body, _ := env.do(t, http.MethodGet, "/debug/data", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["users"])
	assert.Equal(t, 0.0, body["totalPurchases"])

	env.do(t, http.MethodPost, "/simulate-purchase", map[string]string{"email": "b@x.com"}, nil)
	env.do(t, http.MethodPost, "/simulate-purchase", map[string]string{"email": "a@x.com"}, nil)
	env.do(t, http.MethodPost, "/auth/create-password", map[string]string{"email": "a@x.com", "password": "secret123"}, nil)

	status, body, _ = env.do(t, http.MethodGet, "/debug/data", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"a@x.com", "b@x.com"}, body["purchases"])
	assert.Equal(t, []any{"a@x.com"}, body["users"])
	assert.Equal(t, 2.0, body["totalPurchases"])
	assert.Equal(t, 1.0, body["totalUsers"])
}

func TestAuthAPI_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/auth/login", "/auth/create-password", "/webhook/purchase", "/auth/check-purchase"} {
		status, _, _ := env.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, status, path)
	}
	status, _, _ := env.do(t, http.MethodPost, "/auth/me", map[string]string{}, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestAuthAPI_MeRequiresToken(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body, _ := env.do(t, http.MethodGet, "/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", body["code"])

	// Valid signature but the account does not exist.
	tok, _, err := env.tokens.Issue(session.Subject{Email: "ghost@b.com"}, time.Now().UTC())
	require.NoError(t, err)
	status, _, _ = env.do(t, http.MethodGet, "/auth/me", nil, bearer(tok))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{identity.OpError{Op: "x", Kind: identity.ErrInvalidInput}, http.StatusBadRequest},
		{identity.NotFoundError{Op: "x", Resource: "user"}, http.StatusNotFound},
		{identity.ConflictError{Op: "x", Field: "email"}, http.StatusConflict},
		{identity.OpError{Op: "x", Kind: identity.ErrUnauthorized}, http.StatusUnauthorized},
		{identity.OpError{Op: "x", Kind: identity.ErrForbidden}, http.StatusForbidden},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		got, _ := statusFor(tc.err)
		if got != tc.status {
			t.Fatalf("statusFor(%v)=%d want %d", tc.err, got, tc.status)
		}
	}
}
