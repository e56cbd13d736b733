package api

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls auth API behavior and security defaults.
type Config struct {
	TrustProxy   bool
	MaxBodyBytes int64

	// RequireToken guards /auth/complete-onboarding with a bearer token
	// whose email must match the request body.
	RequireToken bool

	EnableSimulation bool
	EnableDebug      bool

	// WebhookHottok, when set, must match the X-Hotmart-Hottok header.
	// Mismatches are logged and acknowledged without side effects.
	WebhookHottok string

	// CheckPurchaseMax caps /auth/check-purchase lookups per client IP
	// within CheckPurchaseWindow. Zero disables the cap.
	CheckPurchaseMax    int
	CheckPurchaseWindow time.Duration

	LoginIPMax    int
	LoginIPWindow time.Duration

	// LoginUserWindow bounds how far back failures per email are counted
	// for the lockout tiers.
	LoginUserWindow time.Duration

	LockoutShortThreshold  int
	LockoutShortDuration   time.Duration
	LockoutLongThreshold   int
	LockoutLongDuration    time.Duration
	LockoutSevereThreshold int
	LockoutSevereDuration  time.Duration
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
// Simulation defaults to on outside production.
func LoadConfigFromEnv(production bool) Config {
	cfg := Config{
		TrustProxy:             envBool("POLI_AUTH_TRUST_PROXY", false),
		MaxBodyBytes:           envInt64("POLI_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB
		RequireToken:           envBool("POLI_AUTH_REQUIRE_TOKEN", true),
		EnableSimulation:       envBool("POLI_ENABLE_SIMULATION", !production),
		EnableDebug:            envBool("POLI_ENABLE_DEBUG", false),
		WebhookHottok:          strings.TrimSpace(os.Getenv("POLI_WEBHOOK_HOTTOK")),
		CheckPurchaseMax:       envInt("POLI_AUTH_CHECK_PURCHASE_MAX", 30),
		CheckPurchaseWindow:    envDuration("POLI_AUTH_CHECK_PURCHASE_WINDOW", time.Minute),
		LoginIPMax:             envInt("POLI_AUTH_LOGIN_IP_MAX", 20),
		LoginIPWindow:          envDuration("POLI_AUTH_LOGIN_IP_WINDOW", 5*time.Minute),
		LoginUserWindow:        envDuration("POLI_AUTH_LOGIN_USER_WINDOW", 15*time.Minute),
		LockoutShortThreshold:  envInt("POLI_AUTH_LOGIN_LOCKOUT_SHORT_THRESHOLD", 5),
		LockoutShortDuration:   envDuration("POLI_AUTH_LOGIN_LOCKOUT_SHORT_DURATION", 5*time.Minute),
		LockoutLongThreshold:   envInt("POLI_AUTH_LOGIN_LOCKOUT_LONG_THRESHOLD", 10),
		LockoutLongDuration:    envDuration("POLI_AUTH_LOGIN_LOCKOUT_LONG_DURATION", 30*time.Minute),
		LockoutSevereThreshold: envInt("POLI_AUTH_LOGIN_LOCKOUT_SEVERE_THRESHOLD", 20),
		LockoutSevereDuration:  envDuration("POLI_AUTH_LOGIN_LOCKOUT_SEVERE_DURATION", 2*time.Hour),
	}

	// Tiers must escalate; otherwise fall back to defaults.
	if cfg.LockoutLongThreshold <= cfg.LockoutShortThreshold || cfg.LockoutSevereThreshold <= cfg.LockoutLongThreshold {
		cfg.LockoutShortThreshold, cfg.LockoutLongThreshold, cfg.LockoutSevereThreshold = 5, 10, 20
	}

	return cfg
}

func (c Config) lockoutTiers() []lockoutTier {
	return []lockoutTier{
		{Threshold: c.LockoutSevereThreshold, Duration: c.LockoutSevereDuration},
		{Threshold: c.LockoutLongThreshold, Duration: c.LockoutLongDuration},
		{Threshold: c.LockoutShortThreshold, Duration: c.LockoutShortDuration},
	}
}

// FailureRetention is how long recorded failures must be kept to answer
// every throttle question.
func (c Config) FailureRetention() time.Duration {
	d := c.LoginIPWindow
	for _, v := range []time.Duration{c.LoginUserWindow, c.LockoutSevereDuration} {
		if v > d {
			d = v
		}
	}
	return d
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
