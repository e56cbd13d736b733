package app

import (
	"strings"
	"time"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	// Env is "development" unless POLI_ENV (or NODE_ENV) says otherwise.
	Env string

	HTTPAddr  string
	LogLevel  string
	LogFormat string // json | pretty
	LogColor  bool
	// LogRedactEmails masks the local part of every "email" log attribute.
	LogRedactEmails bool

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int

	// StaticDir, when set, is served at / with index.html as SPA fallback.
	StaticDir string

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32
	// DBMigrate applies the embedded migrations at startup.
	DBMigrate bool

	// If true, /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// RedisAddr enables the shared login failure store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Production reports whether the process runs with production defaults.
func (c Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	cfg := Config{
		Env: strings.ToLower(EnvFirst("development", "POLI_ENV", "NODE_ENV")),

		HTTPAddr:  httpAddrFromEnv(),
		LogLevel:  EnvString("POLI_LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(EnvString("POLI_LOG_FORMAT", "json")),
		LogColor:  EnvBool("POLI_LOG_COLOR", false),

		ReadHeaderTimeout: EnvDuration("POLI_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("POLI_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("POLI_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("POLI_HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   EnvDuration("POLI_HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    EnvInt("POLI_HTTP_MAX_HEADER_BYTES", 1<<20),

		StaticDir: EnvString("POLI_STATIC_DIR", ""),

		CORSAllowCredentials: EnvBool("POLI_CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAgeSeconds:    EnvInt("POLI_CORS_MAX_AGE_SECONDS", 600),

		DatabaseURL: EnvString("POLI_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("POLI_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("POLI_DB_MIN_CONNS", 0),
		DBMigrate:   EnvBool("POLI_DB_MIGRATE", true),

		ReadinessRequireDB: EnvBool("POLI_READINESS_REQUIRE_DB", false),

		RedisAddr:     EnvString("POLI_REDIS_ADDR", ""),
		RedisPassword: EnvString("POLI_REDIS_PASSWORD", ""),
		RedisDB:       EnvInt("POLI_REDIS_DB", 0),
	}
	cfg.CORSAllowedOrigins = corsOriginsFromEnv(cfg.Production())
	cfg.LogRedactEmails = EnvBool("POLI_LOG_REDACT_EMAILS", cfg.Production())
	return cfg
}

// httpAddrFromEnv prefers POLI_HTTP_ADDR; PORT alone binds every interface.
func httpAddrFromEnv() string {
	if addr := EnvString("POLI_HTTP_ADDR", ""); addr != "" {
		return addr
	}
	if port := EnvString("PORT", ""); port != "" {
		return "0.0.0.0:" + port
	}
	return "0.0.0.0:3001"
}

// corsOriginsFromEnv merges POLI_CORS_ALLOWED_ORIGINS and POLI_FRONTEND_URL.
// Development falls back to the local Vite dev server.
func corsOriginsFromEnv(production bool) []string {
	origins := EnvList("POLI_CORS_ALLOWED_ORIGINS")
	if fe := strings.TrimRight(EnvString("POLI_FRONTEND_URL", ""), "/"); fe != "" {
		origins = append(origins, fe)
	}
	if len(origins) == 0 && !production {
		origins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}
	return origins
}
