package app

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"
)

// Logger is the app-wide logger type (slog).
type Logger = *slog.Logger

// NewLogger creates the process logger from config and installs it as the
// slog default. Format "pretty" is meant for local terminals; anything else
// yields JSON.
func NewLogger(cfg Config) *slog.Logger {
	log := newLogger(os.Stdout, cfg)
	slog.SetDefault(log)
	return log
}

func newLogger(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(cfg.LogLevel),
		AddSource: true,
	}
	if cfg.LogRedactEmails {
		opts.ReplaceAttr = redactEmailAttr
	}

	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.LogFormat)) {
	case "pretty", "text", "dev":
		h = newPrettyHandler(w, opts, cfg.LogColor)
	default:
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// redactEmailAttr keeps the first character and the domain of an "email"
// attribute: "ana@example.com" becomes "a***@example.com".
func redactEmailAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key != "email" || a.Value.Kind() != slog.KindString {
		return a
	}
	return slog.String(a.Key, maskEmail(a.Value.String()))
}

func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	_, size := utf8.DecodeRuneInString(local)
	return local[:size] + "***@" + domain
}
