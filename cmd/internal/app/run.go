package app

import (
	"context"
	"errors"
	"io/fs"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

// Run is the CLI entrypoint used by cmd/poli.
// It returns an error instead of calling os.Exit to keep defers effective.
func Run() error {
	// A missing .env is normal outside local development.
	envErr := godotenv.Load()

	cfg := LoadConfig()
	log := NewLogger(cfg)
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		log.Warn("config.dotenv.fail", "err", envErr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := New(ctx, cfg, log)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
