package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mohammadpnp/catalog-import/internal/bootstrap"
	"github.com/mohammadpnp/catalog-import/internal/config"
)

// The standalone worker publishes progress through Postgres so the API
// process can relay it to its subscribers.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.ImportWorkerEnabled = true
	if cfg.ProgressBackend != config.ProgressBackendPostgres {
		log.Printf("PROGRESS_BACKEND=%s does not reach API subscribers from a separate worker, using %s",
			cfg.ProgressBackend, config.ProgressBackendPostgres)
		cfg.ProgressBackend = config.ProgressBackendPostgres
	}

	app, err := bootstrap.NewApp(context.Background(), cfg)
	if err != nil {
		log.Fatalf("initialize app: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.StartWorkers(ctx)
	<-ctx.Done()

	log.Println("stopping import workers")
	app.Close()
}
