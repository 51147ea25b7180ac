package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"resume-analyzer-web/internal/bootstrap"
	"resume-analyzer-web/internal/shared/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Serve(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
