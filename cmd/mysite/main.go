package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/TheIgorMC/mysite/internal/app"
	"github.com/TheIgorMC/mysite/internal/config"
	"github.com/TheIgorMC/mysite/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logg := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))

	a, err := app.New(cfg, logg)
	if err != nil {
		logg.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logg.Error("server failed", "error", err)
		os.Exit(1)
	}
}
