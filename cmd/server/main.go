package main

import (
	"context"
	"fmt"
	"os"

	"github.com/signal-noise/workbench/internal/app"
	"github.com/signal-noise/workbench/internal/observability"
	"github.com/signal-noise/workbench/internal/pkg/logger"
	"github.com/signal-noise/workbench/internal/pkg/shutdown"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in server main", "recover", r)
			os.Exit(2)
		}
	}()

	cfg := app.LoadConfig(log)
	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("failed to wire app", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := shutdown.NotifyContext(context.Background())
	defer cancel()

	otelShutdown := observability.Init(ctx, log, observability.Config{ServiceName: "signal-noise-server", Environment: os.Getenv("ENVIRONMENT")})
	defer otelShutdown(context.Background())

	srv := a.Server()
	log.Info("server listening", "port", cfg.Port)
	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server shut down gracefully")
}
