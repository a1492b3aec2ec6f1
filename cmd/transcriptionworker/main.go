package main

import (
	"context"
	"fmt"
	"os"

	"github.com/signal-noise/workbench/internal/app"
	"github.com/signal-noise/workbench/internal/pkg/logger"
	"github.com/signal-noise/workbench/internal/pkg/shutdown"
	"github.com/signal-noise/workbench/internal/workers/transcription"
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
			log.Error("panic in transcription worker main", "recover", r)
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

	worker := transcription.NewWorker(a.TranscriptionQueue, a.Documents, a.Transcribers, cfg.TranscriptionPollInterval, cfg.WorkerConcurrency, log)
	log.Info("transcription worker starting", "poll_interval", cfg.TranscriptionPollInterval, "concurrency", cfg.WorkerConcurrency)
	worker.Run(ctx)
	log.Info("transcription worker shut down gracefully")
}
