package app

import (
	"time"

	"github.com/signal-noise/workbench/internal/pkg/env"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

// Config is every environment-driven knob the server and worker
// processes read at startup (SPEC_FULL §6).
type Config struct {
	DatabaseURL  string
	RedisURL     string
	Port         string
	LogMode      string

	OpenAIAPIKey              string
	AssemblyAPIKey            string
	DocumentAIProcessorName   string
	GoogleCredentialsJSON     string

	IngestionPollInterval    time.Duration
	TranscriptionPollInterval time.Duration
	WorkerConcurrency        int
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		DatabaseURL: env.GetEnv("DATABASE_URL", "", log),
		RedisURL:    env.GetEnv("REDIS_URL", "", log),
		Port:        env.GetEnv("PORT", "8080", log),
		LogMode:     env.GetEnv("LOG_MODE", "development", log),

		OpenAIAPIKey:            env.GetEnv("OPENAI_API_KEY", "", log),
		AssemblyAPIKey:          env.GetEnv("ASSEMBLY_API_KEY", "", log),
		DocumentAIProcessorName: env.GetEnv("DOCUMENT_AI_PROCESSOR_NAME", "", log),
		GoogleCredentialsJSON:   env.GetEnv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "", log),

		IngestionPollInterval:     env.GetEnvAsDuration("INGESTION_POLL_INTERVAL", 5*time.Second, log),
		TranscriptionPollInterval: env.GetEnvAsDuration("TRANSCRIPTION_POLL_INTERVAL", 5*time.Second, log),
		WorkerConcurrency:         env.GetEnvAsInt("WORKER_CONCURRENCY", 1, log),
	}
}
