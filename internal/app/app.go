// Package app wires the concrete implementations of every component
// together: store, queue, adapters, reference cache, evidence engine,
// and (for the server process) the HTTP router.
package app

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/signal-noise/workbench/internal/adapters"
	"github.com/signal-noise/workbench/internal/adapters/crawl"
	"github.com/signal-noise/workbench/internal/adapters/ingest"
	"github.com/signal-noise/workbench/internal/adapters/llm"
	"github.com/signal-noise/workbench/internal/adapters/transcribe"
	"github.com/signal-noise/workbench/internal/data/db"
	"github.com/signal-noise/workbench/internal/data/repos/document"
	"github.com/signal-noise/workbench/internal/data/repos/evidence"
	"github.com/signal-noise/workbench/internal/data/repos/hypothesis"
	"github.com/signal-noise/workbench/internal/data/repos/question"
	"github.com/signal-noise/workbench/internal/data/repos/queue"
	refcacherepo "github.com/signal-noise/workbench/internal/data/repos/referencecache"
	"github.com/signal-noise/workbench/internal/data/repos/segment"
	"github.com/signal-noise/workbench/internal/data/repos/source"
	evidenceengine "github.com/signal-noise/workbench/internal/evidence"
	httpserver "github.com/signal-noise/workbench/internal/http"
	"github.com/signal-noise/workbench/internal/http/handlers"
	"github.com/signal-noise/workbench/internal/pkg/logger"
	refcache "github.com/signal-noise/workbench/internal/referencecache"
)

// App holds every wired dependency a process (server or worker) needs.
type App struct {
	Config Config
	Log    *logger.Logger
	DB     *gorm.DB
	Redis  *redis.Client

	Sources        source.Repo
	Documents      document.Repo
	Segments       segment.Repo
	Hypotheses     hypothesis.Repo
	Evidence       evidence.Repo
	Questions      question.Repo
	ReferenceCache refcacherepo.Repo
	IngestionQueue queue.IngestionRepo
	TranscriptionQueue queue.TranscriptionRepo

	Ingestors   map[string]adapters.Ingestor
	Transcribers map[string]adapters.Transcriber
	Suggester   adapters.Suggester
	Analyzer    adapters.Analyzer
	Crawler     adapters.Crawler
	ArticleFetcher adapters.ArticleFetcher

	RefCacheService *refcache.Service
	Engine          *evidenceengine.Engine
}

// New wires every component from cfg. Callers that only need a subset
// (e.g. a worker needs no HTTP handlers) simply don't call Server.
func New(cfg Config, log *logger.Logger) (*App, error) {
	pg, err := db.NewPostgresService(log)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	gdb := pg.DB()
	if err := db.AutoMigrateAll(gdb); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opts)
	}

	a := &App{
		Config: cfg,
		Log:    log,
		DB:     gdb,
		Redis:  rdb,

		Sources:            source.NewRepo(gdb, log),
		Documents:          document.NewRepo(gdb, log),
		Segments:           segment.NewRepo(gdb, log),
		Hypotheses:         hypothesis.NewRepo(gdb, log),
		Evidence:           evidence.NewRepo(gdb, log),
		Questions:          question.NewRepo(gdb, log),
		ReferenceCache:     refcacherepo.NewRepo(gdb, log),
		IngestionQueue:     queue.NewIngestionRepo(gdb, log),
		TranscriptionQueue: queue.NewTranscriptionRepo(gdb, log),
	}

	a.Ingestors = map[string]adapters.Ingestor{
		"rss":     ingest.NewFeedIngestor(log),
		"podcast": ingest.NewFeedIngestor(log),
		"manual":  ingest.NewManualIngestor(),
	}

	a.Transcribers = map[string]adapters.Transcriber{}
	if cfg.OpenAIAPIKey != "" {
		a.Transcribers["openai"] = transcribe.NewOpenAIWhisperClient(cfg.OpenAIAPIKey, log)
	}
	if cfg.AssemblyAPIKey != "" {
		a.Transcribers["assembly"] = transcribe.NewAssemblyAIClient(cfg.AssemblyAPIKey, log)
	}

	if cfg.OpenAIAPIKey != "" {
		oai := llm.NewOpenAIClient(cfg.OpenAIAPIKey, log)
		a.Suggester = oai
		a.Analyzer = oai
	}

	var ocr crawl.OCRFallback
	if cfg.DocumentAIProcessorName != "" {
		ocr = crawl.NewDocumentAIFallback(cfg.DocumentAIProcessorName)
	}
	concreteCrawler := crawl.NewCrawler(ocr, log)
	a.Crawler = concreteCrawler
	a.ArticleFetcher = concreteCrawler

	a.RefCacheService = refcache.NewService(a.ReferenceCache, a.Crawler, a.Redis, log)
	a.Engine = evidenceengine.NewEngine(gdb, a.Segments, a.Hypotheses, a.Evidence, a.RefCacheService, a.Suggester, a.Analyzer, log)

	return a, nil
}

// Close releases the DB and Redis connections. Workers and the server
// both defer this from main.
func (a *App) Close() error {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			return err
		}
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Server builds the HTTP server for this App's wired dependencies.
func (a *App) Server() *httpserver.Server {
	cfg := httpserver.RouterConfig{
		Log:                  a.Log,
		SourceHandler:        handlers.NewSourceHandler(a.Sources, a.IngestionQueue, a.Log),
		DocumentHandler:      handlers.NewDocumentHandler(a.Documents, a.Segments, a.ArticleFetcher, a.Log),
		SegmentHandler:       handlers.NewSegmentHandler(a.Segments, a.Documents, a.Engine, a.Log),
		HypothesisHandler:    handlers.NewHypothesisHandler(a.Hypotheses, a.Engine, a.RefCacheService, a.Log),
		QuestionHandler:      handlers.NewQuestionHandler(a.Questions, a.Log),
		AnalysisHandler:      handlers.NewAnalysisHandler(a.Engine, a.Log),
		TranscriptionHandler: handlers.NewTranscriptionHandler(a.TranscriptionQueue, a.Documents, a.Log),
		HealthHandler:        handlers.NewHealthHandler(a.DB),
	}
	return httpserver.NewServer(cfg)
}
