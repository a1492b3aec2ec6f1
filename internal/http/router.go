package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/signal-noise/workbench/internal/http/handlers"
	httpMW "github.com/signal-noise/workbench/internal/http/middleware"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

const (
	defaultRequestTimeout  = 15 * time.Second
	analysisRequestTimeout = 120 * time.Second
)

type RouterConfig struct {
	Log *logger.Logger

	SourceHandler        *httpH.SourceHandler
	DocumentHandler      *httpH.DocumentHandler
	SegmentHandler       *httpH.SegmentHandler
	HypothesisHandler    *httpH.HypothesisHandler
	QuestionHandler      *httpH.QuestionHandler
	AnalysisHandler      *httpH.AnalysisHandler
	TranscriptionHandler *httpH.TranscriptionHandler
	HealthHandler        *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("signal-noise"))
	r.Use(httpMW.RequestContext(cfg.Log))
	r.Use(httpMW.CORS())

	// Two timeout tiers: analysis routes call out to an LLM and get the
	// long deadline, everything else gets the default.
	def := r.Group("", httpMW.Timeout(defaultRequestTimeout))
	analysis := r.Group("", httpMW.Timeout(analysisRequestTimeout))

	if cfg.HealthHandler != nil {
		def.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	if cfg.SourceHandler != nil {
		def.GET("/sources", cfg.SourceHandler.ListSources)
		def.POST("/ingest-requests", cfg.SourceHandler.CreateIngestRequests)
	}

	if cfg.DocumentHandler != nil {
		def.GET("/documents", cfg.DocumentHandler.ListActive)
		def.POST("/documents/ingest-url", cfg.DocumentHandler.IngestFromURL)
		def.PATCH("/documents/:id", cfg.DocumentHandler.UpdateMetadata)
		def.PATCH("/documents/:id/archive", cfg.DocumentHandler.Archive)
		def.GET("/documents/:id/content", cfg.DocumentHandler.GetContent)
		def.GET("/documents/:id/segments", cfg.DocumentHandler.ListSegments)
	}

	if cfg.SegmentHandler != nil {
		def.GET("/segments", cfg.SegmentHandler.List)
		def.GET("/segments/:id", cfg.SegmentHandler.GetByID)
		def.POST("/segments", cfg.SegmentHandler.Create)
		def.DELETE("/segments/:id", cfg.SegmentHandler.Delete)
		def.GET("/segments/:id/hypotheses", cfg.SegmentHandler.ListHypotheses)
		def.POST("/segments/:id/hypotheses:suggest", cfg.SegmentHandler.SuggestHypotheses)
		def.POST("/segments/:id/evidence", cfg.SegmentHandler.CommitEvidence)
	}

	if cfg.HypothesisHandler != nil {
		def.GET("/hypotheses", cfg.HypothesisHandler.List)
		def.POST("/hypotheses", cfg.HypothesisHandler.Create)
		def.PATCH("/hypotheses/:id", cfg.HypothesisHandler.Update)
		def.DELETE("/hypotheses/:id", cfg.HypothesisHandler.Delete)
		def.GET("/hypotheses/:id/evidence", cfg.HypothesisHandler.ListEvidence)
		def.GET("/hypotheses/:id/reference", cfg.HypothesisHandler.GetReference)
	}

	if cfg.QuestionHandler != nil {
		def.GET("/questions", cfg.QuestionHandler.List)
		def.POST("/questions", cfg.QuestionHandler.Create)
		def.DELETE("/questions/:id", cfg.QuestionHandler.Delete)
		def.GET("/questions/:id/hypotheses", cfg.QuestionHandler.ListHypotheses)
		def.POST("/questions/:id/hypotheses", cfg.QuestionHandler.LinkHypothesis)
	}

	if cfg.AnalysisHandler != nil {
		analysis.POST("/analysis:check_hypothesis", cfg.AnalysisHandler.CheckHypothesis)
		analysis.POST("/analysis:generate_pov", cfg.AnalysisHandler.GeneratePOV)
	}

	if cfg.TranscriptionHandler != nil {
		def.POST("/transcription-requests", cfg.TranscriptionHandler.Create)
	}

	return r
}
