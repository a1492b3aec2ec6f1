package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/signal-noise/workbench/internal/data/repos/queue"
	"github.com/signal-noise/workbench/internal/data/repos/source"
	"github.com/signal-noise/workbench/internal/http/response"
	"github.com/signal-noise/workbench/internal/pkg/apperr"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

type SourceHandler struct {
	sources   source.Repo
	ingestion queue.IngestionRepo
	log       *logger.Logger
}

func NewSourceHandler(sources source.Repo, ingestion queue.IngestionRepo, log *logger.Logger) *SourceHandler {
	return &SourceHandler{sources: sources, ingestion: ingestion, log: log.With("handler", "SourceHandler")}
}

func (h *SourceHandler) ListSources(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.sources.List(dbc)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}

type createIngestRequestsBody struct {
	SourceIDs []string `json:"source_ids" binding:"required"`
}

// CreateIngestRequests implements POST /ingest-requests: enqueue at most
// one queued job per source, counting only genuinely new insertions in
// queued_jobs per the S5 idempotency scenario.
func (h *SourceHandler) CreateIngestRequests(c *gin.Context) {
	var body createIngestRequestsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondErr(c, apperr.Validation(err))
		return
	}
	if len(body.SourceIDs) == 0 {
		response.RespondErr(c, apperr.Validationf("source_ids must not be empty"))
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	queuedJobs := 0
	for _, raw := range body.SourceIDs {
		id, err := parseUUID(raw)
		if err != nil {
			response.RespondErr(c, apperr.Validationf("invalid source id %q", raw))
			return
		}
		src, err := h.sources.GetActiveByID(dbc, id)
		if err != nil {
			response.RespondErr(c, err)
			return
		}
		if src == nil {
			response.RespondErr(c, apperr.NotFoundf("source %s not found or inactive", id))
			return
		}
		_, alreadyQueued, err := h.ingestion.Enqueue(dbc, id)
		if err != nil {
			response.RespondErr(c, err)
			return
		}
		if !alreadyQueued {
			queuedJobs++
		}
	}
	response.RespondCreated(c, gin.H{"queued_jobs": queuedJobs})
}
