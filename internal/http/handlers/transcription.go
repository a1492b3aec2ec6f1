package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/signal-noise/workbench/internal/data/repos/document"
	"github.com/signal-noise/workbench/internal/data/repos/queue"
	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/http/response"
	"github.com/signal-noise/workbench/internal/pkg/apperr"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

type TranscriptionHandler struct {
	transcription queue.TranscriptionRepo
	documents     document.Repo
	log           *logger.Logger
}

func NewTranscriptionHandler(transcription queue.TranscriptionRepo, documents document.Repo, log *logger.Logger) *TranscriptionHandler {
	return &TranscriptionHandler{transcription: transcription, documents: documents, log: log.With("handler", "TranscriptionHandler")}
}

type createTranscriptionRequestBody struct {
	DocumentID   string   `json:"document_id" binding:"required"`
	Provider     string   `json:"provider" binding:"required"`
	Model        string   `json:"model,omitempty"`
	StartSeconds *float64 `json:"start_seconds,omitempty"`
	EndSeconds   *float64 `json:"end_seconds,omitempty"`
}

func (h *TranscriptionHandler) Create(c *gin.Context) {
	var body createTranscriptionRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondErr(c, apperr.Validation(err))
		return
	}

	documentID, err := parseUUID(body.DocumentID)
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid document_id"))
		return
	}
	provider := domain.TranscriptionProvider(body.Provider)
	if provider != domain.TranscriptionProviderOpenAI && provider != domain.TranscriptionProviderAssemblyAI {
		response.RespondErr(c, apperr.Validationf("invalid provider %q", body.Provider))
		return
	}
	if body.StartSeconds != nil && body.EndSeconds != nil && *body.EndSeconds <= *body.StartSeconds {
		response.RespondErr(c, apperr.Validationf("end_seconds must be greater than start_seconds"))
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	doc, err := h.documents.GetByID(dbc, documentID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if doc == nil {
		response.RespondErr(c, apperr.NotFoundf("document %s not found", documentID))
		return
	}

	created, err := h.transcription.Enqueue(dbc, &domain.TranscriptionRequest{
		DocumentID:   documentID,
		Provider:     provider,
		Model:        body.Model,
		StartSeconds: body.StartSeconds,
		EndSeconds:   body.EndSeconds,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, created)
}
