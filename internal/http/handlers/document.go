package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/signal-noise/workbench/internal/adapters"
	"github.com/signal-noise/workbench/internal/data/repos/document"
	"github.com/signal-noise/workbench/internal/data/repos/segment"
	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/http/response"
	"github.com/signal-noise/workbench/internal/pkg/apperr"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

type DocumentHandler struct {
	documents document.Repo
	segments  segment.Repo
	fetcher   adapters.ArticleFetcher
	log       *logger.Logger
}

func NewDocumentHandler(documents document.Repo, segments segment.Repo, fetcher adapters.ArticleFetcher, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{documents: documents, segments: segments, fetcher: fetcher, log: log.With("handler", "DocumentHandler")}
}

func (h *DocumentHandler) ListActive(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.documents.ListActive(dbc)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}

func (h *DocumentHandler) Archive(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid document id"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	doc, err := h.documents.Archive(dbc, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if doc == nil {
		response.RespondErr(c, apperr.NotFoundf("document %s not found", id))
		return
	}
	response.RespondOK(c, doc)
}

type updateDocumentMetadataBody struct {
	Title  *string `json:"title"`
	Author *string `json:"author"`
}

// UpdateMetadata edits title/author independent of archiving — a route
// the distilled spec drops but the original system exposes.
func (h *DocumentHandler) UpdateMetadata(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid document id"))
		return
	}
	var body updateDocumentMetadataBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondErr(c, apperr.Validation(err))
		return
	}
	if body.Title == nil && body.Author == nil {
		response.RespondErr(c, apperr.Validationf("at least one of title, author is required"))
		return
	}

	updates := map[string]any{}
	if body.Title != nil {
		updates["title"] = *body.Title
	}
	if body.Author != nil {
		updates["author"] = *body.Author
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.documents.UpdateFields(dbc, id, updates); err != nil {
		response.RespondErr(c, err)
		return
	}
	doc, err := h.documents.GetByID(dbc, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if doc == nil {
		response.RespondErr(c, apperr.NotFoundf("document %s not found", id))
		return
	}
	response.RespondOK(c, doc)
}

type ingestURLBody struct {
	URL string `json:"url" binding:"required"`
}

type ingestURLResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

// IngestFromURL fetches an arbitrary URL directly and stores it as a
// document with no source_id, independent of the Source/feed queue
// workflow — a supplementary route the distilled spec dropped but the
// original system exposes (SPEC_FULL §4.8).
func (h *DocumentHandler) IngestFromURL(c *gin.Context) {
	if h.fetcher == nil {
		response.RespondErr(c, apperr.Unavailable(fmt.Errorf("direct-url ingestion is not configured")))
		return
	}
	var body ingestURLBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondErr(c, apperr.Validation(err))
		return
	}
	if strings.TrimSpace(body.URL) == "" {
		response.RespondErr(c, apperr.Validationf("url is required"))
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	article, err := h.fetcher.FetchArticle(dbc.Ctx, body.URL)
	if err != nil {
		h.log.Error("failed to fetch url for direct ingest", "url", body.URL, "error", err)
		response.RespondErr(c, apperr.ProviderError(err))
		return
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = "Untitled Document"
	}

	doc := &domain.Document{
		ExternalID:   body.URL,
		IngestMethod: domain.IngestMethodDirectURL,
		Title:        title,
		Author:       article.Author,
		PublishedAt:  article.PublishedAt,
		OriginalURL:  body.URL,
		ContentText:  article.ContentText,
		ContentHTML:  article.ContentHTML,
		IngestStatus: domain.IngestStatusOK,
		WordCount:    len(strings.Fields(article.ContentText)),
	}
	created, err := h.documents.Create(dbc, doc)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, ingestURLResponse{DocumentID: created.ID.String(), Status: "ok"})
}

func (h *DocumentHandler) GetContent(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid document id"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	doc, err := h.documents.GetByID(dbc, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if doc == nil {
		response.RespondErr(c, apperr.NotFoundf("document %s not found", id))
		return
	}
	response.RespondOK(c, gin.H{"content_text": doc.ContentText, "content_html": doc.ContentHTML})
}

func (h *DocumentHandler) ListSegments(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid document id"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	doc, err := h.documents.GetByID(dbc, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if doc == nil {
		response.RespondErr(c, apperr.NotFoundf("document %s not found", id))
		return
	}
	rows, err := h.segments.ListByDocument(dbc, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}
