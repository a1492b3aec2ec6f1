package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/signal-noise/workbench/internal/data/repos/document"
	"github.com/signal-noise/workbench/internal/data/repos/segment"
	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/evidence"
	"github.com/signal-noise/workbench/internal/http/response"
	"github.com/signal-noise/workbench/internal/pkg/apperr"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

type SegmentHandler struct {
	segments  segment.Repo
	documents document.Repo
	engine    *evidence.Engine
	log       *logger.Logger
}

func NewSegmentHandler(segments segment.Repo, documents document.Repo, engine *evidence.Engine, log *logger.Logger) *SegmentHandler {
	return &SegmentHandler{segments: segments, documents: documents, engine: engine, log: log.With("handler", "SegmentHandler")}
}

func (h *SegmentHandler) List(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.segments.List(dbc)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}

func (h *SegmentHandler) GetByID(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid segment id"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	seg, err := h.segments.GetByID(dbc, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if seg == nil {
		response.RespondErr(c, apperr.NotFoundf("segment %s not found", id))
		return
	}
	doc, err := h.documents.GetByID(dbc, seg.DocumentID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, segment.WithDocument{Segment: seg, Document: doc})
}

type createSegmentBody struct {
	DocumentID  string  `json:"document_id" binding:"required"`
	Text        string  `json:"text" binding:"required"`
	ContentHTML string  `json:"content_html,omitempty"`
	StartOffset *int    `json:"start_offset,omitempty"`
	EndOffset   *int    `json:"end_offset,omitempty"`
	OffsetKind  string  `json:"offset_kind,omitempty"`
}

// Create implements POST /segments, enforcing the offset invariant
// 0 ≤ start < end ≤ len(document.content_text) for offset_kind=text (S1).
func (h *SegmentHandler) Create(c *gin.Context) {
	var body createSegmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondErr(c, apperr.Validation(err))
		return
	}

	documentID, err := parseUUID(body.DocumentID)
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid document_id"))
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

	offsetKind := domain.OffsetKind(body.OffsetKind)
	if offsetKind == "" {
		offsetKind = domain.OffsetKindText
	}

	if body.StartOffset != nil && body.EndOffset != nil {
		start, end := *body.StartOffset, *body.EndOffset
		if start < 0 || end <= start {
			response.RespondErr(c, apperr.Validationf("start_offset must be >= 0 and < end_offset"))
			return
		}
		if offsetKind == domain.OffsetKindText && end > len([]rune(doc.ContentText)) {
			response.RespondErr(c, apperr.Validationf("end_offset exceeds document content length"))
			return
		}
	}

	seg := &domain.Segment{
		DocumentID:    documentID,
		Text:          body.Text,
		ContentHTML:   body.ContentHTML,
		StartOffset:   body.StartOffset,
		EndOffset:     body.EndOffset,
		OffsetKind:    offsetKind,
		SegmentStatus: domain.SegmentStatusRaw,
		Version:       1,
	}
	created, err := h.segments.Create(dbc, seg)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, created)
}

func (h *SegmentHandler) Delete(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid segment id"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.segments.Delete(dbc, id); err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Status(204)
}

func (h *SegmentHandler) ListHypotheses(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid segment id"))
		return
	}
	links, err := h.engine.ListHypothesesForSegment(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, links)
}

func (h *SegmentHandler) SuggestHypotheses(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid segment id"))
		return
	}
	suggestions, err := h.engine.Suggest(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"suggestions": suggestions})
}

type commitEvidenceItem struct {
	HypothesisID   *string `json:"hypothesis_id,omitempty"`
	HypothesisText string  `json:"hypothesis_text" binding:"required"`
	Description    string  `json:"description,omitempty"`
	Verdict         string  `json:"verdict,omitempty"`
	AnalysisText    string  `json:"analysis_text,omitempty"`
	AuthoredBy      string  `json:"authored_by" binding:"required"`
}

type commitEvidenceBody struct {
	Items []commitEvidenceItem `json:"items" binding:"required"`
}

var validVerdicts = map[string]domain.Verdict{
	"":             domain.VerdictNone,
	"none":         domain.VerdictNone,
	"confirms":     domain.VerdictConfirms,
	"refutes":      domain.VerdictRefutes,
	"nuances":      domain.VerdictNuances,
	"irrelevant":   domain.VerdictIrrelevant,
}

// CommitEvidence implements POST /segments/{id}/evidence (§4.7.3).
func (h *SegmentHandler) CommitEvidence(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid segment id"))
		return
	}
	var body commitEvidenceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondErr(c, apperr.Validation(err))
		return
	}
	if len(body.Items) == 0 {
		response.RespondErr(c, apperr.Validationf("items must not be empty"))
		return
	}

	items := make([]evidence.CommitItem, 0, len(body.Items))
	for _, raw := range body.Items {
		verdict, ok := validVerdicts[raw.Verdict]
		if !ok {
			response.RespondErr(c, apperr.Validationf("invalid verdict %q", raw.Verdict))
			return
		}
		authoredBy := domain.AuthoredBy(raw.AuthoredBy)
		if authoredBy != domain.AuthoredByHuman && authoredBy != domain.AuthoredByAgent {
			response.RespondErr(c, apperr.Validationf("invalid authored_by %q", raw.AuthoredBy))
			return
		}

		item := evidence.CommitItem{
			HypothesisText: raw.HypothesisText,
			Description:    raw.Description,
			Verdict:        verdict,
			AnalysisText:   raw.AnalysisText,
			AuthoredBy:     authoredBy,
		}
		if raw.HypothesisID != nil {
			hid, err := parseUUID(*raw.HypothesisID)
			if err != nil {
				response.RespondErr(c, apperr.Validationf("invalid hypothesis_id %q", *raw.HypothesisID))
				return
			}
			item.HypothesisID = &hid
		}
		items = append(items, item)
	}

	result, err := h.engine.CommitEvidence(c.Request.Context(), id, items)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, result)
}
