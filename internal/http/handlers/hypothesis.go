package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/signal-noise/workbench/internal/data/repos/hypothesis"
	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/evidence"
	"github.com/signal-noise/workbench/internal/http/response"
	"github.com/signal-noise/workbench/internal/pkg/apperr"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
	"github.com/signal-noise/workbench/internal/pkg/pointers"
	"github.com/signal-noise/workbench/internal/referencecache"
)

type HypothesisHandler struct {
	hypotheses hypothesis.Repo
	engine     *evidence.Engine
	refCache   *referencecache.Service
	log        *logger.Logger
}

func NewHypothesisHandler(hypotheses hypothesis.Repo, engine *evidence.Engine, refCache *referencecache.Service, log *logger.Logger) *HypothesisHandler {
	return &HypothesisHandler{hypotheses: hypotheses, engine: engine, refCache: refCache, log: log.With("handler", "HypothesisHandler")}
}

func (h *HypothesisHandler) List(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.hypotheses.List(dbc)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}

type createHypothesisBody struct {
	HypothesisText string `json:"hypothesis_text" binding:"required"`
	Description    string `json:"description,omitempty"`
	ReferenceURL   string `json:"reference_url,omitempty"`
	ReferenceType  string `json:"reference_type,omitempty"`
}

func (h *HypothesisHandler) Create(c *gin.Context) {
	var body createHypothesisBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondErr(c, apperr.Validation(err))
		return
	}
	refType := domain.ReferenceType(body.ReferenceType)
	if refType == "" {
		refType = domain.ReferenceTypeNone
	}
	if !isValidReferenceType(refType) {
		response.RespondErr(c, apperr.Validationf("invalid reference_type %q", body.ReferenceType))
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	created, err := h.hypotheses.Create(dbc, &domain.Hypothesis{
		HypothesisText: body.HypothesisText,
		Description:    body.Description,
		ReferenceURL:   body.ReferenceURL,
		ReferenceType:  refType,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, created)
}

type patchHypothesisBody struct {
	HypothesisText *string `json:"hypothesis_text,omitempty"`
	Description    *string `json:"description,omitempty"`
	ReferenceURL   *string `json:"reference_url,omitempty"`
	ReferenceType  *string `json:"reference_type,omitempty"`
}

func (h *HypothesisHandler) Update(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid hypothesis id"))
		return
	}
	var body patchHypothesisBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondErr(c, apperr.Validation(err))
		return
	}

	upd := hypothesis.ContentUpdate{
		HypothesisText: body.HypothesisText,
		Description:    body.Description,
		ReferenceURL:   body.ReferenceURL,
	}
	if body.ReferenceType != nil {
		refType := domain.ReferenceType(*body.ReferenceType)
		if !isValidReferenceType(refType) {
			response.RespondErr(c, apperr.Validationf("invalid reference_type %q", *body.ReferenceType))
			return
		}
		upd.ReferenceType = pointers.Ptr(refType)
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	updated, err := h.hypotheses.Update(dbc, id, upd, "api")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if updated == nil {
		response.RespondErr(c, apperr.NotFoundf("hypothesis %s not found", id))
		return
	}
	response.RespondOK(c, updated)
}

func (h *HypothesisHandler) Delete(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid hypothesis id"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.hypotheses.Delete(dbc, id); err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Status(204)
}

func (h *HypothesisHandler) ListEvidence(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid hypothesis id"))
		return
	}
	rows, err := h.engine.ListEvidenceForHypothesis(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}

func (h *HypothesisHandler) GetReference(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid hypothesis id"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	hyp, err := h.hypotheses.GetByID(dbc, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if hyp == nil {
		response.RespondErr(c, apperr.NotFoundf("hypothesis %s not found", id))
		return
	}
	text, err := h.refCache.GetReferenceText(dbc, hyp)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"full_text": text})
}

func isValidReferenceType(t domain.ReferenceType) bool {
	switch t {
	case domain.ReferenceTypeNone, domain.ReferenceTypePaper, domain.ReferenceTypeArticle, domain.ReferenceTypeBook, domain.ReferenceTypeWebsite:
		return true
	default:
		return false
	}
}
