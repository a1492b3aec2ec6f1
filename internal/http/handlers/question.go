package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/signal-noise/workbench/internal/data/repos/question"
	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/http/response"
	"github.com/signal-noise/workbench/internal/pkg/apperr"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

type QuestionHandler struct {
	questions question.Repo
	log       *logger.Logger
}

func NewQuestionHandler(questions question.Repo, log *logger.Logger) *QuestionHandler {
	return &QuestionHandler{questions: questions, log: log.With("handler", "QuestionHandler")}
}

func (h *QuestionHandler) List(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.questions.List(dbc)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}

type createQuestionBody struct {
	QuestionText string `json:"question_text" binding:"required"`
}

func (h *QuestionHandler) Create(c *gin.Context) {
	var body createQuestionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondErr(c, apperr.Validation(err))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	created, err := h.questions.Create(dbc, &domain.Question{QuestionText: body.QuestionText})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, created)
}

func (h *QuestionHandler) Delete(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid question id"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.questions.Delete(dbc, id); err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Status(204)
}

func (h *QuestionHandler) ListHypotheses(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid question id"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.questions.ListHypotheses(dbc, id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, rows)
}

type linkHypothesisBody struct {
	HypothesisID string `json:"hypothesis_id" binding:"required"`
}

func (h *QuestionHandler) LinkHypothesis(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid question id"))
		return
	}
	var body linkHypothesisBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondErr(c, apperr.Validation(err))
		return
	}
	hypothesisID, err := parseUUID(body.HypothesisID)
	if err != nil {
		response.RespondErr(c, apperr.Validationf("invalid hypothesis_id"))
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	link, err := h.questions.LinkHypothesis(dbc, id, hypothesisID)
	if err != nil {
		if errors.Is(err, question.ErrAlreadyLinked) {
			response.RespondErr(c, apperr.Conflict(err))
			return
		}
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, link)
}
