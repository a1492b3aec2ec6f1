package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/signal-noise/workbench/internal/evidence"
	"github.com/signal-noise/workbench/internal/http/response"
	"github.com/signal-noise/workbench/internal/pkg/apperr"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

type AnalysisHandler struct {
	engine *evidence.Engine
	log    *logger.Logger
}

func NewAnalysisHandler(engine *evidence.Engine, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{engine: engine, log: log.With("handler", "AnalysisHandler")}
}

type checkHypothesisBody struct {
	SegmentText          string  `json:"segment_text" binding:"required"`
	HypothesisText       string  `json:"hypothesis_text" binding:"required"`
	Description          string  `json:"description,omitempty"`
	ReferenceURL         string  `json:"reference_url,omitempty"`
	IncludeFullReference bool    `json:"include_full_reference,omitempty"`
	HypothesisID         *string `json:"hypothesis_id,omitempty"`
}

// CheckHypothesis implements POST /analysis:check_hypothesis (§4.7.2).
func (h *AnalysisHandler) CheckHypothesis(c *gin.Context) {
	var body checkHypothesisBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondErr(c, apperr.Validation(err))
		return
	}

	req := evidence.AnalyzeRequest{
		SegmentText:          body.SegmentText,
		HypothesisText:       body.HypothesisText,
		Description:          body.Description,
		ReferenceURL:         body.ReferenceURL,
		IncludeFullReference: body.IncludeFullReference,
	}
	if body.HypothesisID != nil {
		id, err := parseUUID(*body.HypothesisID)
		if err != nil {
			response.RespondErr(c, apperr.Validationf("invalid hypothesis_id"))
			return
		}
		req.HypothesisID = &id
	}

	result, err := h.engine.Analyze(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"verdict":       result.Verdict,
		"analysis_text": result.AnalysisText,
		"analysis_mode": result.Mode,
	})
}

// GeneratePOV implements POST /analysis:generate_pov. The source system's
// production contract for this endpoint is unspecified (SPEC_FULL §9
// Open Question); this exposes a well-formed stub rather than guessing
// at semantics.
func (h *AnalysisHandler) GeneratePOV(c *gin.Context) {
	response.RespondOK(c, gin.H{
		"pov_text":       "",
		"implemented":    false,
		"not_implemented_reason": "generate_pov has no specified production contract",
	})
}
