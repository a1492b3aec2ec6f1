package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/signal-noise/workbench/internal/pkg/apperr"
)

// Detail is the error envelope shape used across every route: a single
// human-readable string, matching the control plane's documented contract.
type Detail struct {
	Detail string `json:"detail"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondErr inspects err for a wrapped *apperr.Error to pick the status
// code; anything else is reported as a 500 without leaking internals.
func RespondErr(c *gin.Context, err error) {
	if e, ok := apperr.As(err); ok {
		c.JSON(e.Status(), Detail{Detail: e.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, Detail{Detail: "internal error"})
}

// RespondError reports an explicit status/message pair, for handler-level
// validation failures that never became an apperr.Error.
func RespondError(c *gin.Context, status int, msg string) {
	c.JSON(status, Detail{Detail: msg})
}
