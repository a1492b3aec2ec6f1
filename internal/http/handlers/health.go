package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/signal-noise/workbench/internal/http/response"
	"github.com/signal-noise/workbench/internal/pkg/apperr"
)

// HealthHandler reports whether the database is reachable — Unavailable
// (503) per SPEC_FULL §7 when it is not, rather than a bare 500.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err != nil {
		response.RespondErr(c, apperr.Unavailable(err))
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		response.RespondErr(c, apperr.Unavailable(err))
		return
	}
	response.RespondOK(c, gin.H{"status": "ok"})
}
