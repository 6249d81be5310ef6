package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaczcards/card-show-finder-sub014/internal/api/middleware"
	"github.com/kaczcards/card-show-finder-sub014/internal/services"
)

// MaintenanceRunner runs the cleanup sweeps. *services.MaintenanceService satisfies it.
type MaintenanceRunner interface {
	RunOnce(ctx context.Context) (services.MaintenanceReport, error)
}

type MaintenanceHandler struct {
	runner MaintenanceRunner
}

func NewMaintenanceHandler(runner MaintenanceRunner) *MaintenanceHandler {
	return &MaintenanceHandler{runner: runner}
}

// Run triggers one cleanup pass and reports what was removed. A partial
// failure still returns the counts of the sweeps that succeeded.
func (h *MaintenanceHandler) Run(c *gin.Context) {
	report, err := h.runner.RunOnce(c.Request.Context())
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Error("maintenance run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Maintenance failed", "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}
