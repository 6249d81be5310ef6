package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kaczcards/card-show-finder-sub014/internal/api/middleware"
	"github.com/kaczcards/card-show-finder-sub014/internal/models"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/waf"
)

// WafLogReader lists persisted detections. *waf.LogStore satisfies it.
type WafLogReader interface {
	Recent(ctx context.Context, f waf.LogFilter) ([]models.WafLogEntry, error)
}

type WafLogHandler struct {
	store WafLogReader
}

func NewWafLogHandler(store WafLogReader) *WafLogHandler {
	return &WafLogHandler{store: store}
}

// List returns recent WAF detections, filtered by ip, rule_id and category.
func (h *WafLogHandler) List(c *gin.Context) {
	filter := waf.LogFilter{
		IPAddress: c.Query("ip"),
		RuleID:    c.Query("rule_id"),
		Category:  c.Query("category"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		filter.Limit = n
	}

	entries, err := h.store.Recent(c.Request.Context(), filter)
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Error("list waf logs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list WAF logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}
