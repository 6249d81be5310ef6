package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kaczcards/card-show-finder-sub014/internal/api/middleware"
	"github.com/kaczcards/card-show-finder-sub014/internal/cerberus"
)

// PaymentIntentRequest is the body of POST /payments/intent.
type PaymentIntentRequest struct {
	Amount   int64  `json:"amount" binding:"required"`
	Currency string `json:"currency" binding:"required"`
	ShowID   string `json:"show_id"`
}

// PaymentHandler fronts the privileged payment operation.
type PaymentHandler struct {
	now func() time.Time
}

func NewPaymentHandler() *PaymentHandler {
	return &PaymentHandler{now: time.Now}
}

// CreateIntent validates the request and returns a pending intent. Amounts
// are in minor units.
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req PaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment request"})
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}
	currency := strings.ToLower(req.Currency)
	if len(currency) != 3 || strings.Trim(currency, "abcdefghijklmnopqrstuvwxyz") != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currency must be a three-letter code"})
		return
	}

	userID := c.GetString(cerberus.UserIDKey)
	intent := gin.H{
		"id":         "pi_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		"amount":     req.Amount,
		"currency":   currency,
		"show_id":    req.ShowID,
		"user_id":    userID,
		"status":     "requires_confirmation",
		"created_at": h.now().UTC(),
	}
	middleware.GetRequestLogger(c).WithField("user_id", userID).WithField("amount", req.Amount).Info("payment intent created")
	c.JSON(http.StatusCreated, intent)
}
