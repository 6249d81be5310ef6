package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kaczcards/card-show-finder-sub014/internal/api/middleware"
	"github.com/kaczcards/card-show-finder-sub014/internal/util"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw body, optionally
// prefixed with "sha256=".
const SignatureHeader = "X-Signature-256"

// WebhookHandler accepts provider callbacks. When secrets is non-empty only
// listed providers are accepted and each payload must be signed.
type WebhookHandler struct {
	secrets map[string]string
}

func NewWebhookHandler(secrets map[string]string) *WebhookHandler {
	normalized := make(map[string]string, len(secrets))
	for k, v := range secrets {
		normalized[strings.ToLower(k)] = v
	}
	return &WebhookHandler{secrets: normalized}
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	provider := strings.ToLower(c.Param("provider"))
	log := middleware.GetRequestLogger(c).WithField("provider", util.TruncateForLog(provider))

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if len(h.secrets) > 0 {
		secret, ok := h.secrets[provider]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown webhook provider"})
			return
		}
		if !validSignature(secret, body, c.GetHeader(SignatureHeader)) {
			log.Warn("webhook signature mismatch")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}

	if !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload must be JSON"})
		return
	}

	log.WithField("bytes", len(body)).Info("webhook received")
	c.JSON(http.StatusAccepted, gin.H{"received": true, "provider": provider})
}

// computeSignature returns the hex HMAC-SHA256 of body.
func computeSignature(secret string, body []byte) string {
	return hex.EncodeToString(bodyMAC(secret, body))
}

func bodyMAC(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// validSignature compares decoded digests, so hex case does not matter.
func validSignature(secret string, body []byte, header string) bool {
	got := strings.TrimSpace(header)
	if len(got) > len("sha256=") && strings.EqualFold(got[:len("sha256=")], "sha256=") {
		got = got[len("sha256="):]
	}
	sig, err := hex.DecodeString(got)
	if err != nil || len(sig) != sha256.Size {
		return false
	}
	return hmac.Equal(sig, bodyMAC(secret, body))
}
