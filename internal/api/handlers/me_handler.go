package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaczcards/card-show-finder-sub014/internal/cerberus"
)

// MeHandler returns the caller resolved by the security middleware.
func MeHandler(c *gin.Context) {
	id := c.GetString(cerberus.UserIDKey)
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    id,
		"email": c.GetString(cerberus.EmailKey),
		"role":  c.GetString(cerberus.RoleKey),
	})
}
