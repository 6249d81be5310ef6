package handlers

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaczcards/card-show-finder-sub014/internal/version"
)

// getLocalIP returns the non-loopback local IP of the host
func getLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return ""
}

// HealthHandler responds with basic service metadata for uptime checks.
func HealthHandler(c *gin.Context) {
	body := gin.H{"status": "ok", "internal_ip": getLocalIP()}
	for k, v := range version.Info() {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}
