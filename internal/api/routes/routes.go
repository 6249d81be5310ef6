package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kaczcards/card-show-finder-sub014/internal/api/handlers"
	"github.com/kaczcards/card-show-finder-sub014/internal/cerberus"
)

// Deps are the services the HTTP surface is wired to.
type Deps struct {
	Security       *cerberus.Cerberus
	WafLogs        handlers.WafLogReader
	Maintenance    handlers.MaintenanceRunner
	WebhookSecrets map[string]string
	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// Register wires up API routes, each behind its security profile.
func Register(router *gin.Engine, deps Deps) error {
	if deps.Security == nil {
		return errors.New("register routes: security pipeline is required")
	}
	sec := deps.Security

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	api.GET("/health", sec.Middleware(cerberus.ProfilePublic), handlers.HealthHandler)
	api.GET("/me", sec.Middleware(cerberus.ProfileProtected), handlers.MeHandler)

	payments := handlers.NewPaymentHandler()
	api.POST("/payments/intent", sec.Middleware(cerberus.ProfilePayment), payments.CreateIntent)

	webhooks := handlers.NewWebhookHandler(deps.WebhookSecrets)
	api.POST("/webhooks/:provider", sec.Middleware(cerberus.ProfileWebhook), webhooks.Receive)

	admin := api.Group("/admin", sec.Middleware(cerberus.ProfileAdmin))
	if deps.WafLogs != nil {
		admin.GET("/waf-logs", handlers.NewWafLogHandler(deps.WafLogs).List)
	}
	if deps.Maintenance != nil {
		admin.POST("/maintenance", handlers.NewMaintenanceHandler(deps.Maintenance).Run)
	}

	// Preflight for every API path is answered by the public profile's CORS handling.
	api.OPTIONS("/*path", sec.Middleware(cerberus.ProfilePublic), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return nil
}
