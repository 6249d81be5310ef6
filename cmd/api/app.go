package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/kaczcards/card-show-finder-sub014/internal/api/routes"
	"github.com/kaczcards/card-show-finder-sub014/internal/cerberus"
	"github.com/kaczcards/card-show-finder-sub014/internal/config"
	"github.com/kaczcards/card-show-finder-sub014/internal/database"
	"github.com/kaczcards/card-show-finder-sub014/internal/logger"
	"github.com/kaczcards/card-show-finder-sub014/internal/metrics"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/auth"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/headers"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/ratelimit"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/waf"
	"github.com/kaczcards/card-show-finder-sub014/internal/services"
)

// app holds the process-wide components built from config.
type app struct {
	cfg         config.Config
	db          *gorm.DB
	redis       *redis.Client
	registry    *prometheus.Registry
	security    *cerberus.Cerberus
	wafLogs     *waf.LogStore
	alerts      *services.AlertService
	maintenance *services.MaintenanceService
}

func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a := &app{cfg: cfg, db: db}

	store, err := a.rateLimitStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	provider := auth.NewJWTProvider(cfg.Auth.JWTSecret, auth.JWTOptions{
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	})
	gate := auth.NewGate(provider, auth.NewGormProfileStore(db))
	limiter := ratelimit.New(store, gate)

	a.wafLogs = waf.NewLogStore(db)
	rules := waf.DefaultRules()
	if cfg.Security.WAFRulesFile != "" {
		custom, err := waf.LoadRules(cfg.Security.WAFRulesFile)
		if err != nil {
			a.Close()
			return nil, err
		}
		rules = append(rules, custom...)
		logger.Source("waf").WithField("count", len(custom)).Info("loaded custom waf rules")
	}
	opts := []waf.Option{waf.WithRules(rules), waf.WithLogWriter(a.wafLogs)}
	a.alerts = services.NewAlertService(cfg.Security.AlertURLs, services.DefaultAlertCooldown)
	if a.alerts.Enabled() {
		opts = append(opts, waf.WithAlerter(a.alerts))
	}
	engine := waf.New(opts...)

	cors := headers.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.Security.CORSOrigins
	a.security = cerberus.New(limiter, engine, gate, cerberus.Options{
		CORS:          cors,
		IsDevelopment: cfg.IsDevelopment(),
		TrustedIPs:    cfg.Security.TrustedIPs,
		MaxBodyBytes:  cfg.Security.MaxBodyBytes,
	})

	a.maintenance = services.NewMaintenanceService(limiter, a.wafLogs, cfg.Security.WAFRetentionDays)

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(a.registry)
	return a, nil
}

func (a *app) rateLimitStore(ctx context.Context) (ratelimit.Store, error) {
	switch a.cfg.RateLimit.Backend {
	case config.RateLimitBackendMemory:
		return ratelimit.NewMemoryStore(), nil
	case config.RateLimitBackendRedis:
		opts, err := redis.ParseURL(a.cfg.RateLimit.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		a.redis = redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return ratelimit.NewRedisStore(a.redis, ""), nil
	default:
		return ratelimit.NewGormStore(a.db), nil
	}
}

func (a *app) deps() routes.Deps {
	return routes.Deps{
		Security:       a.security,
		WafLogs:        a.wafLogs,
		Maintenance:    a.maintenance,
		WebhookSecrets: a.cfg.Security.WebhookSecrets,
		Gatherer:       a.registry,
	}
}

// Close drains pending alerts and releases connections.
func (a *app) Close() {
	if a.alerts != nil {
		a.alerts.Wait()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
