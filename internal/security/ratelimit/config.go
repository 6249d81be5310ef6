package ratelimit

import (
	"time"
)

// DefaultErrorMessage is returned in 429 bodies when a profile has no override.
const DefaultErrorMessage = "Too many requests, please try again later."

// Config is the per-profile limiter policy. It is not persisted.
type Config struct {
	// Limit is the maximum number of requests per window. Zero disables limiting.
	Limit  int
	Window time.Duration
	// IPBased and UserBased select which keys apply. When both apply,
	// the most restrictive result wins.
	IPBased   bool
	UserBased bool
	// AdminBypass exempts callers with the admin role.
	AdminBypass  bool
	ErrorMessage string
}

// Message returns the 429 error text.
func (c Config) Message() string {
	if c.ErrorMessage != "" {
		return c.ErrorMessage
	}
	return DefaultErrorMessage
}

var presets = map[string]Config{
	"default": {
		Limit: 100, Window: time.Minute, IPBased: true, UserBased: true, AdminBypass: true,
	},
	"public": {
		Limit: 200, Window: time.Minute, IPBased: true, AdminBypass: true,
	},
	// Login and MFA endpoints are the privilege-escalation surface: no bypass.
	"auth": {
		Limit: 10, Window: time.Minute, IPBased: true,
		ErrorMessage: "Too many authentication attempts, please try again later.",
	},
	"protected": {
		Limit: 60, Window: time.Minute, IPBased: true, UserBased: true, AdminBypass: true,
	},
	// Financial operations are never exempted.
	"payment": {
		Limit: 10, Window: time.Minute, IPBased: true, UserBased: true,
		ErrorMessage: "Too many payment requests, please try again later.",
	},
	"admin": {
		Limit: 300, Window: time.Minute, UserBased: true, AdminBypass: true,
	},
	"webhook": {
		Limit: 1000, Window: time.Minute, IPBased: true, AdminBypass: true,
	},
}

// Preset returns a copy of the named limiter policy.
func Preset(name string) (Config, bool) {
	cfg, ok := presets[name]
	return cfg, ok
}

// Presets returns a copy of every named limiter policy.
func Presets() map[string]Config {
	out := make(map[string]Config, len(presets))
	for name, cfg := range presets {
		out[name] = cfg
	}
	return out
}
