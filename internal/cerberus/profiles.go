package cerberus

import (
	"github.com/kaczcards/card-show-finder-sub014/internal/security/headers"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/ratelimit"
	"github.com/kaczcards/card-show-finder-sub014/internal/security/waf"
)

// AuthRequirement selects how the orchestrator treats authentication.
type AuthRequirement string

const (
	AuthNone     AuthRequirement = "none"
	AuthOptional AuthRequirement = "optional"
	AuthRequired AuthRequirement = "required"
)

// Profile names.
const (
	ProfileDefault   = "default"
	ProfilePublic    = "public"
	ProfileAuth      = "auth"
	ProfileProtected = "protected"
	ProfilePayment   = "payment"
	ProfileAdmin     = "admin"
	ProfileWebhook   = "webhook"
)

// SecurityConfig is the static policy of one endpoint.
type SecurityConfig struct {
	// Endpoint namespaces rate-limit counters. Named profiles default to the profile name.
	Endpoint   string
	RateLimit  *ratelimit.Config
	WAF        *waf.Config
	Auth       AuthRequirement
	Roles      []string
	Headers    headers.Policy
	TrustedIPs []string
}

func profile(name string, auth AuthRequirement, roles ...string) SecurityConfig {
	rl, _ := ratelimit.Preset(name)
	wc, _ := waf.Preset(name)
	return SecurityConfig{
		Endpoint:  name,
		RateLimit: &rl,
		WAF:       &wc,
		Auth:      auth,
		Roles:     roles,
	}
}

// Profiles returns a fresh copy of every named profile.
func Profiles() map[string]SecurityConfig {
	webhook := profile(ProfileWebhook, AuthNone)
	webhook.Headers.DisableSecurityHeaders = true

	return map[string]SecurityConfig{
		ProfileDefault:   profile(ProfileDefault, AuthOptional),
		ProfilePublic:    profile(ProfilePublic, AuthNone),
		ProfileAuth:      profile(ProfileAuth, AuthNone),
		ProfileProtected: profile(ProfileProtected, AuthRequired),
		ProfilePayment:   profile(ProfilePayment, AuthRequired),
		ProfileAdmin:     profile(ProfileAdmin, AuthRequired, "admin"),
		ProfileWebhook:   webhook,
	}
}

// MergeConfig lays custom over the default profile. Nil pointers, empty
// strings and empty slices keep the default value. A custom WAF without a
// protection level takes the default profile's level.
func MergeConfig(custom SecurityConfig) SecurityConfig {
	out := Profiles()[ProfileDefault]
	if custom.Endpoint != "" {
		out.Endpoint = custom.Endpoint
	}
	if custom.RateLimit != nil {
		rl := *custom.RateLimit
		out.RateLimit = &rl
	}
	if custom.WAF != nil {
		wc := *custom.WAF
		if wc.ProtectionLevel == 0 {
			wc.ProtectionLevel = out.WAF.ProtectionLevel
		}
		out.WAF = &wc
	}
	if custom.Auth != "" {
		out.Auth = custom.Auth
	}
	if len(custom.Roles) > 0 {
		out.Roles = append([]string(nil), custom.Roles...)
	}
	if len(custom.TrustedIPs) > 0 {
		out.TrustedIPs = append([]string(nil), custom.TrustedIPs...)
	}
	out.Headers.DisableSecurityHeaders = out.Headers.DisableSecurityHeaders || custom.Headers.DisableSecurityHeaders
	out.Headers.IsDevelopment = out.Headers.IsDevelopment || custom.Headers.IsDevelopment
	if custom.Headers.CustomCSPDirectives != nil {
		out.Headers.CustomCSPDirectives = custom.Headers.CustomCSPDirectives
	}
	if custom.Headers.Overrides != nil {
		out.Headers.Overrides = custom.Headers.Overrides
	}
	return out
}
