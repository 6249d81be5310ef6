package waf

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRule reports a malformed custom rule.
var ErrInvalidRule = errors.New("invalid waf rule")

// Config is the per-profile WAF policy.
type Config struct {
	ProtectionLevel Level
	// BlockMode false turns every rule into detect-only.
	BlockMode       bool
	EnableLogging   bool
	ValidateParams  bool
	ValidateHeaders bool
	ValidateBody    bool
	// TrustedIPs holds addresses or CIDR prefixes that skip inspection.
	TrustedIPs []string
	// TrustedUserAgents are case-insensitive substrings that skip inspection.
	TrustedUserAgents []string
	// CustomRules are evaluated after the engine catalog.
	CustomRules []Rule
}

func preset(level Level) Config {
	return Config{
		ProtectionLevel: level,
		BlockMode:       true,
		EnableLogging:   true,
		ValidateParams:  true,
		ValidateHeaders: true,
		ValidateBody:    true,
	}
}

// Presets returns the WAF policy of every named profile.
func Presets() map[string]Config {
	webhook := preset(LevelLow)
	// Provider signatures and delivery headers are opaque.
	webhook.ValidateHeaders = false

	return map[string]Config{
		"default":   preset(LevelMedium),
		"public":    preset(LevelMedium),
		"auth":      preset(LevelHigh),
		"protected": preset(LevelMedium),
		"payment":   preset(LevelHigh),
		"admin":     preset(LevelHigh),
		"webhook":   webhook,
	}
}

// Preset returns the named WAF policy.
func Preset(name string) (Config, bool) {
	cfg, ok := Presets()[name]
	return cfg, ok
}

type ruleFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Pattern     string   `yaml:"pattern"`
	Locations   []string `yaml:"locations"`
	MinLevel    string   `yaml:"min_level"`
	Category    string   `yaml:"category"`
	Severity    string   `yaml:"severity"`
	Block       *bool    `yaml:"block"`
}

// LoadRules reads custom rules from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read waf rules %s: %w", path, err)
	}
	return ParseRules(data)
}

// ParseRules decodes custom rules from YAML.
func ParseRules(data []byte) ([]Rule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	seen := make(map[string]bool)
	for _, r := range DefaultRules() {
		seen[r.ID] = true
	}

	rules := make([]Rule, 0, len(file.Rules))
	for i, spec := range file.Rules {
		r, err := spec.compile()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("rule %d: %w: duplicate id %q", i, ErrInvalidRule, r.ID)
		}
		seen[r.ID] = true
		rules = append(rules, r)
	}
	return rules, nil
}

func (s ruleSpec) compile() (Rule, error) {
	if s.ID == "" {
		return Rule{}, fmt.Errorf("%w: missing id", ErrInvalidRule)
	}
	if s.Pattern == "" {
		return Rule{}, fmt.Errorf("%w: %s: missing pattern", ErrInvalidRule, s.ID)
	}
	re, err := regexp.Compile(s.Pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %s: %v", ErrInvalidRule, s.ID, err)
	}
	if len(s.Locations) == 0 {
		return Rule{}, fmt.Errorf("%w: %s: no locations", ErrInvalidRule, s.ID)
	}
	locs := make([]Location, 0, len(s.Locations))
	for _, l := range s.Locations {
		loc, err := parseLocation(l)
		if err != nil {
			return Rule{}, err
		}
		locs = append(locs, loc)
	}
	level := LevelLow
	if s.MinLevel != "" {
		if level, err = ParseLevel(s.MinLevel); err != nil {
			return Rule{}, err
		}
	}
	sev, err := parseSeverity(s.Severity)
	if err != nil {
		return Rule{}, err
	}
	category := Category(s.Category)
	if category == "" {
		category = "custom"
	}
	name := s.Name
	if name == "" {
		name = s.ID
	}
	block := true
	if s.Block != nil {
		block = *s.Block
	}
	return Rule{
		ID:          s.ID,
		Name:        name,
		Description: s.Description,
		Pattern:     re,
		Locations:   locs,
		MinLevel:    level,
		Category:    category,
		Severity:    sev,
		Block:       block,
	}, nil
}
