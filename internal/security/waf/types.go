package waf

import (
	"fmt"
	"regexp"
	"strings"
)

// Level is the ordinal protection level. Higher levels activate strictly more rules.
type Level int

const (
	LevelLow Level = iota + 1
	LevelMedium
	LevelHigh
	LevelMaximum
)

var levelNames = map[Level]string{
	LevelLow:     "low",
	LevelMedium:  "medium",
	LevelHigh:    "high",
	LevelMaximum: "maximum",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel parses "low", "medium", "high" or "maximum".
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for l, name := range levelNames {
		if name == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown protection level %q", ErrInvalidRule, s)
}

// Location is a part of the request a rule inspects.
type Location string

const (
	LocationQuery   Location = "query"
	LocationBody    Location = "body"
	LocationHeaders Location = "headers"
	LocationPath    Location = "path"
)

func parseLocation(s string) (Location, error) {
	switch loc := Location(strings.ToLower(strings.TrimSpace(s))); loc {
	case LocationQuery, LocationBody, LocationHeaders, LocationPath:
		return loc, nil
	}
	return "", fmt.Errorf("%w: unknown location %q", ErrInvalidRule, s)
}

// Category is the attack taxonomy recorded in logs and metrics.
type Category string

const (
	CategorySQLInjection      Category = "sql_injection"
	CategoryXSS               Category = "xss"
	CategoryPathTraversal     Category = "path_traversal"
	CategoryCommandInjection  Category = "command_injection"
	CategorySSRF              Category = "ssrf"
	CategoryHeaderInjection   Category = "header_injection"
	CategoryDeserialization   Category = "deserialization"
	CategoryXXE               Category = "xxe"
	CategoryScanner           Category = "scanner"
	CategoryCSRF              Category = "csrf"
	CategoryProtocolViolation Category = "protocol_violation"
)

// Severity ranks detections. Critical detections are forwarded to the alerter.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func parseSeverity(s string) (Severity, error) {
	switch sev := Severity(strings.ToLower(strings.TrimSpace(s))); sev {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return sev, nil
	case "":
		return SeverityMedium, nil
	}
	return "", fmt.Errorf("%w: unknown severity %q", ErrInvalidRule, s)
}

// Rule is one entry of the signature catalog.
type Rule struct {
	ID          string
	Name        string
	Description string
	Pattern     *regexp.Regexp
	Locations   []Location
	MinLevel    Level
	Category    Category
	Severity    Severity
	// Block false makes the rule detect-only.
	Block bool
}

// Detection is the outcome of CheckRequest. Value is already sanitized.
type Detection struct {
	Detected bool
	Rule     *Rule
	Location Location
	Key      string
	Value    string
}

// RuleID returns the matched rule id or "".
func (d Detection) RuleID() string {
	if d.Rule == nil {
		return ""
	}
	return d.Rule.ID
}
