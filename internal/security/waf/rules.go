package waf

import (
	"regexp"
)

var (
	queryBody     = []Location{LocationQuery, LocationBody}
	queryBodyPath = []Location{LocationQuery, LocationBody, LocationPath}
)

// DefaultRules returns the built-in catalog in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "sqli-001",
			Name:        "SQL injection: tautology or comment",
			Description: "Quote followed by a boolean tautology or a trailing SQL comment",
			Pattern:     regexp.MustCompile(`(?i)['"]\s*(or|and)\s+['"]?\w+['"]?\s*(=|<|>|like)\s*['"]?\w+|['"]\s*;?\s*(--|#|/\*)`),
			Locations:   queryBodyPath,
			MinLevel:    LevelLow,
			Category:    CategorySQLInjection,
			Severity:    SeverityCritical,
			Block:       true,
		},
		{
			ID:          "sqli-002",
			Name:        "SQL injection: UNION SELECT",
			Description: "UNION based data extraction",
			Pattern:     regexp.MustCompile(`(?i)\bunion\b[\s(]+(all\s+)?\(?\s*select\b`),
			Locations:   queryBodyPath,
			MinLevel:    LevelLow,
			Category:    CategorySQLInjection,
			Severity:    SeverityCritical,
			Block:       true,
		},
		{
			ID:          "sqli-003",
			Name:        "SQL injection: stacked statement",
			Description: "Statement terminator followed by a data-modifying statement",
			Pattern:     regexp.MustCompile(`(?i);\s*(drop|truncate|alter|create)\s+(table|database|schema)\b|;\s*delete\s+from\b|;\s*insert\s+into\b|;\s*update\s+\w+\s+set\b`),
			Locations:   queryBody,
			MinLevel:    LevelMedium,
			Category:    CategorySQLInjection,
			Severity:    SeverityCritical,
			Block:       true,
		},
		{
			ID:          "sqli-004",
			Name:        "SQL injection: time based",
			Description: "Blind injection through database sleep functions",
			Pattern:     regexp.MustCompile(`(?i)\b(sleep|pg_sleep|benchmark)\s*\(|\bwaitfor\s+delay\b`),
			Locations:   queryBody,
			MinLevel:    LevelHigh,
			Category:    CategorySQLInjection,
			Severity:    SeverityHigh,
			Block:       true,
		},
		{
			ID:          "xss-001",
			Name:        "XSS: script tag",
			Description: "Inline script element",
			Pattern:     regexp.MustCompile(`(?i)<\s*/?\s*script\b`),
			Locations:   queryBodyPath,
			MinLevel:    LevelLow,
			Category:    CategoryXSS,
			Severity:    SeverityHigh,
			Block:       true,
		},
		{
			ID:          "xss-002",
			Name:        "XSS: event handler or javascript URI",
			Description: "javascript: scheme or inline DOM event handler attribute",
			Pattern:     regexp.MustCompile(`(?i)javascript\s*:|\bon(load|error|click|dblclick|mouseover|mouseout|focus|blur|submit|change|input|keyup|keydown|toggle|animationstart)\s*=`),
			Locations:   queryBody,
			MinLevel:    LevelMedium,
			Category:    CategoryXSS,
			Severity:    SeverityHigh,
			Block:       true,
		},
		{
			ID:          "xss-003",
			Name:        "XSS: embedded content",
			Description: "Elements that load or execute active content",
			Pattern:     regexp.MustCompile(`(?i)<\s*(iframe|object|embed|svg|math|base|applet)\b`),
			Locations:   queryBody,
			MinLevel:    LevelHigh,
			Category:    CategoryXSS,
			Severity:    SeverityMedium,
			Block:       true,
		},
		{
			ID:          "path-001",
			Name:        "Path traversal",
			Description: "Parent directory references, plain or encoded",
			Pattern:     regexp.MustCompile(`(?i)\.\./|\.\.\\|%2e%2e(%2f|%5c|/|\\)|\.\.%2f|\.\.%5c`),
			Locations:   queryBodyPath,
			MinLevel:    LevelLow,
			Category:    CategoryPathTraversal,
			Severity:    SeverityHigh,
			Block:       true,
		},
		{
			ID:          "path-002",
			Name:        "Sensitive file access",
			Description: "Well known system files",
			Pattern:     regexp.MustCompile(`(?i)/etc/(passwd|shadow|hosts|group)\b|/proc/self/|c:\\windows\\|\bboot\.ini\b|\.env\b|\.git/`),
			Locations:   queryBodyPath,
			MinLevel:    LevelMedium,
			Category:    CategoryPathTraversal,
			Severity:    SeverityHigh,
			Block:       true,
		},
		{
			ID:          "cmd-001",
			Name:        "Command injection",
			Description: "Shell metacharacter followed by a common command, or command substitution",
			Pattern:     regexp.MustCompile("(?i)[;&|`]\\s*(cat|ls|id|whoami|uname|wget|curl|nc|ncat|bash|sh|zsh|python|perl|ruby|rm|chmod|ping)\\b|\\$\\([^)]*\\)|`[^`]+`"),
			Locations:   queryBody,
			MinLevel:    LevelMedium,
			Category:    CategoryCommandInjection,
			Severity:    SeverityCritical,
			Block:       true,
		},
		{
			ID:          "ssrf-001",
			Name:        "SSRF: internal target",
			Description: "URLs pointing at loopback, private ranges or cloud metadata endpoints",
			Pattern:     regexp.MustCompile(`(?i)\b(https?|gopher|dict|ftp)://(localhost|127\.\d+\.\d+\.\d+|0\.0\.0\.0|169\.254\.169\.254|metadata\.google\.internal|\[::1?\]|10\.\d+\.\d+\.\d+|192\.168\.\d+\.\d+|172\.(1[6-9]|2\d|3[01])\.\d+\.\d+)|\bfile://`),
			Locations:   queryBody,
			MinLevel:    LevelHigh,
			Category:    CategorySSRF,
			Severity:    SeverityHigh,
			Block:       true,
		},
		{
			ID:          "hdr-001",
			Name:        "Header injection",
			Description: "CR/LF sequence followed by a header line",
			Pattern:     regexp.MustCompile(`(?i)(%0d|%0a|\r|\n)+\s*[\w-]+\s*:`),
			Locations:   []Location{LocationQuery, LocationHeaders},
			MinLevel:    LevelMedium,
			Category:    CategoryHeaderInjection,
			Severity:    SeverityMedium,
			Block:       true,
		},
		{
			ID:          "deser-001",
			Name:        "Insecure deserialization",
			Description: "Serialized object markers and JNDI lookups",
			Pattern:     regexp.MustCompile(`(?i)\bO:\d+:"[^"]+":\d+:\{|\brO0AB|!!python/|java\.lang\.Runtime|javax\.naming\.InitialContext|\$\{jndi:`),
			Locations:   []Location{LocationQuery, LocationBody, LocationHeaders},
			MinLevel:    LevelHigh,
			Category:    CategoryDeserialization,
			Severity:    SeverityCritical,
			Block:       true,
		},
		{
			ID:          "xxe-001",
			Name:        "XML external entity",
			Description: "DOCTYPE or ENTITY declaration referencing an external resource",
			Pattern:     regexp.MustCompile(`(?i)<!\s*(doctype|entity)[^>]*\b(system|public)\b`),
			Locations:   []Location{LocationBody},
			MinLevel:    LevelHigh,
			Category:    CategoryXXE,
			Severity:    SeverityCritical,
			Block:       true,
		},
		{
			ID:          "scanner-001",
			Name:        "Automated scanner",
			Description: "User agent of a known vulnerability scanner",
			Pattern:     regexp.MustCompile(`(?i)\b(sqlmap|nikto|nmap|masscan|acunetix|nessus|wpscan|dirbuster|gobuster|nuclei|zgrab|w3af)\b`),
			Locations:   []Location{LocationHeaders},
			MinLevel:    LevelMedium,
			Category:    CategoryScanner,
			Severity:    SeverityLow,
			Block:       false,
		},
		{
			ID:          "sqli-005",
			Name:        "SQL keywords",
			Description: "Bare SQL statements and catalog access",
			Pattern:     regexp.MustCompile(`(?i)\bselect\b[\s\S]+\bfrom\b|\binsert\s+into\b|\bdelete\s+from\b|\bdrop\s+table\b|\binformation_schema\b|\bxp_cmdshell\b`),
			Locations:   queryBody,
			MinLevel:    LevelMaximum,
			Category:    CategorySQLInjection,
			Severity:    SeverityMedium,
			Block:       true,
		},
	}
}

// Structural rules are not pattern based and run after the catalog.
var (
	ruleMissingCSRF = Rule{
		ID:          "csrf-001",
		Name:        "Missing CSRF token",
		Description: "State-changing request without x-csrf-token or x-xsrf-token",
		MinLevel:    LevelHigh,
		Category:    CategoryCSRF,
		Severity:    SeverityMedium,
		Block:       true,
	}
	ruleContentType = Rule{
		ID:          "proto-001",
		Name:        "Disallowed Content-Type",
		Description: "State-changing request whose body is not JSON, form or multipart",
		MinLevel:    LevelHigh,
		Category:    CategoryProtocolViolation,
		Severity:    SeverityLow,
		Block:       true,
	}
	ruleMissingAccept = Rule{
		ID:          "proto-002",
		Name:        "Missing Accept header",
		Description: "Request without an Accept header",
		MinLevel:    LevelMaximum,
		Category:    CategoryProtocolViolation,
		Severity:    SeverityLow,
		Block:       true,
	}
)
