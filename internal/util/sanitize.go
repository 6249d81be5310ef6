package util

import (
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxLogValueLength bounds every user-supplied value written to logs.
const MaxLogValueLength = 200

// RedactedMarker replaces the value of sensitive fields. The field itself is kept.
const RedactedMarker = "[REDACTED]"

var controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]+`)

// sensitiveNames are matched as substrings of the normalized field name,
// so "x-api-key", "access_token" and "session_id" are all covered.
var sensitiveNames = []string{
	"authorization",
	"cookie",
	"api-key",
	"apikey",
	"password",
	"passwd",
	"token",
	"secret",
	"jwt",
	"session",
	"card-number",
	"cvv",
}

// inlineSecret finds key=value and key: value pairs with a sensitive key inside
// opaque text such as raw bodies. Group 3 is the value.
var inlineSecret = regexp.MustCompile(`(?i)([\w-]*(?:` + inlineNames() + `)[\w-]*)(\s*["']?\s*[:=]\s*["']?)([^\s&,;"']+)`)

var inlineBearer = regexp.MustCompile(`(?i)\b(bearer)\s+[\w\-.~+/]{8,}=*`)

func inlineNames() string {
	parts := make([]string, len(sensitiveNames))
	for i, n := range sensitiveNames {
		parts[i] = strings.ReplaceAll(regexp.QuoteMeta(n), "-", "[-_]?")
	}
	return strings.Join(parts, "|")
}

// RedactInline masks credential values embedded in free text, keeping the
// surrounding content so attack payloads stay readable.
func RedactInline(s string) string {
	if s == "" {
		return s
	}
	s = inlineSecret.ReplaceAllString(s, "${1}${2}"+RedactedMarker)
	return inlineBearer.ReplaceAllString(s, "${1} "+RedactedMarker)
}

// SanitizeForLog removes control characters and newlines from user content before logging.
func SanitizeForLog(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = controlChars.ReplaceAllString(s, " ")
	return s
}

// TruncateForLog sanitizes s and cuts it to at most MaxLogValueLength bytes
// without splitting a UTF-8 sequence.
func TruncateForLog(s string) string {
	s = SanitizeForLog(s)
	if len(s) <= MaxLogValueLength {
		return s
	}
	cut := MaxLogValueLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// IsSensitiveName reports whether a header, query or body field name carries
// credentials whose value must never be logged.
func IsSensitiveName(name string) bool {
	n := strings.ToLower(strings.ReplaceAll(name, "_", "-"))
	for _, s := range sensitiveNames {
		if strings.Contains(n, s) {
			return true
		}
	}
	return false
}

// SanitizeField returns the loggable form of a named value.
func SanitizeField(name, value string) string {
	if IsSensitiveName(name) {
		return RedactedMarker
	}
	return TruncateForLog(RedactInline(value))
}

// SanitizeHeaders returns a lower-cased header map safe for persistence.
func SanitizeHeaders(h http.Header) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, vals := range h {
		key := strings.ToLower(k)
		out[key] = SanitizeField(key, strings.Join(vals, ", "))
	}
	return out
}

// SanitizeQuery flattens query values into a map safe for persistence.
func SanitizeQuery(q url.Values) map[string]string {
	if len(q) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(q))
	for k, vals := range q {
		out[TruncateForLog(k)] = SanitizeField(k, strings.Join(vals, ","))
	}
	return out
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
