package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	Init(false, &buf)
	Source("waf").WithField("rule_id", "sqli-001").Warn("WAF blocked request")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "waf", line["source"])
	assert.Equal(t, "sqli-001", line["rule_id"])
	assert.Equal(t, "warning", line["level"])
}

func TestInit_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(true, &buf)
	Log().Debug("visible in debug")
	assert.Contains(t, buf.String(), "visible in debug")

	buf.Reset()
	Init(false, &buf)
	Log().Debug("hidden")
	assert.Empty(t, buf.String())
}
