package testutil

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessToken_Claims(t *testing.T) {
	exp := TestTime().Add(30 * time.Minute)
	tok := AccessToken("a@b.com", "admin", exp)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var claims map[string]any
	require.NoError(t, json.Unmarshal(raw, &claims))
	assert.Equal(t, "a@b.com", claims["sub"])
	assert.Equal(t, "admin", claims["role"])
	assert.InDelta(t, float64(exp.Unix()), claims["exp"], 0)
}

func TestRecordingSink(t *testing.T) {
	s := &RecordingSink{}
	tags := map[string]string{"a": "1"}
	s.Count("x", 2, tags)
	s.Gauge("y", 1.5, nil)
	s.Timing("z", time.Second, nil)
	tags["a"] = "changed"

	require.Len(t, s.Counts(), 1)
	assert.Equal(t, "1", s.Counts()[0].Tags["a"])
	assert.Equal(t, 1, s.CountNamed("x"))
	assert.Equal(t, 0, s.CountNamed("missing"))
	assert.Len(t, s.Gauges(), 1)
	assert.Len(t, s.Timings(), 1)
}

func TestEnvBool(t *testing.T) {
	t.Setenv("SECUREOPS_TEST_FLAG", "Yes")
	assert.True(t, envBool("SECUREOPS_TEST_FLAG"))
	t.Setenv("SECUREOPS_TEST_FLAG", "0")
	assert.False(t, envBool("SECUREOPS_TEST_FLAG"))
}
