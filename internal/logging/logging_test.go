package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fivetwenty-io/hexo-client/internal/logging"
	"github.com/fivetwenty-io/hexo-client/pkg/hexo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ hexo.Logger = (*logging.Logger)(nil)

func TestLogger_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.New(logging.Options{Out: &buf, Verbose: true})
	logger.Debug("HTTP Request", map[string]interface{}{"method": "GET", "status_code": 200})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "HTTP Request", entry["message"])
	assert.Equal(t, "GET", entry["method"])
	assert.InDelta(t, 200, entry["status_code"], 0)
}

func TestLogger_Level(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.New(logging.Options{Out: &buf})
	logger.Debug("hidden", nil)
	logger.Info("shown", nil)
	logger.Warn("warned", map[string]interface{}{"cache_key": "api_stash_x"})
	logger.Error("failed", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, lines[1], `"level":"warn"`)
	assert.Contains(t, lines[2], `"level":"error"`)
}

func TestLogger_Console(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	console := true
	logger := logging.New(logging.Options{Out: &buf, Console: &console, NoColor: true})
	logger.Info("Schema cache miss", map[string]interface{}{"cache_key": "api_stash_x"})

	assert.Contains(t, buf.String(), "Schema cache miss")
	assert.Contains(t, buf.String(), "cache_key=api_stash_x")
	assert.False(t, json.Valid(buf.Bytes()))
}
