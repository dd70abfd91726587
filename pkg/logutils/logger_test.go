package logutils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hypeflow.log")

	logger, closer, err := New(Options{Level: "info", File: path})
	require.NoError(t, err)

	logger.Info().Str("cmp", "test").Msg("hello")
	logger.Debug().Msg("filtered")
	closer()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
	assert.NotContains(t, string(data), "filtered")
}

func TestNew_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hypeflow.log")

	for _, msg := range []string{"first", "second"} {
		logger, closer, err := New(Options{Level: "info", File: path})
		require.NoError(t, err)
		logger.Info().Msg(msg)
		closer()
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestNew_Fallback(t *testing.T) {
	var buf bytes.Buffer

	logger, _, err := New(Options{Level: "warn", Fallback: &buf})
	require.NoError(t, err)

	logger.Warn().Msg("careful")
	assert.Contains(t, buf.String(), "careful")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, DefaultMaxSizeMB, orDefault(0, DefaultMaxSizeMB))
	assert.Equal(t, DefaultMaxBackups, orDefault(-1, DefaultMaxBackups))
	assert.Equal(t, 3, orDefault(3, DefaultMaxAgeDays))
}
