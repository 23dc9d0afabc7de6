package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture redirects the logger into a temp file for the duration of the
// test and returns a function that reads what was written.
func capture(t *testing.T) func() string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, SetOutput(path))
	t.Cleanup(func() {
		require.NoError(t, SetOutput("stdout"))
		SetLevel("INFO")
	})

	return func() string {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return string(data)
	}
}

func TestLevelFiltering(t *testing.T) {
	read := capture(t)

	SetLevel("WARN")
	Debug("debug line")
	Info("info line")
	Warn("warn line")
	Error("error line")

	output := read()
	assert.NotContains(t, output, "debug line")
	assert.NotContains(t, output, "info line")
	assert.Contains(t, output, "[WARN] warn line")
	assert.Contains(t, output, "[ERROR] error line")
}

func TestSetLevel_IgnoresUnknown(t *testing.T) {
	read := capture(t)

	SetLevel("DEBUG")
	SetLevel("nonsense") // level stays at DEBUG
	Debug("still visible")

	assert.Contains(t, read(), "still visible")
}

func TestSetOutput_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "propstore.log")
	require.NoError(t, SetOutput(path))
	t.Cleanup(func() {
		require.NoError(t, SetOutput("stdout"))
	})

	Info("first run")
	require.NoError(t, SetOutput(path))
	Info("second run")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first run")
	assert.Contains(t, string(data), "second run")
}

func TestFormatting(t *testing.T) {
	read := capture(t)

	SetLevel("INFO")
	Info("store %q ready with %d records", "main", 4)

	assert.Contains(t, read(), `[INFO] store "main" ready with 4 records`)
}
