package common

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCrashFile(t *testing.T) {
	prev := CrashLogDir
	t.Cleanup(func() { CrashLogDir = prev })

	InstallCrashHandler(t.TempDir())
	path := WriteCrashFile("boom", "main.go:1")
	require.NotEmpty(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "=== PREMARKET CRASH REPORT ===")
	assert.Contains(t, string(data), "boom")
	assert.Contains(t, string(data), "main.go:1")
}
