package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit_InvalidLevel(t *testing.T) {
	assert.Error(t, Init(false, "loud"))
}

func TestInitFile(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	path := filepath.Join(t.TempDir(), "dashboard.log")
	require.NoError(t, InitFile("info", path))

	Debug("hidden")
	Info("Worker: poll finished", zap.String("tank", "t500"))
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Worker: poll finished"`)
	assert.Contains(t, string(data), `"tank":"t500"`)
	assert.NotContains(t, string(data), "hidden")
}
