package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ghaggin/estate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "console"

	log, err := New(cfg)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(-1))
}

func TestNew_File(t *testing.T) {
	cfg := config.Default()
	cfg.Log.File = filepath.Join(t.TempDir(), "estate")

	log, err := New(cfg)
	require.NoError(t, err)
	log.Info("hello")
	_ = log.Sync()

	b, err := os.ReadFile(cfg.Log.File + ".log")
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"hello"`)
}

func TestNew_Invalid(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "loud"
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Log.Format = "xml"
	_, err = New(cfg)
	assert.Error(t, err)
}
