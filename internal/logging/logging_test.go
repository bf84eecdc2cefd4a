package logging

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/passage/internal/config"
)

func TestSetupWritesToLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.LogPath = filepath.Join(t.TempDir(), "nested", "passage.log")

	closer, err := Setup(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
	})

	log.Printf("hello from test")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(cfg.LogPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}
