// Package logging sends the standard logger to a rotating file. The TUI owns
// the terminal, so nothing is written to stdout or stderr.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fragmede/passage/internal/config"
)

// Setup points the standard logger at cfg.LogPath. The returned closer flushes
// and releases the file; call it on shutdown.
func Setup(cfg config.Config) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	w := &lumberjack.Logger{
		Filename:   cfg.LogPath,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}
	log.SetOutput(w)
	flags := log.LstdFlags
	if cfg.Debug {
		flags |= log.Lshortfile
	}
	log.SetFlags(flags)
	return w, nil
}
