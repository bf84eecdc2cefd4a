package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

const defaultAPIURL = "https://example.com/api/auth"

type Config struct {
	APIURL         string `env:"PASSAGE_API_URL"`
	ProviderURL    string `env:"PASSAGE_PROVIDER_URL"`
	ProviderKey    string `env:"PASSAGE_PROVIDER_KEY"`
	DataDir        string `env:"PASSAGE_DATA_DIR"`
	DBPath         string
	LogPath        string
	LogMaxSizeMB   int  `env:"PASSAGE_LOG_MAX_SIZE_MB"`
	LogMaxBackups  int  `env:"PASSAGE_LOG_MAX_BACKUPS"`
	Debug          bool `env:"PASSAGE_DEBUG"`
	HistoryPreview int
}

func Default() Config {
	return withDataDir(Config{
		APIURL:         defaultAPIURL,
		LogMaxSizeMB:   5,
		LogMaxBackups:  3,
		HistoryPreview: 20,
	}, filepath.Join(userConfigDir(), "passage"))
}

// Load overlays PASSAGE_* environment variables on top of Default.
func Load() (Config, error) {
	cfg := Default()
	defaultDir := cfg.DataDir
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DataDir != defaultDir {
		cfg = withDataDir(cfg, cfg.DataDir)
	}
	return cfg, nil
}

func withDataDir(cfg Config, dir string) Config {
	cfg.DataDir = dir
	cfg.DBPath = filepath.Join(dir, "history.db")
	cfg.LogPath = filepath.Join(dir, "passage.log")
	return cfg
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}
