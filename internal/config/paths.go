package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "ollama-update"

func ConfigDir() string {
	if v := os.Getenv("OLLAMA_UPDATE_CONFIG_DIR"); v != "" {
		return v
	}
	return filepath.Join(xdg.ConfigHome, appName)
}

func CacheDir() string {
	if v := os.Getenv("OLLAMA_UPDATE_CACHE_DIR"); v != "" {
		return v
	}
	return filepath.Join(xdg.CacheHome, appName)
}

func ConfigFile() string { return filepath.Join(ConfigDir(), "config.toml") }
