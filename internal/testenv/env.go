// Package testenv points ollama-update's config and cache directories at
// isolated locations for tests.
package testenv

import "path/filepath"

// Dirs contains isolated config and cache directories.
type Dirs struct {
	Base   string
	Config string
	Cache  string
}

// NewDirs returns conventional test directories rooted at base.
func NewDirs(base string) Dirs {
	return Dirs{
		Base:   base,
		Config: filepath.Join(base, "config"),
		Cache:  filepath.Join(base, "cache"),
	}
}

// Apply sets the OLLAMA_UPDATE_* directory variables to dirs under base and
// clears the overrides that would otherwise leak in from the host.
func Apply(setenv func(string, string), base string) Dirs {
	dirs := NewDirs(base)
	setenv("OLLAMA_UPDATE_CONFIG_DIR", dirs.Config)
	setenv("OLLAMA_UPDATE_CACHE_DIR", dirs.Cache)
	setenv("OLLAMA_UPDATE_UNIT_FILE", "")
	setenv("OLLAMA_UPDATE_SERVICE_MANAGER", "")
	setenv("OLLAMA_UPDATE_WORK_DIR", "")
	setenv("OLLAMA_UPDATE_GITHUB_TOKEN", "")
	setenv("OLLAMA_HOST", "")
	setenv("SUDO_USER", "")
	return dirs
}

// ApplySameDir points config and cache to the same directory.
func ApplySameDir(setenv func(string, string), dir string) {
	setenv("OLLAMA_UPDATE_CONFIG_DIR", dir)
	setenv("OLLAMA_UPDATE_CACHE_DIR", dir)
}
