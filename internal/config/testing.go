package config

import "testing"

// Override installs cfg as the loaded config until the test ends. Tests use
// it instead of writing a config.toml and calling Init.
func Override(t testing.TB, cfg Config) {
	t.Helper()
	configMu.Lock()
	prev := globalConfig
	next := cfg.clone()
	globalConfig = &next
	configMu.Unlock()

	t.Cleanup(func() {
		configMu.Lock()
		globalConfig = prev
		configMu.Unlock()
	})
}
