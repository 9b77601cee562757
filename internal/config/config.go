package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/draeician/ollama-update/internal/unitfile"
)

type ServiceConfig struct {
	Name       string   `toml:"name" json:"name" yaml:"name"`
	UnitFile   string   `toml:"unit_file" json:"unit_file" yaml:"unit_file"`
	Manager    string   `toml:"manager" json:"manager" yaml:"manager"`
	Directives []string `toml:"directives" json:"directives" yaml:"directives"`
	Validate   bool     `toml:"validate" json:"validate" yaml:"validate"`
}

type InstallerConfig struct {
	URL        string  `toml:"url" json:"url" yaml:"url"`
	ScriptPath string  `toml:"script_path" json:"script_path" yaml:"script_path"`
	VersionEnv string  `toml:"version_env" json:"version_env" yaml:"version_env"`
	Timeout    float64 `toml:"timeout" json:"timeout" yaml:"timeout"`
}

type ReleasesConfig struct {
	APIBaseURL string `toml:"api_base_url" json:"api_base_url" yaml:"api_base_url"`
	Owner      string `toml:"owner" json:"owner" yaml:"owner"`
	Repo       string `toml:"repo" json:"repo" yaml:"repo"`
}

type SelfUpdateConfig struct {
	Owner string `toml:"owner" json:"owner" yaml:"owner"`
	Repo  string `toml:"repo" json:"repo" yaml:"repo"`
}

type SetupConfig struct {
	SudoersFile    string `toml:"sudoers_file" json:"sudoers_file" yaml:"sudoers_file"`
	InstallDir     string `toml:"install_dir" json:"install_dir" yaml:"install_dir"`
	CompletionFile string `toml:"completion_file" json:"completion_file" yaml:"completion_file"`
}

type Config struct {
	WorkDir    string           `toml:"work_dir" json:"work_dir" yaml:"work_dir"`
	Service    ServiceConfig    `toml:"service" json:"service" yaml:"service"`
	Installer  InstallerConfig  `toml:"installer" json:"installer" yaml:"installer"`
	Releases   ReleasesConfig   `toml:"releases" json:"releases" yaml:"releases"`
	SelfUpdate SelfUpdateConfig `toml:"self_update" json:"self_update" yaml:"self_update"`
	Setup      SetupConfig      `toml:"setup" json:"setup" yaml:"setup"`
}

func DefaultConfig() Config {
	directives := make([]string, len(unitfile.DefaultDirectives))
	copy(directives, unitfile.DefaultDirectives)

	return Config{
		WorkDir: CacheDir(),
		Service: ServiceConfig{
			Name:       "ollama.service",
			UnitFile:   "/etc/systemd/system/ollama.service",
			Manager:    "systemctl",
			Directives: directives,
			Validate:   true,
		},
		Installer: InstallerConfig{
			URL:        "https://ollama.com/install.sh",
			ScriptPath: filepath.Join(CacheDir(), "update_ollama.sh"),
			VersionEnv: "OLLAMA_VERSION",
			Timeout:    60.0,
		},
		Releases: ReleasesConfig{
			APIBaseURL: "https://api.github.com",
			Owner:      "ollama",
			Repo:       "ollama",
		},
		SelfUpdate: SelfUpdateConfig{
			Owner: "draeician",
			Repo:  "ollama-update",
		},
		Setup: SetupConfig{
			SudoersFile:    "/etc/sudoers.d/ollama-update",
			InstallDir:     "/usr/local/bin",
			CompletionFile: "/etc/bash_completion.d/ollama-update",
		},
	}
}

func (c Config) clone() Config {
	out := c
	if c.Service.Directives != nil {
		out.Service.Directives = make([]string, len(c.Service.Directives))
		copy(out.Service.Directives, c.Service.Directives)
	}
	return out
}

var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Init loads the config file into the process-wide config. A malformed file
// leaves the defaults in place and returns the parse error.
func Init() (Config, error) {
	return Reload()
}

func Get() Config {
	configMu.RLock()
	if c := globalConfig; c != nil {
		configMu.RUnlock()
		return c.clone()
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()
	if globalConfig != nil {
		return globalConfig.clone()
	}
	c, _ := Load("")
	globalConfig = &c
	return c.clone()
}

func Reload() (Config, error) {
	configMu.Lock()
	defer configMu.Unlock()
	c, err := Load("")
	globalConfig = &c
	return c.clone(), err
}

func Load(path string) (Config, error) {
	if path == "" {
		path = ConfigFile()
	}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return applyEnvOverrides(cfg), nil
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return applyEnvOverrides(DefaultConfig()), fmt.Errorf("parsing config %s: %w", path, err)
	}

	return applyEnvOverrides(cfg), nil
}

func Save(cfg Config, path string) error {
	if path == "" {
		path = ConfigFile()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg Config) Config {
	if v := os.Getenv("OLLAMA_UPDATE_UNIT_FILE"); v != "" {
		cfg.Service.UnitFile = v
	}
	if v := os.Getenv("OLLAMA_UPDATE_SERVICE_MANAGER"); v != "" {
		cfg.Service.Manager = v
	}
	if v := os.Getenv("OLLAMA_UPDATE_WORK_DIR"); v != "" {
		cfg.WorkDir = v
	}
	return cfg
}
