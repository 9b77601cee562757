package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/draeician/ollama-update/internal/config"
)

var configShowFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		cfgPath := config.ConfigFile()

		format := configShowFormat
		if jsonOutput {
			format = "json"
		}

		switch format {
		case "json":
			return emitJSON(cfg)
		case "yaml":
			enc := yaml.NewEncoder(outWriter)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			return enc.Close()
		case "toml", "":
			if !quiet {
				out("# %s\n\n", cfgPath)
			}
			if err := toml.NewEncoder(outWriter).Encode(cfg); err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			return nil
		default:
			return fmt.Errorf("unknown format %q (want toml, json, or yaml)", format)
		}
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show directory paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput {
			return emitJSON(map[string]string{
				"config_dir":  config.ConfigDir(),
				"config_file": config.ConfigFile(),
				"cache_dir":   config.CacheDir(),
			})
		}

		if quiet {
			outln(config.ConfigFile())
			return nil
		}

		out("Config dir:    %s\n", config.ConfigDir())
		out("Config file:   %s\n", config.ConfigFile())
		out("Cache dir:     %s\n", config.CacheDir())
		return nil
	},
}

func init() {
	configShowCmd.Flags().StringVarP(&configShowFormat, "format", "f", "toml", "Output format: toml, json, or yaml")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
