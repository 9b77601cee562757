package cli

import (
	"context"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/draeician/ollama-update/internal/config"
	"github.com/draeician/ollama-update/internal/logging"
)

// version is injected at build time via -ldflags.
var version = "dev"

var (
	jsonOutput bool
	noColor    bool
	verbose    bool
	quiet      bool
	dryRun     bool
	setVersion string
)

var rootCmd = &cobra.Command{
	Use:   "ollama-update",
	Short: "Update Ollama and keep its systemd unit patched",
	Long: `Downloads and runs the official Ollama installer, then makes sure the
ollama systemd unit still loads /etc/default/ollama, restarting the service
when the unit had to be changed.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose && quiet {
			verbose = false
		}
		l := logging.NewLogger(os.Stderr)
		logging.Configure(l, logging.Flags{
			Verbose: verbose,
			Quiet:   quiet,
			NoColor: noColor,
			JSON:    jsonOutput,
		})
		ctx := logging.WithLogger(cmd.Context(), l)
		cmd.SetContext(ctx)

		// Load config from disk so malformed files surface a warning.
		if _, err := config.Init(); err != nil {
			l.Warn("config file is malformed, using defaults", "err", err)
		}
	},
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization
	// cycle: runRoot -> runSetup -> rootCmd.
	rootCmd.RunE = runRoot

	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Minimal output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would change without changing anything")

	rootCmd.Flags().StringVar(&setVersion, "set-version", "", "Install a specific Ollama version (for example 0.4.0-rc6)")
	rootCmd.Flags().Bool("version", false, "Show version and exit")

	// Spellings from the original shell script.
	rootCmd.Flags().Bool("setup", false, "Same as the setup command")
	rootCmd.Flags().Bool("list-versions", false, "Same as the versions command")
	rootCmd.Flags().Bool("update", false, "Same as the self-update command")
	for _, name := range []string{"setup", "list-versions", "update"} {
		_ = rootCmd.Flags().MarkHidden(name)
	}

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(selfUpdateCmd)
	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(configCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context.
// Commands access it via cmd.Context().
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func runRoot(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	ctx := cmd.Context()

	if v, _ := flags.GetBool("version"); v {
		out("ollama-update %s\n", version)
		return nil
	}
	if v, _ := flags.GetBool("setup"); v {
		return runSetup(ctx)
	}
	if v, _ := flags.GetBool("list-versions"); v {
		return runVersions(ctx)
	}
	if v, _ := flags.GetBool("update"); v {
		return runSelfUpdate(ctx)
	}
	return runUpdateOllama(ctx)
}

// isTerminal reports whether stdout is a terminal.
var isTerminal = func() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// stdinIsTerminal reports whether a prompt can be answered.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(os.Stdin.Fd())
}
