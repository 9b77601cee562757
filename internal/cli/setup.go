package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/draeician/ollama-update/internal/config"
	"github.com/draeician/ollama-update/internal/display"
	"github.com/draeician/ollama-update/internal/logging"
	"github.com/draeician/ollama-update/internal/prompt"
	"github.com/draeician/ollama-update/internal/setup"
	"github.com/draeician/ollama-update/internal/sysexec"
)

var (
	setupUser string
	setupYes  bool
)

// Provisioner installs the sudoers drop-in, the binary and completion.
type Provisioner interface {
	Run(ctx context.Context, opts setup.Options) (setup.Result, error)
}

var provisionerFactory = func(ctx context.Context, runner sysexec.Runner) Provisioner {
	return &setup.Provisioner{Runner: runner, Logger: logging.FromContext(ctx)}
}

// executablePath locates the running binary to copy into place.
var executablePath = os.Executable

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Allow password-less updates and install ollama-update system-wide",
	Long: `Grants the user password-less sudo for the Ollama installer script,
copies this binary into the install directory and installs bash completion.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd.Context())
	},
}

func init() {
	setupCmd.Flags().StringVarP(&setupUser, "user", "u", "", "User to grant password-less updates (default: the invoking user)")
	setupCmd.Flags().BoolVarP(&setupYes, "yes", "y", false, "Skip confirmation")
}

func runSetup(ctx context.Context) error {
	cfg := config.Get()

	username := setupUser
	if username == "" {
		u, err := setup.CurrentUsername()
		if err != nil {
			return err
		}
		username = u
	}

	opts := setup.Options{
		Username:       username,
		ScriptPath:     cfg.Installer.ScriptPath,
		SudoersFile:    cfg.Setup.SudoersFile,
		InstallDir:     cfg.Setup.InstallDir,
		BinaryName:     "ollama-update",
		Completion:     func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
		CompletionFile: cfg.Setup.CompletionFile,
		WorkDir:        cfg.WorkDir,
	}
	if exe, err := executablePath(); err == nil {
		opts.BinarySource = exe
	} else {
		logging.FromContext(ctx).Warn("cannot locate running binary, skipping install", "err", err)
	}

	if !setupYes && !dryRun {
		if jsonOutput || !stdinIsTerminal() {
			return errors.New("setup changes system files; rerun with --yes to confirm")
		}
		ok, err := prompt.Default.Confirm(prompt.ConfirmConfig{
			Title:       fmt.Sprintf("Allow %s to update Ollama without a password?", username),
			Description: fmt.Sprintf("Writes %s and installs ollama-update to %s.", opts.SudoersFile, opts.InstallDir),
			Affirmative: "Set up",
			Negative:    "Cancel",
		})
		if err != nil {
			return err
		}
		if !ok {
			outln("Setup cancelled")
			return nil
		}
	}

	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		checkVersions(ctx, host)
	}

	res, err := provisionerFactory(ctx, runnerFactory(ctx)).Run(ctx, opts)
	if jsonOutput {
		outRes := display.SetupResultJSON{
			Username:       res.Username,
			SudoersFile:    res.SudoersFile,
			BinaryPath:     res.BinaryPath,
			CompletionFile: res.CompletionFile,
			Success:        err == nil,
		}
		if err != nil {
			outRes.Error = err.Error()
		}
		if outErr := emitJSON(outRes); outErr != nil {
			return errors.Join(err, outErr)
		}
		return err
	}
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	if human() && !dryRun {
		display.Success(outWriter, "%s may now run %s without a password", res.Username, opts.ScriptPath)
		if res.BinaryPath != "" {
			display.Success(outWriter, "Installed %s", res.BinaryPath)
		}
		if res.CompletionFile != "" {
			display.Success(outWriter, "Installed bash completion to %s", res.CompletionFile)
		}
	}
	return nil
}
