package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/draeician/ollama-update/internal/config"
	"github.com/draeician/ollama-update/internal/display"
	"github.com/draeician/ollama-update/internal/logging"
	"github.com/draeician/ollama-update/internal/service"
	"github.com/draeician/ollama-update/internal/sysexec"
)

var patchNoRestart bool

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Add the managed directives to the ollama unit file",
	Long: `Inserts every configured directive that is missing from the unit file,
ahead of its [Install] section, then reloads systemd and restarts the service
if anything was added.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPatch(cmd.Context())
	},
}

func init() {
	patchCmd.Flags().BoolVar(&patchNoRestart, "no-restart", false, "Do not reload systemd or restart the service")
}

func runPatch(ctx context.Context) error {
	cfg := config.Get()
	runner := runnerFactory(ctx)

	patch, err := patchUnit(ctx, cfg, runner)
	result := display.RunResultJSON{DryRun: dryRun, Patch: patch}
	result.Install.Skipped = "patch only"

	switch {
	case err != nil:
		result.Restart.Skipped = "unit file not patched"
	case patchNoRestart:
		result.Restart.Skipped = "--no-restart"
	default:
		result.Restart = restartService(ctx, cfg, runner, patch.Changed)
		if result.Restart.Error != "" {
			err = errors.New(result.Restart.Error)
		}
	}

	result.Success = err == nil
	if jsonOutput {
		if outErr := emitJSON(result); outErr != nil {
			return errors.Join(err, outErr)
		}
	}
	return err
}

// patchUnit applies the configured directives to the unit file. Under
// --dry-run the file is only read.
func patchUnit(ctx context.Context, cfg config.Config, runner sysexec.Runner) (display.PatchResultJSON, error) {
	p := &service.Patcher{
		WorkDir:   cfg.WorkDir,
		Installer: sysexec.NewSudoInstaller(runner),
		Validate:  cfg.Service.Validate,
		DryRun:    dryRun,
		Logger:    logging.FromContext(ctx),
	}

	res, err := p.Apply(ctx, cfg.Service.UnitFile, cfg.Service.Directives)
	patch := display.PatchResultJSON{
		UnitFile: cfg.Service.UnitFile,
		Changed:  res.Changed,
		DryRun:   dryRun,
		Inserted: make([]display.InsertedDirectiveJSON, 0, len(res.Inserted)),
	}
	for _, directive := range res.Inserted {
		patch.Inserted = append(patch.Inserted, display.InsertedDirectiveJSON{
			Directive: directive,
			Section:   res.Sections[directive],
		})
	}
	if err != nil {
		patch.Error = err.Error()
		if human() {
			var readErr *service.ReadError
			if errors.As(err, &readErr) {
				display.Failure(outWriter, "Could not read %s", cfg.Service.UnitFile)
			} else {
				display.Failure(outWriter, "Could not update %s", cfg.Service.UnitFile)
			}
		}
		return patch, err
	}

	if human() {
		switch {
		case !res.Changed:
			display.Success(outWriter, "%s already has the required directives", cfg.Service.UnitFile)
		case dryRun:
			out("would insert into %s:\n", cfg.Service.UnitFile)
			out("%s", display.Inserted(patch.Inserted))
		default:
			display.Success(outWriter, "Updated %s", cfg.Service.UnitFile)
			if verbose {
				out("%s", display.Inserted(patch.Inserted))
			}
		}
	}
	return patch, nil
}
