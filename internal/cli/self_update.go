package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/draeician/ollama-update/internal/config"
	"github.com/draeician/ollama-update/internal/display"
	"github.com/draeician/ollama-update/internal/logging"
	"github.com/draeician/ollama-update/internal/prompt"
	"github.com/draeician/ollama-update/internal/sysexec"
	"github.com/draeician/ollama-update/internal/updater"
)

var (
	selfUpdateCheckOnly bool
	selfUpdateYes       bool
	selfUpdateVersion   string
)

var updaterFactory = func(ctx context.Context, cfg config.Config) updater.Service {
	c := updater.NewClient(cfg.Releases.APIBaseURL, cfg.SelfUpdate.Owner, cfg.SelfUpdate.Repo)
	c.Elevated = sysexec.NewSudoInstaller(runnerFactory(ctx))
	c.WorkDir = cfg.WorkDir
	c.Logger = logging.FromContext(ctx)
	return c
}

// selfUpdateSupportChecker refuses to overwrite binaries another tool manages.
var selfUpdateSupportChecker = func() error {
	exe, err := executablePath()
	if err != nil {
		return fmt.Errorf("locating running binary: %w", err)
	}
	return updater.AssertSelfUpdateSupported(exe)
}

var selfUpdateCmd = &cobra.Command{
	Use:   "self-update",
	Short: "Update ollama-update itself to the newest release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSelfUpdate(cmd.Context())
	},
}

func init() {
	selfUpdateCmd.Flags().BoolVar(&selfUpdateCheckOnly, "check", false, "Check for updates without installing")
	selfUpdateCmd.Flags().BoolVarP(&selfUpdateYes, "yes", "y", false, "Install update without interactive confirmation")
	selfUpdateCmd.Flags().StringVar(&selfUpdateVersion, "version", "", "Install a specific version (for example: v1.2.3)")
}

func runSelfUpdate(ctx context.Context) error {
	if !selfUpdateCheckOnly {
		if err := selfUpdateSupportChecker(); err != nil {
			return err
		}
	}

	cfg := config.Get()
	service := updaterFactory(ctx, cfg)

	var check updater.CheckResult
	doCheck := func() error {
		var err error
		check, err = service.Check(ctx, updater.CheckRequest{
			CurrentVersion: version,
			TargetVersion:  selfUpdateVersion,
		})
		return err
	}
	var err error
	if display.SpinnerShouldShow(quiet, jsonOutput, !isTerminal()) {
		err = display.SpinnerDo("Checking for ollama-update releases", doCheck)
	} else {
		err = doCheck()
	}
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	if selfUpdateCheckOnly || !check.UpdateAvailable {
		return outputUpdateCheck(check)
	}

	if dryRun {
		out("would replace ollama-update %s with %s (%s)\n", check.CurrentVersion, check.TargetVersion, check.AssetName)
		return nil
	}

	if jsonOutput && !selfUpdateYes {
		return errors.New("--json self-update requires --yes to avoid interactive prompts")
	}

	if !selfUpdateYes {
		confirmed, err := confirmUpdate(check)
		if err != nil {
			return err
		}
		if !confirmed {
			outln("Update canceled")
			return nil
		}
	}

	apply, err := service.Apply(ctx, updater.ApplyRequest{
		Check:          check,
		AllowDowngrade: selfUpdateVersion != "",
	})
	if err != nil {
		return fmt.Errorf("failed to apply update: %w", err)
	}

	if jsonOutput {
		res := updateStatus(check)
		res.Updated = apply.Updated
		res.Identical = apply.Identical
		res.Elevated = apply.Elevated
		res.BinaryPath = apply.BinaryPath
		return emitJSON(res)
	}

	if apply.Identical {
		display.Success(outWriter, "%s already matches %s; nothing to copy", apply.BinaryPath, check.TargetVersion)
		return nil
	}
	display.Success(outWriter, "Updated ollama-update %s → %s", check.CurrentVersion, check.TargetVersion)
	return nil
}

func updateStatus(check updater.CheckResult) display.UpdateStatusJSON {
	return display.UpdateStatusJSON{
		CurrentVersion:  check.CurrentVersion,
		LatestVersion:   check.LatestVersion,
		TargetVersion:   check.TargetVersion,
		UpdateAvailable: check.UpdateAvailable,
		IsDowngrade:     check.IsDowngrade,
		Asset:           check.AssetName,
		ReleaseURL:      check.ReleaseURL,
	}
}

func outputUpdateCheck(check updater.CheckResult) error {
	if jsonOutput {
		return emitJSON(updateStatus(check))
	}

	if check.UpdateAvailable {
		if check.IsDowngrade {
			out("Version change available (downgrade): %s → %s\n", check.CurrentVersion, check.TargetVersion)
		} else {
			out("Update available: %s → %s\n", check.CurrentVersion, check.TargetVersion)
		}
		out("Run `ollama-update self-update --yes` to install.\n")
		return nil
	}

	out("ollama-update is up to date (%s)\n", check.CurrentVersion)
	return nil
}

func confirmUpdate(check updater.CheckResult) (bool, error) {
	if !stdinIsTerminal() {
		return false, errors.New("interactive confirmation required; rerun with --yes")
	}

	title := fmt.Sprintf("Install update %s → %s?", check.CurrentVersion, check.TargetVersion)
	if check.IsDowngrade {
		title = fmt.Sprintf("Install downgrade %s → %s?", check.CurrentVersion, check.TargetVersion)
	}

	return prompt.Default.Confirm(prompt.ConfirmConfig{
		Title:       title,
		Description: "The binary will be replaced in place.",
		Affirmative: "Install",
		Negative:    "Cancel",
	})
}
