package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/mod/semver"

	"github.com/draeician/ollama-update/internal/config"
	"github.com/draeician/ollama-update/internal/display"
	"github.com/draeician/ollama-update/internal/httpclient"
	"github.com/draeician/ollama-update/internal/installer"
	"github.com/draeician/ollama-update/internal/logging"
	"github.com/draeician/ollama-update/internal/releases"
	"github.com/draeician/ollama-update/internal/sysexec"
	"github.com/draeician/ollama-update/internal/systemd"
)

// runnerFactory returns the runner for commands that change the system.
// Under --dry-run it only prints them.
var runnerFactory = func(ctx context.Context) sysexec.Runner {
	if dryRun {
		return &sysexec.DryRunner{Out: outWriter}
	}
	r := sysexec.NewExecRunner(logging.FromContext(ctx))
	if jsonOutput {
		// Keep the installer's progress off the JSON stream.
		r.Stdout = os.Stderr
	}
	return r
}

var installerFactory = func(ctx context.Context, cfg config.Config, runner sysexec.Runner) installer.Service {
	return &installer.Installer{
		URL:        cfg.Installer.URL,
		ScriptPath: cfg.Installer.ScriptPath,
		VersionEnv: cfg.Installer.VersionEnv,
		HTTP:       httpclient.NewFromConfig(cfg.Installer.Timeout),
		Runner:     runner,
		Logger:     logging.FromContext(ctx),
		DryRun:     dryRun,
	}
}

var managerFactory = func(cfg config.Config, runner sysexec.Runner) (systemd.Manager, error) {
	if dryRun {
		// The D-Bus backend cannot print what it would do.
		return systemd.NewSystemctl(runner), nil
	}
	return systemd.New(cfg.Service.Manager, runner)
}

// normalizeVersion strips a leading v and checks the rest is a version the
// installer understands, such as 0.4.0 or 0.4.0-rc6.
func normalizeVersion(v string) (string, error) {
	v = releases.StripV(v)
	if v == "" {
		return "", nil
	}
	if !semver.IsValid("v" + v) {
		return "", fmt.Errorf("invalid version %q: expected something like 0.4.0 or 0.4.0-rc6", v)
	}
	return v, nil
}

// runUpdateOllama installs ollama and then patches the unit. Each step runs
// even when an earlier one failed, except that a failed patch skips the
// restart; the returned error joins every step failure.
func runUpdateOllama(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	cfg := config.Get()

	target, err := normalizeVersion(setVersion)
	if err != nil {
		return err
	}

	runner := runnerFactory(ctx)
	result := display.RunResultJSON{Version: target, DryRun: dryRun}
	var errs []error

	start := time.Now()
	installErr := installOllama(ctx, cfg, runner, target)
	result.Install = display.StepFromError(installErr)
	if installErr != nil {
		logger.Error("installer failed", "err", installErr)
		errs = append(errs, installErr)
	}
	logger.Debug("installer step finished", "duration_ms", time.Since(start).Milliseconds())

	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		check := checkVersions(ctx, host)
		result.VersionCheck = &check
	}

	patch, patchErr := patchUnit(ctx, cfg, runner)
	result.Patch = patch
	if patchErr != nil {
		logger.Error("patching unit file failed", "path", cfg.Service.UnitFile, "err", patchErr)
		errs = append(errs, patchErr)
		result.Restart = display.StepJSON{Skipped: "unit file not patched"}
	} else {
		result.Restart = restartService(ctx, cfg, runner, patch.Changed)
		if result.Restart.Error != "" {
			errs = append(errs, errors.New(result.Restart.Error))
		}
	}

	result.Success = len(errs) == 0
	if jsonOutput {
		if err := emitJSON(result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func installOllama(ctx context.Context, cfg config.Config, runner sysexec.Runner, target string) error {
	label := "latest Ollama"
	if target != "" {
		label = "Ollama " + target
	}
	if human() {
		if dryRun {
			out("would download %s to %s\n", cfg.Installer.URL, cfg.Installer.ScriptPath)
		} else {
			display.Step(outWriter, "Installing %s", label)
		}
	}

	if err := installerFactory(ctx, cfg, runner).Install(ctx, target); err != nil {
		if human() {
			display.Failure(outWriter, "Installing %s failed", label)
		}
		return err
	}
	if human() && !dryRun {
		display.Success(outWriter, "Installed %s", label)
	}
	return nil
}

// restartService reloads systemd and restarts the unit when it changed.
func restartService(ctx context.Context, cfg config.Config, runner sysexec.Runner, changed bool) display.StepJSON {
	logger := logging.FromContext(ctx)
	if !changed {
		return display.StepJSON{Skipped: "unit file unchanged"}
	}

	manager, err := managerFactory(cfg, runner)
	if err == nil {
		err = manager.DaemonReload(ctx)
	}
	if err == nil {
		err = manager.Restart(ctx, cfg.Service.Name)
	}
	if err != nil {
		logger.Error("restarting service failed", "unit", cfg.Service.Name, "err", err)
		if human() {
			display.Failure(outWriter, "Restarting %s failed", cfg.Service.Name)
		}
		return display.StepFromError(err)
	}

	step := display.StepFromError(nil)
	if dryRun {
		return step
	}
	if human() {
		display.Success(outWriter, "Reloaded systemd and restarted %s", cfg.Service.Name)
	}
	if !manager.IsActive(ctx, cfg.Service.Name) {
		step.Warning = cfg.Service.Name + " is not active after restart"
		logger.Warn("service not active after restart", "unit", cfg.Service.Name)
		if human() {
			display.Warning(outWriter, "%s is not active; check journalctl -u %s", cfg.Service.Name, cfg.Service.Name)
		}
	}
	return step
}
