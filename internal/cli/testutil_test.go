package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/draeician/ollama-update/internal/config"
	"github.com/draeician/ollama-update/internal/installer"
	"github.com/draeician/ollama-update/internal/ollama"
	"github.com/draeician/ollama-update/internal/releases"
	"github.com/draeician/ollama-update/internal/setup"
	"github.com/draeician/ollama-update/internal/sysexec"
	"github.com/draeician/ollama-update/internal/systemd"
	"github.com/draeician/ollama-update/internal/testenv"
)

const unpatchedUnit = `[Unit]
Description=Ollama Service
After=network-online.target

[Service]
ExecStart=/usr/local/bin/ollama serve
User=ollama

[Install]
WantedBy=default.target
`

// isolate resets every package-level flag and collaborator for one test,
// points config at a temp dir, and captures output.
func isolate(t *testing.T) (*bytes.Buffer, config.Config) {
	t.Helper()
	dirs := testenv.Apply(t.Setenv, t.TempDir())

	saved := struct {
		json, noColor, verbose, quiet, dryRun bool
		setVersion                            string
		patchNoRestart                        bool
		versionsStable                        bool
		versionsLimit                         int
		setupUser                             string
		setupYes                              bool
		selfCheck, selfYes                    bool
		selfVersion, showFormat               string
	}{
		jsonOutput, noColor, verbose, quiet, dryRun, setVersion, patchNoRestart,
		versionsStable, versionsLimit, setupUser, setupYes,
		selfUpdateCheckOnly, selfUpdateYes, selfUpdateVersion, configShowFormat,
	}
	savedFactories := struct {
		runner      func(context.Context) sysexec.Runner
		installer   func(context.Context, config.Config, sysexec.Runner) installer.Service
		manager     func(config.Config, sysexec.Runner) (systemd.Manager, error)
		checker     func(context.Context) VersionChecker
		releases    func(config.Config) releases.Lister
		provisioner func(context.Context, sysexec.Runner) Provisioner
		executable  func() (string, error)
		stdinTTY    func() bool
		stdoutTTY   func() bool
	}{
		runnerFactory, installerFactory, managerFactory, checkerFactory,
		releasesFactory, provisionerFactory, executablePath, stdinIsTerminal, isTerminal,
	}
	savedUpdater, savedSupport := updaterFactory, selfUpdateSupportChecker

	jsonOutput, noColor, verbose, quiet, dryRun = false, true, false, false, false
	setVersion, patchNoRestart = "", false
	versionsStable, versionsLimit = false, 0
	setupUser, setupYes = "", false
	selfUpdateCheckOnly, selfUpdateYes, selfUpdateVersion = false, false, ""
	configShowFormat = "toml"
	stdinIsTerminal = func() bool { return false }
	isTerminal = func() bool { return false }

	var buf bytes.Buffer
	outWriter = &buf

	t.Cleanup(func() {
		jsonOutput, noColor, verbose, quiet, dryRun = saved.json, saved.noColor, saved.verbose, saved.quiet, saved.dryRun
		setVersion, patchNoRestart = saved.setVersion, saved.patchNoRestart
		versionsStable, versionsLimit = saved.versionsStable, saved.versionsLimit
		setupUser, setupYes = saved.setupUser, saved.setupYes
		selfUpdateCheckOnly, selfUpdateYes, selfUpdateVersion = saved.selfCheck, saved.selfYes, saved.selfVersion
		configShowFormat = saved.showFormat

		runnerFactory = savedFactories.runner
		installerFactory = savedFactories.installer
		managerFactory = savedFactories.manager
		checkerFactory = savedFactories.checker
		releasesFactory = savedFactories.releases
		provisionerFactory = savedFactories.provisioner
		executablePath = savedFactories.executable
		stdinIsTerminal = savedFactories.stdinTTY
		isTerminal = savedFactories.stdoutTTY
		updaterFactory, selfUpdateSupportChecker = savedUpdater, savedSupport

		outWriter = os.Stdout
	})

	cfg := config.DefaultConfig()
	cfg.WorkDir = filepath.Join(dirs.Cache, "work")
	cfg.Service.UnitFile = filepath.Join(dirs.Base, "ollama.service")
	cfg.Installer.ScriptPath = filepath.Join(dirs.Cache, "update_ollama.sh")
	config.Override(t, cfg)
	return &buf, cfg
}

func writeUnit(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing unit: %v", err)
	}
}

// useRecorder routes privileged commands to rec.
func useRecorder(rec *sysexec.Recorder) {
	runnerFactory = func(context.Context) sysexec.Runner { return rec }
}

type fakeInstaller struct {
	err      error
	versions []string
}

func (f *fakeInstaller) Install(ctx context.Context, version string) error {
	f.versions = append(f.versions, version)
	return f.err
}

func useInstaller(f *fakeInstaller) {
	installerFactory = func(context.Context, config.Config, sysexec.Runner) installer.Service { return f }
}

type fakeManager struct {
	reloadErr  error
	restartErr error
	inactive   bool
	calls      []string
}

func (f *fakeManager) DaemonReload(ctx context.Context) error {
	f.calls = append(f.calls, "daemon-reload")
	return f.reloadErr
}

func (f *fakeManager) Restart(ctx context.Context, unit string) error {
	f.calls = append(f.calls, "restart "+unit)
	return f.restartErr
}

func (f *fakeManager) IsActive(ctx context.Context, unit string) bool {
	f.calls = append(f.calls, "is-active "+unit)
	return !f.inactive
}

func useManager(f *fakeManager) {
	managerFactory = func(config.Config, sysexec.Runner) (systemd.Manager, error) { return f, nil }
}

type fakeChecker struct {
	report ollama.Report
	hosts  []string
}

func (f *fakeChecker) Check(ctx context.Context, host string) ollama.Report {
	f.hosts = append(f.hosts, host)
	r := f.report
	r.Host = host
	return r
}

func useChecker(f *fakeChecker) {
	checkerFactory = func(context.Context) VersionChecker { return f }
}

type fakeLister struct {
	releases []releases.Release
	err      error
	opts     []releases.ListOptions
}

func (f *fakeLister) List(ctx context.Context, opts releases.ListOptions) ([]releases.Release, error) {
	f.opts = append(f.opts, opts)
	return f.releases, f.err
}

func useLister(f *fakeLister) {
	releasesFactory = func(config.Config) releases.Lister { return f }
}

type fakeProvisioner struct {
	result setup.Result
	err    error
	opts   []setup.Options
}

func (f *fakeProvisioner) Run(ctx context.Context, opts setup.Options) (setup.Result, error) {
	f.opts = append(f.opts, opts)
	return f.result, f.err
}

func useProvisioner(f *fakeProvisioner) {
	provisionerFactory = func(context.Context, sysexec.Runner) Provisioner { return f }
}
