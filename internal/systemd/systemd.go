// Package systemd reloads and restarts units, either by shelling out to
// systemctl or over the systemd D-Bus API.
package systemd

import (
	"context"
	"fmt"

	"github.com/draeician/ollama-update/internal/sysexec"
)

// Manager abstracts the service manager operations ollama-update needs.
type Manager interface {
	// DaemonReload makes systemd re-read unit files from disk.
	DaemonReload(ctx context.Context) error

	// Restart restarts the named unit and waits for the job to finish.
	Restart(ctx context.Context, unit string) error

	// IsActive returns true if the named unit is currently running.
	IsActive(ctx context.Context, unit string) bool
}

// Backend names accepted by New.
const (
	BackendSystemctl = "systemctl"
	BackendDBus      = "dbus"
)

// New returns the Manager for backend. Unknown names are an error.
func New(backend string, runner sysexec.Runner) (Manager, error) {
	switch backend {
	case "", BackendSystemctl:
		return NewSystemctl(runner), nil
	case BackendDBus:
		return NewDBus(), nil
	default:
		return nil, fmt.Errorf("unknown service manager %q (want %s or %s)", backend, BackendSystemctl, BackendDBus)
	}
}

// Systemctl implements Manager by running systemctl through a privileged
// runner.
type Systemctl struct {
	runner sysexec.Runner
}

// NewSystemctl returns a Manager that runs systemctl via runner.
func NewSystemctl(runner sysexec.Runner) *Systemctl {
	return &Systemctl{runner: runner}
}

func (s *Systemctl) DaemonReload(ctx context.Context) error {
	return s.run(ctx, true, "daemon-reload")
}

func (s *Systemctl) Restart(ctx context.Context, unit string) error {
	return s.run(ctx, true, "restart", unit)
}

func (s *Systemctl) IsActive(ctx context.Context, unit string) bool {
	return s.run(ctx, false, "is-active", "--quiet", unit) == nil
}

func (s *Systemctl) run(ctx context.Context, privileged bool, args ...string) error {
	_, err := s.runner.Run(ctx, sysexec.Command{
		Name:       "systemctl",
		Args:       args,
		Privileged: privileged,
	})
	if err != nil {
		return fmt.Errorf("systemctl %s: %w", args[0], err)
	}
	return nil
}
