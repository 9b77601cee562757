// Package setup provisions a host for password-less ollama updates: a
// sudoers drop-in for the installer script, a system-wide copy of the
// binary, and bash completion.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/draeician/ollama-update/internal/sysexec"
)

// Options describes what to provision. Every path is explicit so nothing
// depends on the process environment.
type Options struct {
	Username string
	// ScriptPath is the installer script the user may run through sudo
	// without a password.
	ScriptPath  string
	SudoersFile string
	// BinarySource is the executable copied to InstallDir; empty skips the copy.
	BinarySource string
	InstallDir   string
	BinaryName   string
	// Completion writes a bash completion script; nil skips completion.
	Completion     func(w io.Writer) error
	CompletionFile string
	// WorkDir holds the staged files before they are moved into place.
	WorkDir string
}

// Result lists what was installed. Fields are filled as steps succeed, so a
// partial Result accompanies an error.
type Result struct {
	Username       string `json:"username"`
	SudoersFile    string `json:"sudoers_file,omitempty"`
	BinaryPath     string `json:"binary_path,omitempty"`
	CompletionFile string `json:"completion_file,omitempty"`
}

// Provisioner runs the provisioning steps through a privileged runner.
type Provisioner struct {
	Runner sysexec.Runner
	Logger *log.Logger
}

// SudoersLine returns the drop-in granting user password-less sudo for the
// installer script. SETENV lets the installer version variable survive sudo.
func SudoersLine(username, scriptPath string) string {
	return fmt.Sprintf("%s ALL=(ALL) NOPASSWD:SETENV: %s\n", username, scriptPath)
}

// Run performs every step in order and stops at the first failure. Staged
// files are removed on every path.
func (p *Provisioner) Run(ctx context.Context, opts Options) (Result, error) {
	res := Result{Username: opts.Username}
	if err := validate(opts); err != nil {
		return res, err
	}
	logger := p.logger()

	if err := p.installSudoers(ctx, opts); err != nil {
		return res, err
	}
	res.SudoersFile = opts.SudoersFile
	logger.Info("sudoers drop-in installed", "file", opts.SudoersFile, "user", opts.Username)

	if opts.BinarySource != "" {
		dst, err := p.installBinary(ctx, opts)
		if err != nil {
			return res, err
		}
		res.BinaryPath = dst
		logger.Info("binary installed", "path", dst)
	}

	if opts.Completion != nil && opts.CompletionFile != "" {
		if err := p.installCompletion(ctx, opts); err != nil {
			return res, err
		}
		res.CompletionFile = opts.CompletionFile
		logger.Info("bash completion installed", "file", opts.CompletionFile)
	}

	return res, nil
}

func (p *Provisioner) installSudoers(ctx context.Context, opts Options) error {
	staged, err := stage(opts.WorkDir, "sudoers", func(w io.Writer) error {
		_, err := io.WriteString(w, SudoersLine(opts.Username, opts.ScriptPath))
		return err
	})
	if err != nil {
		return fmt.Errorf("staging sudoers file: %w", err)
	}
	defer func() { _ = os.Remove(staged) }()

	if _, err := p.Runner.Run(ctx, sysexec.Command{
		Name:       "visudo",
		Args:       []string{"-c", "-q", "-f", staged},
		Privileged: true,
	}); err != nil {
		return fmt.Errorf("checking sudoers file: %w", err)
	}

	inst := sysexec.NewSudoInstaller(p.Runner)
	if err := inst.InstallFile(ctx, staged, opts.SudoersFile, 0o440); err != nil {
		return fmt.Errorf("installing sudoers file: %w", err)
	}
	return nil
}

func (p *Provisioner) installBinary(ctx context.Context, opts Options) (string, error) {
	name := opts.BinaryName
	if name == "" {
		name = filepath.Base(opts.BinarySource)
	}
	dst := filepath.Join(opts.InstallDir, name)
	if sameFile(opts.BinarySource, dst) {
		p.logger().Debug("binary already installed in place", "path", dst)
		return dst, nil
	}

	inst := &sysexec.SudoInstaller{Runner: p.Runner, Owner: "root:root", Copy: true}
	if err := inst.InstallFile(ctx, opts.BinarySource, dst, 0o755); err != nil {
		return "", fmt.Errorf("installing binary: %w", err)
	}
	return dst, nil
}

func (p *Provisioner) installCompletion(ctx context.Context, opts Options) error {
	staged, err := stage(opts.WorkDir, "completion", opts.Completion)
	if err != nil {
		return fmt.Errorf("generating bash completion: %w", err)
	}
	defer func() { _ = os.Remove(staged) }()

	inst := sysexec.NewSudoInstaller(p.Runner)
	if err := inst.InstallFile(ctx, staged, opts.CompletionFile, 0o644); err != nil {
		return fmt.Errorf("installing bash completion: %w", err)
	}
	return nil
}

func (p *Provisioner) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.New(io.Discard)
}

func validate(opts Options) error {
	if opts.Username == "" {
		return errors.New("no username to provision")
	}
	if strings.ContainsAny(opts.Username, " \t\n,:=\\") {
		return fmt.Errorf("invalid username %q", opts.Username)
	}
	if !filepath.IsAbs(opts.ScriptPath) {
		return fmt.Errorf("installer script path %q must be absolute for sudoers", opts.ScriptPath)
	}
	if opts.SudoersFile == "" {
		return errors.New("no sudoers file configured")
	}
	if opts.BinarySource != "" && opts.InstallDir == "" {
		return errors.New("no install directory configured")
	}
	return nil
}

// stage writes a temp file in dir (mode 0644) and returns its path.
func stage(dir, pattern string, write func(io.Writer) error) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, "ollama-update-"+pattern+".*")
	if err != nil {
		return "", err
	}
	path := f.Name()
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	if err := os.Chmod(path, 0o644); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// ErrUnderSudo is returned by CurrentUsername when setup was started through
// sudo. Paths such as the installer script would then resolve against root's
// home instead of the user the sudoers rule is written for.
var ErrUnderSudo = errors.New("setup must run as the user who will update ollama, not through sudo (it asks for sudo itself); pass --user to override")

// CurrentUsername returns the user running the tool.
func CurrentUsername() (string, error) {
	if u := os.Getenv("SUDO_USER"); u != "" && u != "root" {
		return "", ErrUnderSudo
	}
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("looking up current user: %w", err)
	}
	return u.Username, nil
}
