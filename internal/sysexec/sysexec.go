// Package sysexec runs the external commands ollama-update delegates to:
// the installer script, sudo, systemctl, and the ollama client itself.
package sysexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/syntax"
)

// Command describes one external program invocation.
type Command struct {
	Name string
	Args []string
	// Env holds KEY=VALUE pairs added to the environment. For privileged
	// commands run through sudo they are passed as sudo arguments so they
	// survive sudo's environment reset.
	Env []string
	// Privileged commands are prefixed with sudo unless already running as root.
	Privileged bool
	// Interactive commands inherit the runner's stdin/stdout/stderr instead
	// of having their output captured.
	Interactive bool
}

// Runner executes commands. Run returns the combined output of
// non-interactive commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// CommandError reports a delegated command that could not be started or
// exited non-zero.
type CommandError struct {
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Output)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *log.Logger

	// IsRoot reports whether sudo can be skipped. Defaults to an euid check.
	IsRoot func() bool
}

// NewExecRunner returns a runner attached to the process's standard streams.
func NewExecRunner(logger *log.Logger) *ExecRunner {
	return &ExecRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
		IsRoot: IsRoot,
	}
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) ([]byte, error) {
	argv, env := r.resolve(cmd)
	line := FormatArgs(argv)
	if r.Logger != nil {
		r.Logger.Debug("running command", "cmd", line)
	}

	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if len(env) > 0 {
		c.Env = append(os.Environ(), env...)
	}

	var output []byte
	var err error
	if cmd.Interactive {
		c.Stdin = r.Stdin
		c.Stdout = r.Stdout
		c.Stderr = r.Stderr
		err = c.Run()
	} else {
		output, err = c.CombinedOutput()
	}
	if err != nil {
		cmdErr := &CommandError{
			Command:  line,
			ExitCode: -1,
			Output:   strings.TrimSpace(string(output)),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return output, cmdErr
	}
	return output, nil
}

// resolve returns the argv to execute and any extra environment.
func (r *ExecRunner) resolve(cmd Command) ([]string, []string) {
	isRoot := r.IsRoot
	if isRoot == nil {
		isRoot = IsRoot
	}
	if cmd.Privileged && !isRoot() {
		argv := make([]string, 0, len(cmd.Env)+len(cmd.Args)+2)
		argv = append(argv, "sudo")
		argv = append(argv, cmd.Env...)
		argv = append(argv, cmd.Name)
		argv = append(argv, cmd.Args...)
		return argv, nil
	}
	argv := append([]string{cmd.Name}, cmd.Args...)
	return argv, cmd.Env
}

// DryRunner prints the commands it would run instead of running them.
type DryRunner struct {
	Out    io.Writer
	IsRoot func() bool
}

func (r *DryRunner) Run(_ context.Context, cmd Command) ([]byte, error) {
	argv, env := (&ExecRunner{IsRoot: r.IsRoot}).resolve(cmd)
	_, _ = fmt.Fprintf(r.Out, "would run: %s\n", FormatArgs(withEnv(env, argv)))
	return nil, nil
}

// Format renders cmd as a shell command line, with sudo and environment
// assignments shown the way ExecRunner would apply them.
func Format(cmd Command) string {
	argv, env := (&ExecRunner{IsRoot: func() bool { return !cmd.Privileged }}).resolve(cmd)
	return FormatArgs(withEnv(env, argv))
}

func withEnv(env, argv []string) []string {
	out := make([]string, 0, len(env)+len(argv))
	out = append(out, env...)
	return append(out, argv...)
}

// FormatArgs quotes each argument for bash and joins them with spaces.
// NAME=value arguments keep the assignment form and only quote the value.
func FormatArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		if name, value, ok := strings.Cut(arg, "="); ok && syntax.ValidName(name) {
			quoted[i] = name + "=" + quote(value)
			continue
		}
		quoted[i] = quote(arg)
	}
	return strings.Join(quoted, " ")
}

func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return fmt.Sprintf("%q", s)
	}
	return q
}
