package sysexec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_CapturesOutput(t *testing.T) {
	requireShell(t)
	r := &ExecRunner{IsRoot: func() bool { return false }}

	out, err := r.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo $GREETING"},
		Env:  []string{"GREETING=hello"},
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if strings.TrimSpace(string(out)) != "hello" {
		t.Errorf("output = %q, want hello", out)
	}
}

func TestExecRunner_CommandError(t *testing.T) {
	requireShell(t)
	r := &ExecRunner{IsRoot: func() bool { return false }}

	_, err := r.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo boom >&2; exit 3"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error type = %T, want *CommandError", err)
	}
	if cmdErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", cmdErr.ExitCode)
	}
	if cmdErr.Output != "boom" {
		t.Errorf("Output = %q, want boom", cmdErr.Output)
	}
	if !strings.HasPrefix(err.Error(), "sh -c ") {
		t.Errorf("error = %q, want command line prefix", err.Error())
	}
}

func TestExecRunner_InteractiveStreams(t *testing.T) {
	requireShell(t)
	var stdout bytes.Buffer
	r := &ExecRunner{
		Stdin:  strings.NewReader("piped\n"),
		Stdout: &stdout,
		Stderr: &stdout,
		IsRoot: func() bool { return false },
	}

	out, err := r.Run(context.Background(), Command{
		Name:        "sh",
		Args:        []string{"-c", "read line; echo got $line"},
		Interactive: true,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if out != nil {
		t.Errorf("interactive output captured: %q", out)
	}
	if strings.TrimSpace(stdout.String()) != "got piped" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "got piped")
	}
}

func TestExecRunner_Resolve(t *testing.T) {
	cmd := Command{
		Name:       "/tmp/update_ollama.sh",
		Env:        []string{"OLLAMA_VERSION=0.4.0"},
		Privileged: true,
	}

	tests := []struct {
		name     string
		root     bool
		cmd      Command
		wantArgv []string
		wantEnv  []string
	}{
		{
			name:     "privileged as user uses sudo",
			root:     false,
			cmd:      cmd,
			wantArgv: []string{"sudo", "OLLAMA_VERSION=0.4.0", "/tmp/update_ollama.sh"},
		},
		{
			name:     "privileged as root runs directly",
			root:     true,
			cmd:      cmd,
			wantArgv: []string{"/tmp/update_ollama.sh"},
			wantEnv:  []string{"OLLAMA_VERSION=0.4.0"},
		},
		{
			name:     "unprivileged",
			root:     false,
			cmd:      Command{Name: "ollama", Args: []string{"--version"}},
			wantArgv: []string{"ollama", "--version"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &ExecRunner{IsRoot: func() bool { return tt.root }}
			argv, env := r.resolve(tt.cmd)
			if diff := cmp.Diff(tt.wantArgv, argv); diff != "" {
				t.Errorf("argv mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantEnv, env); diff != "" {
				t.Errorf("env mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDryRunner(t *testing.T) {
	var buf bytes.Buffer
	r := &DryRunner{Out: &buf, IsRoot: func() bool { return false }}

	_, err := r.Run(context.Background(), Command{
		Name:       "systemctl",
		Args:       []string{"restart", "ollama.service"},
		Privileged: true,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got := buf.String(); got != "would run: sudo systemctl restart ollama.service\n" {
		t.Errorf("output = %q", got)
	}
}

func TestFormatArgs_QuotesSpaces(t *testing.T) {
	got := FormatArgs([]string{"mv", "/tmp/a b", "/etc/x"})
	if got != "mv '/tmp/a b' /etc/x" {
		t.Errorf("FormatArgs = %q", got)
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{RunFunc: func(cmd Command) ([]byte, error) {
		if cmd.Name == "false" {
			return nil, errors.New("failed")
		}
		return []byte("ok"), nil
	}}

	if out, err := r.Run(context.Background(), Command{Name: "true"}); err != nil || string(out) != "ok" {
		t.Errorf("Run(true) = %q, %v", out, err)
	}
	if _, err := r.Run(context.Background(), Command{Name: "false"}); err == nil {
		t.Error("Run(false) expected error")
	}
	if diff := cmp.Diff([]string{"true", "false"}, r.Lines()); diff != "" {
		t.Errorf("Lines mismatch (-want +got):\n%s", diff)
	}
}

func TestSudoInstaller(t *testing.T) {
	rec := &Recorder{}
	inst := NewSudoInstaller(rec)

	if err := inst.InstallFile(context.Background(), "/tmp/ollama.service.123", "/etc/systemd/system/ollama.service", 0o644); err != nil {
		t.Fatalf("InstallFile error: %v", err)
	}

	want := []string{
		"sudo mv /tmp/ollama.service.123 /etc/systemd/system/ollama.service",
		"sudo chown root:root /etc/systemd/system/ollama.service",
		"sudo chmod 0644 /etc/systemd/system/ollama.service",
	}
	if diff := cmp.Diff(want, rec.Lines()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestSudoInstaller_StopsOnFailure(t *testing.T) {
	rec := &Recorder{RunFunc: func(cmd Command) ([]byte, error) {
		if cmd.Name == "cp" {
			return nil, &CommandError{Command: "sudo cp", ExitCode: 1, Err: errors.New("exit status 1")}
		}
		return nil, nil
	}}
	inst := &SudoInstaller{Runner: rec, Copy: true}

	err := inst.InstallFile(context.Background(), "a", "b", 0o755)
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error = %v, want *CommandError", err)
	}
	if len(rec.Commands) != 1 {
		t.Errorf("ran %d commands after failure, want 1", len(rec.Commands))
	}
}

func TestFormatArgs_Assignments(t *testing.T) {
	got := FormatArgs([]string{"sudo", "OLLAMA_VERSION=0.4.0-rc6", "/tmp/update_ollama.sh"})
	if got != "sudo OLLAMA_VERSION=0.4.0-rc6 /tmp/update_ollama.sh" {
		t.Errorf("FormatArgs = %q", got)
	}
}
