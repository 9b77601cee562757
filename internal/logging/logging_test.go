package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLogger_DefaultsToWarn(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at default level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestConfigure_Levels(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
		want  log.Level
	}{
		{name: "default", flags: Flags{}, want: log.WarnLevel},
		{name: "verbose", flags: Flags{Verbose: true}, want: log.DebugLevel},
		{name: "quiet", flags: Flags{Quiet: true}, want: log.ErrorLevel},
		{name: "quiet wins over verbose", flags: Flags{Quiet: true, Verbose: true}, want: log.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLogger(&bytes.Buffer{})
			Configure(l, tt.flags)
			if got := l.GetLevel(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigure_JSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	Configure(l, Flags{JSON: true})

	l.Warn("unit file missing", "path", "/etc/systemd/system/ollama.service")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "unit file missing" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["path"] != "/etc/systemd/system/ollama.service" {
		t.Errorf("path = %v", entry["path"])
	}
}
