package display

import (
	"bytes"
	"strings"
	"testing"
)

func TestStatusLines(t *testing.T) {
	var buf bytes.Buffer
	Success(&buf, "unit file %s updated", "ollama.service")
	Failure(&buf, "installer failed")
	Warning(&buf, "OLLAMA_HOST is set")
	Step(&buf, "reloading systemd")

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	want := []struct{ symbol, text string }{
		{"✓", "unit file ollama.service updated"},
		{"✗", "installer failed"},
		{"!", "OLLAMA_HOST is set"},
		{"→", "reloading systemd"},
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), buf.String())
	}
	for i, w := range want {
		if !strings.Contains(lines[i], w.symbol) || !strings.HasSuffix(lines[i], w.text) {
			t.Errorf("line %d = %q, want %s ... %s", i, lines[i], w.symbol, w.text)
		}
	}
}

func TestInserted(t *testing.T) {
	out := Inserted([]InsertedDirectiveJSON{
		{Directive: "EnvironmentFile=/etc/default/ollama", Section: "Service"},
		{Directive: "ExecStartPre=/bin/true"},
	})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), out)
	}
	if !strings.Contains(lines[0], "+ EnvironmentFile=/etc/default/ollama") || !strings.Contains(lines[0], "[Service]") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if strings.Contains(lines[1], "[") {
		t.Errorf("line 1 should have no section: %q", lines[1])
	}
}

func TestNewTableWithOptions(t *testing.T) {
	out := NewTableWithOptions(
		[]string{"Version", "Type"},
		[][]string{{"0.5.8-rc1", "prerelease"}, {"0.5.7", "stable"}},
		TableOptions{
			Title:     "Available Ollama versions",
			NoColor:   true,
			Highlight: func(row []string) bool { return row[1] == "prerelease" },
		},
	)
	if !strings.HasPrefix(out, "Available Ollama versions\n") {
		t.Errorf("missing title: %q", out)
	}
	for _, want := range []string{"Version", "0.5.8-rc1", "0.5.7", "stable"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
