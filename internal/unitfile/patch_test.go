package unitfile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPatch(t *testing.T) {
	tests := []struct {
		name        string
		lines       []string
		directives  []string
		want        []string
		wantChanged bool
	}{
		{
			name:        "no install section appends after blank line",
			lines:       []string{"[Unit]\n", "A=1\n"},
			directives:  []string{"X=1", "Y=2"},
			want:        []string{"[Unit]\n", "A=1\n", "\n", "X=1\n", "Y=2\n"},
			wantChanged: true,
		},
		{
			name:        "substring match counts as present",
			lines:       []string{"[Service]\n", "X=1 extra\n"},
			directives:  []string{"X=1"},
			want:        []string{"[Service]\n", "X=1 extra\n"},
			wantChanged: false,
		},
		{
			name: "install preceded by non-blank line gets separator",
			lines: []string{
				"[Unit]\n",
				"Description=Ollama Service\n",
				"[Service]\n",
				"ExecStart=/usr/local/bin/ollama serve\n",
				"[Install]\n",
				"WantedBy=default.target\n",
			},
			directives: []string{"X=1", "Y=2"},
			want: []string{
				"[Unit]\n",
				"Description=Ollama Service\n",
				"[Service]\n",
				"ExecStart=/usr/local/bin/ollama serve\n",
				"\n",
				"X=1\n",
				"Y=2\n",
				"[Install]\n",
				"WantedBy=default.target\n",
			},
			wantChanged: true,
		},
		{
			name:        "install preceded by blank line",
			lines:       []string{"[Service]\n", "A=1\n", "\n", "[Install]\n"},
			directives:  []string{"X=1"},
			want:        []string{"[Service]\n", "A=1\n", "\n", "X=1\n", "[Install]\n"},
			wantChanged: true,
		},
		{
			name:        "indented install header",
			lines:       []string{"[Service]\n", "A=1\n", "  [Install]\n"},
			directives:  []string{"X=1"},
			want:        []string{"[Service]\n", "A=1\n", "\n", "X=1\n", "  [Install]\n"},
			wantChanged: true,
		},
		{
			name:        "install on first line",
			lines:       []string{"[Install]\n", "WantedBy=default.target\n"},
			directives:  []string{"X=1"},
			want:        []string{"X=1\n", "[Install]\n", "WantedBy=default.target\n"},
			wantChanged: true,
		},
		{
			name:        "blank-terminated file gets no extra blank line",
			lines:       []string{"[Service]\n", "A=1\n", "\n"},
			directives:  []string{"X=1"},
			want:        []string{"[Service]\n", "A=1\n", "\n", "X=1\n"},
			wantChanged: true,
		},
		{
			name:        "missing final newline is terminated",
			lines:       []string{"[Service]\n", "A=1"},
			directives:  []string{"X=1"},
			want:        []string{"[Service]\n", "A=1\n", "\n", "X=1\n"},
			wantChanged: true,
		},
		{
			name:        "empty file",
			lines:       nil,
			directives:  []string{"X=1", "Y=2"},
			want:        []string{"X=1\n", "Y=2\n"},
			wantChanged: true,
		},
		{
			name:        "only missing directives are inserted",
			lines:       []string{"[Service]\n", "Y=2\n"},
			directives:  []string{"X=1", "Y=2", "Z=3"},
			want:        []string{"[Service]\n", "Y=2\n", "\n", "X=1\n", "Z=3\n"},
			wantChanged: true,
		},
		{
			name:        "duplicate directive inserted once",
			lines:       []string{"[Service]\n"},
			directives:  []string{"X=1", "X=1"},
			want:        []string{"[Service]\n", "\n", "X=1\n"},
			wantChanged: true,
		},
		{
			name:        "quoted existing entry is not duplicated",
			lines:       []string{"[Service]\n", `Environment="OLLAMA_HOST=0.0.0.0:11434"` + "\n"},
			directives:  []string{"OLLAMA_HOST=0.0.0.0:11434"},
			want:        []string{"[Service]\n", `Environment="OLLAMA_HOST=0.0.0.0:11434"` + "\n"},
			wantChanged: false,
		},
		{
			name:        "no directives",
			lines:       []string{"[Service]\n", "A=1\n"},
			directives:  nil,
			want:        []string{"[Service]\n", "A=1\n"},
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := Patch(tt.lines, tt.directives)
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Patch() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPatch_Idempotent(t *testing.T) {
	inputs := [][]string{
		{"[Unit]\n", "A=1\n"},
		{"[Service]\n", "ExecStart=/usr/bin/ollama serve\n", "[Install]\n", "WantedBy=default.target\n"},
		{"[Service]\n", "A=1"},
		nil,
	}

	for _, input := range inputs {
		first, changed := Patch(input, DefaultDirectives)
		if !changed {
			t.Fatalf("first Patch(%q) reported no change", input)
		}
		second, changed := Patch(first, DefaultDirectives)
		if changed {
			t.Errorf("second Patch(%q) reported a change", input)
		}
		if string(JoinLines(second)) != string(JoinLines(first)) {
			t.Errorf("second Patch(%q) altered content:\n%s", input, cmp.Diff(first, second))
		}
	}
}

func TestPatch_DoesNotMutateInput(t *testing.T) {
	input := []string{"[Service]\n", "A=1", "[Install]\n"}
	snapshot := append([]string(nil), input...)

	_, _ = Patch(input, []string{"X=1"})
	_, _ = Patch(input[:2], []string{"X=1"})

	if diff := cmp.Diff(snapshot, input); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func TestPatch_DirectivesStayBeforeInstall(t *testing.T) {
	input := SplitLines([]byte(sampleUnit))
	got, changed := Patch(input, DefaultDirectives)
	if !changed {
		t.Fatal("expected change")
	}

	installIdx := -1
	for i, line := range got {
		if line == "[Install]\n" {
			installIdx = i
		}
	}
	if installIdx < 0 {
		t.Fatal("[Install] section lost")
	}
	for _, directive := range DefaultDirectives {
		idx := -1
		for i, line := range got {
			if line == directive+"\n" {
				idx = i
			}
		}
		if idx < 0 || idx > installIdx {
			t.Errorf("directive %q at %d, want before [Install] at %d", directive, idx, installIdx)
		}
		if section := SectionOf(got, directive); section != "Service" {
			t.Errorf("SectionOf(%q) = %q, want Service", directive, section)
		}
	}
	if got[installIdx-1] != DefaultDirectives[1]+"\n" {
		t.Errorf("line before [Install] = %q, want last directive", got[installIdx-1])
	}
	if got[installIdx-3] != "\n" {
		t.Errorf("expected one blank separator before directives, got %q", got[installIdx-3])
	}
}

func TestMissing(t *testing.T) {
	lines := []string{"[Service]\n", "Y=2 # set\n"}
	got := Missing(lines, []string{"X=1", "Y=2", "X=1", "Z=3"})
	want := []string{"X=1", "Z=3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Missing() mismatch (-want +got):\n%s", diff)
	}
}

const sampleUnit = `[Unit]
Description=Ollama Service
After=network-online.target

[Service]
ExecStart=/usr/local/bin/ollama serve
User=ollama
Group=ollama
Restart=always
RestartSec=3
Environment="PATH=/usr/local/bin:/usr/bin:/bin"
[Install]
WantedBy=default.target
`
