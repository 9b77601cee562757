// Package unitfile patches systemd unit files as plain line sequences.
package unitfile

import "strings"

const installSection = "[Install]"

// DefaultDirectives are the lines ollama.service must carry so operators can
// configure the server through /etc/default/ollama.
var DefaultDirectives = []string{
	"EnvironmentFile=/etc/default/ollama",
	`ExecStartPre=/bin/bash -c 'if [ -f /etc/default/ollama ]; then echo "Loaded environment file: /etc/default/ollama"; fi'`,
}

// Patch returns lines with every directive that is not already present
// inserted before the [Install] section, or at the end of the file when there
// is none. A directive counts as present when it appears as a substring of
// any line. Lines carry their trailing newline. The input slice is never
// modified, and when nothing is inserted the returned slice is lines itself
// with changed=false.
func Patch(lines []string, directives []string) ([]string, bool) {
	out := make([]string, len(lines), len(lines)+len(directives)+2)
	copy(out, lines)

	insertPos := -1
	for i, line := range out {
		if strings.HasPrefix(strings.TrimSpace(line), installSection) {
			insertPos = i
			break
		}
	}

	if insertPos >= 0 {
		if insertPos > 0 && !isBlank(out[insertPos-1]) {
			out = insertLine(out, insertPos, "\n")
			insertPos++
		}
	} else {
		if n := len(out); n > 0 && !isBlank(out[n-1]) {
			if !strings.HasSuffix(out[n-1], "\n") {
				out[n-1] += "\n"
			}
			out = append(out, "\n")
		}
		insertPos = len(out)
	}

	changed := false
	for _, directive := range directives {
		if contains(out, directive) {
			continue
		}
		out = insertLine(out, insertPos, directive+"\n")
		insertPos++
		changed = true
	}

	if !changed {
		return lines, false
	}
	return out, true
}

// Missing returns the directives Patch would insert into lines, in order.
func Missing(lines []string, directives []string) []string {
	var missing []string
	seen := make([]string, len(lines))
	copy(seen, lines)
	for _, directive := range directives {
		if contains(seen, directive) {
			continue
		}
		missing = append(missing, directive)
		seen = append(seen, directive)
	}
	return missing
}

func contains(lines []string, directive string) bool {
	for _, line := range lines {
		if strings.Contains(line, directive) {
			return true
		}
	}
	return false
}

func insertLine(lines []string, pos int, line string) []string {
	lines = append(lines, "")
	copy(lines[pos+1:], lines[pos:])
	lines[pos] = line
	return lines
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
