package unitfile

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/coreos/go-systemd/v22/unit"
)

// SplitLines splits data into lines that keep their "\n" terminator. The last
// line has no terminator when data does not end with a newline.
func SplitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// JoinLines concatenates lines produced by SplitLines or Patch.
func JoinLines(lines []string) []byte {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
	}
	return buf.Bytes()
}

// Validate parses data as a systemd unit and reports the first syntax error.
func Validate(data []byte) error {
	if _, err := unit.DeserializeOptions(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("invalid unit file: %w", err)
	}
	return nil
}

// SectionOf returns the name of the section containing the first line that
// contains directive, or "" if no line does or the line precedes any header.
func SectionOf(lines []string, directive string) string {
	section := ""
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section = strings.TrimSuffix(strings.TrimPrefix(trimmed, "["), "]")
			continue
		}
		if strings.Contains(line, directive) {
			return section
		}
	}
	return ""
}
