package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Success prints a green check line.
func Success(w io.Writer, format string, args ...any) {
	statusLine(w, greenStyle.Render("✓"), format, args...)
}

// Failure prints a red cross line.
func Failure(w io.Writer, format string, args ...any) {
	statusLine(w, redStyle.Render("✗"), format, args...)
}

// Warning prints a yellow exclamation line.
func Warning(w io.Writer, format string, args ...any) {
	statusLine(w, yellowStyle.Render("!"), format, args...)
}

// Step prints a neutral progress line.
func Step(w io.Writer, format string, args ...any) {
	statusLine(w, dimStyle.Render("→"), format, args...)
}

// Title prints a bold heading.
func Title(w io.Writer, text string) {
	_, _ = fmt.Fprintln(w, titleStyle.Render(text))
}

// Hint prints a dimmed trailing note.
func Hint(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf(format, args...)))
}

func statusLine(w io.Writer, symbol, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "%s %s\n", symbol, fmt.Sprintf(format, args...))
}

// Inserted renders the directives added to a unit, one per line, with the
// section each one landed in.
func Inserted(directives []InsertedDirectiveJSON) string {
	var b strings.Builder
	for _, d := range directives {
		b.WriteString("  ")
		b.WriteString(greenStyle.Render("+ " + d.Directive))
		if d.Section != "" {
			b.WriteString(" ")
			b.WriteString(dimStyle.Render("[" + d.Section + "]"))
		}
		b.WriteString("\n")
	}
	return b.String()
}
