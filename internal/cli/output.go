package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/draeician/ollama-update/internal/display"
)

// outWriter receives all command output; tests swap it to capture it.
// Logs go to stderr instead.
var outWriter io.Writer = os.Stdout

func out(format string, a ...any) {
	_, _ = fmt.Fprintf(outWriter, format, a...)
}

func outln(a ...any) {
	_, _ = fmt.Fprintln(outWriter, a...)
}

// human reports whether progress lines go to stdout.
func human() bool {
	return !jsonOutput && !quiet
}

// emitJSON writes v as the command's only stdout output.
func emitJSON(v any) error {
	return display.OutputJSON(outWriter, v)
}
