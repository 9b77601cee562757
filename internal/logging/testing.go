package logging

import (
	"bytes"
	"context"
)

// NewTestContext returns a context carrying a logger configured by flags and
// the buffer it writes to. Color is always off so tests can match plain text.
func NewTestContext(flags Flags) (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	flags.NoColor = true
	l := NewLogger(&buf)
	Configure(l, flags)
	return WithLogger(context.Background(), l), &buf
}
