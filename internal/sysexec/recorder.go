package sysexec

import "context"

// Recorder implements Runner for tests. It records every command and
// answers with the result of RunFunc, or nil output and no error when unset.
type Recorder struct {
	RunFunc func(cmd Command) ([]byte, error)

	Commands []Command
}

func (r *Recorder) Run(_ context.Context, cmd Command) ([]byte, error) {
	r.Commands = append(r.Commands, cmd)
	if r.RunFunc != nil {
		return r.RunFunc(cmd)
	}
	return nil, nil
}

// Lines returns every recorded command formatted as by Format.
func (r *Recorder) Lines() []string {
	lines := make([]string, len(r.Commands))
	for i, cmd := range r.Commands {
		lines[i] = Format(cmd)
	}
	return lines
}
