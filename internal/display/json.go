package display

import (
	"encoding/json"
	"io"
)

// OutputJSON writes pretty-printed JSON to the given writer.
func OutputJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// StepFromError builds a StepJSON for a step that ran.
func StepFromError(err error) StepJSON {
	if err != nil {
		return StepJSON{Ran: true, Error: err.Error()}
	}
	return StepJSON{Ran: true, OK: true}
}
