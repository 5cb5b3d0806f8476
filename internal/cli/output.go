package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// printer renders command results as text or as one JSON document.
type printer struct {
	format string
	w      io.Writer
}

// emit writes data as JSON, or calls text for the human form.
func (p *printer) emit(data any, text func(w io.Writer)) error {
	if p.format == "json" {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return nil
	}
	text(p.w)
	return nil
}
