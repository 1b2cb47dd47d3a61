package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/okian/tipset/internal/domain/report"
)

// JSON writes the report document as JSON.
type JSON struct {
	Indent bool
}

// ContentType implements Renderer.
func (JSON) ContentType() string { return "application/json; charset=utf-8" }

// Render implements Renderer.
func (j JSON) Render(w io.Writer, r *report.Report) error {
	enc := json.NewEncoder(w)
	if j.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
