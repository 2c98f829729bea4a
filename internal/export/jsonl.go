package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/techmad220/RavenX/internal/model"
)

// JSONLExporter writes findings as JSON Lines: one JSON object per
// line, no enclosing array. The format appends cleanly, so consumers
// can accumulate findings across sessions and dedup on fingerprint.
type JSONLExporter struct {
	output io.Writer
}

// NewJSONLExporter creates an exporter that writes to the given writer.
func NewJSONLExporter(output io.Writer) *JSONLExporter {
	return &JSONLExporter{output: output}
}

// Export writes each finding as one JSON line.
// Returns the number of findings written before any error.
func (e *JSONLExporter) Export(findings []model.Finding) (int, error) {
	enc := json.NewEncoder(e.output)
	for i, f := range findings {
		if err := enc.Encode(f); err != nil {
			return i, fmt.Errorf("failed to encode finding: %w", err)
		}
	}
	return len(findings), nil
}
