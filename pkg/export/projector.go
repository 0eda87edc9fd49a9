package export

import (
	"io"
	"strings"
)

// Projector collects, filters and writes CSV rows according to a Schema.
// Values are staged with SetColumn and flushed as one row by WriteRow.
// Output matches the historical exports: every field quoted, CRLF row
// terminators.
type Projector struct {
	w       io.Writer
	schema  *Schema
	current map[string]string
}

// NewProjector writes rows for schema to w (the append-mode CSV file).
func NewProjector(w io.Writer, schema *Schema) *Projector {
	return &Projector{w: w, schema: schema, current: make(map[string]string)}
}

// IsActive reports whether a column is present in the loaded template;
// enrichment lookups are gated on this.
func (p *Projector) IsActive(name string) bool {
	return p.schema.IsActive(name)
}

// SetColumn stages a value for the row being assembled. Empty values and
// inactive columns are ignored.
func (p *Projector) SetColumn(name, value string) {
	if value == "" || !p.schema.IsActive(name) {
		return
	}
	p.current[name] = value
}

// WriteHeader writes the display headers of the active columns. Called
// once per new destination file; re-runs appending to an existing file
// skip it.
func (p *Projector) WriteHeader() error {
	fields := make([]string, 0, len(p.schema.Columns()))
	for _, col := range p.schema.Columns() {
		fields = append(fields, p.schema.Header(col))
	}
	return p.writeFields(fields)
}

// WriteRow flushes the staged values as one CSV row and resets for the
// next activity. Unset active columns are emitted as empty fields.
func (p *Projector) WriteRow() error {
	fields := make([]string, 0, len(p.schema.Columns()))
	for _, col := range p.schema.Columns() {
		fields = append(fields, p.current[col])
	}
	p.current = make(map[string]string)
	return p.writeFields(fields)
}

func (p *Projector) writeFields(fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	_, err := io.WriteString(p.w, strings.Join(quoted, ",")+"\r\n")
	return err
}
