// Package export implements the activity synchronization pipeline: paging
// through the remote activity list, multisport expansion, per-activity
// enrichment, data-file downloads and the CSV projection.
package export

import (
	"fmt"
	"os"

	"github.com/fitglue/gcexport/pkg/domain/activity"
)

// Schema is the user-editable CSV column layout, loaded once from a
// template of key=displayHeader lines. Column order in the template is
// preserved in the output; keys not present in the template are inactive.
type Schema struct {
	columns []string
	headers map[string]string
}

// LoadSchema reads a column template file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CSV template: %w", err)
	}
	headers, columns := activity.ParseProperties(string(data))
	return &Schema{columns: columns, headers: headers}, nil
}

// IsActive reports whether a column key appears in the template.
func (s *Schema) IsActive(name string) bool {
	_, ok := s.headers[name]
	return ok
}

// Columns returns the active column keys in template order.
func (s *Schema) Columns() []string {
	return s.columns
}

// Header returns the display header for a column key.
func (s *Schema) Header(name string) string {
	return s.headers[name]
}
