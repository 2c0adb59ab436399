package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"vm-inventory/internal/report/csv"
	"vm-inventory/internal/report/excel"
	"vm-inventory/internal/report/html"
	"vm-inventory/internal/report/parquet"
)

// Registry manages report sinks for different formats.
// It provides a centralized way to access sinks by format name.
type Registry struct {
	sinks map[string]Sink
}

// NewRegistry creates a new report registry with the Excel, CSV, HTML and
// Parquet sinks registered. If timezone is nil, defaults to Asia/Shanghai.
func NewRegistry(timezone *time.Location) *Registry {
	if timezone == nil {
		timezone, _ = time.LoadLocation("Asia/Shanghai")
	}

	r := &Registry{
		sinks: make(map[string]Sink),
	}

	// Register sinks using their Format() return values
	for _, s := range []Sink{
		excel.NewWriter(timezone),
		csv.NewWriter(timezone),
		html.NewWriter(timezone),
		parquet.NewWriter(),
	} {
		r.sinks[s.Format()] = s
	}

	return r
}

// Get returns a sink for the specified format.
// Format names are case-insensitive (e.g., "Excel", "EXCEL", "excel" all work).
// Returns an error if the format is not supported.
func (r *Registry) Get(format string) (Sink, error) {
	normalizedFormat := strings.ToLower(strings.TrimSpace(format))

	sink, ok := r.sinks[normalizedFormat]
	if !ok {
		supported := r.GetAll()
		return nil, fmt.Errorf("unsupported report format %q, supported formats: %s",
			format, strings.Join(supported, ", "))
	}

	return sink, nil
}

// GetAll returns all supported format names in sorted order.
func (r *Registry) GetAll() []string {
	formats := make([]string, 0, len(r.sinks))
	for format := range r.sinks {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

// Has checks if the specified format is supported.
// Format names are case-insensitive.
func (r *Registry) Has(format string) bool {
	normalizedFormat := strings.ToLower(strings.TrimSpace(format))
	_, ok := r.sinks[normalizedFormat]
	return ok
}
