package model

import "strings"

// RawRow is one data row of a worksheet, aligned with Sheet.Headers.
type RawRow []string

// Sheet is a worksheet as read from an input file. Rows are padded to the
// header width by the reader and must be treated as read-only.
type Sheet struct {
	Name    string   `json:"name"`    // 工作表名称
	Headers []string `json:"headers"` // 表头（原始列顺序）
	Rows    []RawRow `json:"rows"`    // 数据行
}

// Index returns the column index of header, or -1.
func (s *Sheet) Index(header string) int {
	if s == nil || header == "" {
		return -1
	}
	for i, h := range s.Headers {
		if h == header {
			return i
		}
	}
	return -1
}

// Value returns the trimmed cell of row under header, or "" when the
// header is absent or the row is short.
func (s *Sheet) Value(row RawRow, header string) string {
	idx := s.Index(header)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Workbook holds the sheets of one input file that the pipeline consumes.
type Workbook struct {
	Path     string `json:"path"`
	Info     *Sheet `json:"info"`               // vInfo
	Clusters *Sheet `json:"clusters,omitempty"` // vCluster, optional
}

// Schema maps semantic fields to the header found for them in one sheet.
// It is derived once per file and read-only afterwards.
type Schema struct {
	headers map[Field]string
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{headers: make(map[Field]string)}
}

// Set records the header resolved for field.
func (s *Schema) Set(field Field, header string) {
	s.headers[field] = header
}

// Header returns the header resolved for field, or "".
func (s *Schema) Header(field Field) string {
	if s == nil {
		return ""
	}
	return s.headers[field]
}

// Has reports whether field was resolved.
func (s *Schema) Has(field Field) bool {
	return s.Header(field) != ""
}

// Missing returns the required fields of axis that were not resolved.
func (s *Schema) Missing(axis Axis) []Field {
	var missing []Field
	for _, f := range axis.RequiredFields() {
		if !s.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// CapacityUnit reports the unit of the resolved capacity column.
func (s *Schema) CapacityUnit() CapacityUnit {
	if strings.Contains(strings.ToLower(s.Header(FieldCapacity)), "mib") {
		return UnitMiB
	}
	return UnitMB
}

// Len returns the number of resolved fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.headers)
}
