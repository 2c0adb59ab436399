// Package report provides report generation for the VM inventory run.
// It defines the Sink interface and a registry of the supported output
// formats (Excel, CSV, HTML, Parquet).
package report

import (
	"vm-inventory/internal/model"
	"vm-inventory/internal/report/table"
)

// Sink renders the assembled tables of a run into one output format.
type Sink interface {
	// Write renders tables and saves them next to outputPath. The sink
	// appends its own extension when outputPath lacks it and returns the
	// path of the main file written.
	Write(r *model.RunReport, tables []table.Table, outputPath string) (string, error)

	// Format returns the format identifier, e.g. "excel" or "csv".
	Format() string
}
