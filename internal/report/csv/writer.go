// Package csv writes every report table into a single CSV file, one
// section per table.
package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"vm-inventory/internal/model"
	"vm-inventory/internal/report/table"
)

// Writer implements report.Sink for CSV format.
type Writer struct {
	timezone *time.Location
}

// NewWriter creates a new CSV report writer.
// If timezone is nil, it defaults to Asia/Shanghai.
func NewWriter(timezone *time.Location) *Writer {
	if timezone == nil {
		timezone, _ = time.LoadLocation("Asia/Shanghai")
	}
	return &Writer{timezone: timezone}
}

// Format returns the format identifier for this writer.
func (w *Writer) Format() string {
	return "csv"
}

// Write saves all tables as sections. Each section is a title row, the
// header row, the rows, and a blank line. A leading run section records
// the run ID and start time.
func (w *Writer) Write(r *model.RunReport, tables []table.Table, outputPath string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("run report is nil")
	}

	if !strings.HasSuffix(strings.ToLower(outputPath), ".csv") {
		outputPath = outputPath + ".csv"
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)

	records := [][]string{
		{"# Run"},
		{"Run ID", r.RunID},
		{"Started At", r.StartedAt.In(w.timezone).Format(time.RFC3339)},
		{"Source Dir", r.SourceDir},
		{},
	}
	for _, t := range tables {
		records = append(records, sectionRecords(t)...)
	}

	if err := cw.WriteAll(records); err != nil {
		return "", fmt.Errorf("failed to write CSV: %w", err)
	}

	return outputPath, nil
}

func sectionRecords(t table.Table) [][]string {
	records := make([][]string, 0, len(t.Rows)+3)
	records = append(records, []string{"# " + t.Name}, t.Columns)

	for _, row := range t.Rows {
		record := make([]string, len(row.Cells))
		for i, v := range row.Cells {
			record[i] = formatCell(v)
		}
		records = append(records, record)
	}

	return append(records, []string{})
}

// formatCell renders floats with two decimals and everything else as is.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%.2f", x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
