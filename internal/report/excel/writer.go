// Package excel provides Excel report generation for the VM inventory run.
// It implements the report.Sink interface and writes one worksheet per
// table, a native chart where a table asks for one, and a run info sheet.
package excel

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"vm-inventory/internal/model"
	"vm-inventory/internal/report/table"
)

const (
	// Sheet names
	sheetRunInfo = "运行信息"

	// Default sheet to remove
	defaultSheet = "Sheet1"

	// Colors (RGB without #)
	colorHeaderBg  = "4472C4" // Blue background for header
	colorHeaderFg  = "FFFFFF" // White text for header
	colorTotalBg   = "D9E1F2" // Light blue background for sum/total rows
	colorSectionBg = "EDEDED" // Grey background for section rows

	// Column widths
	minColWidth = 10.0
	maxColWidth = 60.0

	// Built-in number format "0.00"
	numFmtTwoDecimals = 2

	chartWidth  = 640
	chartHeight = 400
)

// Writer implements report.Sink for Excel format.
type Writer struct {
	timezone *time.Location
}

// NewWriter creates a new Excel report writer.
// If timezone is nil, it defaults to Asia/Shanghai.
func NewWriter(timezone *time.Location) *Writer {
	if timezone == nil {
		timezone, _ = time.LoadLocation("Asia/Shanghai")
	}
	return &Writer{
		timezone: timezone,
	}
}

// Format returns the format identifier for this writer.
func (w *Writer) Format() string {
	return "excel"
}

// styles holds the style IDs shared by all table sheets.
type styles struct {
	header      int
	total       int
	totalNumber int
	section     int
	number      int
}

// dataSpan is the first contiguous block of data rows on a sheet, used as
// a chart series.
type dataSpan struct {
	first, last int
}

// Write generates an Excel workbook from the assembled tables.
func (w *Writer) Write(r *model.RunReport, tables []table.Table, outputPath string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("run report is nil")
	}

	// Ensure output path has .xlsx extension
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}

	f := excelize.NewFile()
	defer f.Close()

	st, err := w.createStyles(f)
	if err != nil {
		return "", fmt.Errorf("failed to create styles: %w", err)
	}

	spans := make(map[string]dataSpan, len(tables))
	for _, t := range tables {
		span, err := w.createTableSheet(f, t, st)
		if err != nil {
			return "", fmt.Errorf("failed to create sheet %s: %w", t.Name, err)
		}
		spans[t.Name] = span
	}

	for _, t := range tables {
		if t.Chart == nil {
			continue
		}
		if err := w.addChart(f, t, spans); err != nil {
			return "", fmt.Errorf("failed to add chart to sheet %s: %w", t.Name, err)
		}
	}

	if err := w.createRunInfoSheet(f, r, st); err != nil {
		return "", fmt.Errorf("failed to create run info sheet: %w", err)
	}

	// Remove default Sheet1
	_ = f.DeleteSheet(defaultSheet)

	// Open on the first table
	if len(tables) > 0 {
		if idx, err := f.GetSheetIndex(tables[0].Name); err == nil && idx >= 0 {
			f.SetActiveSheet(idx)
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}

	return outputPath, nil
}

// createTableSheet writes one table: a styled, frozen header row followed
// by the rows. Separator rows stay empty.
func (w *Writer) createTableSheet(f *excelize.File, t table.Table, st *styles) (dataSpan, error) {
	var span dataSpan

	sheet := t.Name
	if _, err := f.NewSheet(sheet); err != nil {
		return span, err
	}

	// Write headers
	widths := make([]int, len(t.Columns))
	for i, header := range t.Columns {
		cell := fmt.Sprintf("%s1", columnName(i+1))
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, st.header)
		widths[i] = utf8.RuneCountInString(header)
	}
	f.SetRowHeight(sheet, 1, 22)

	// Freeze header row
	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	spanClosed := false
	for i, row := range t.Rows {
		excelRow := i + 2

		if row.Kind == table.RowData && !spanClosed {
			if span.first == 0 {
				span.first = excelRow
			}
			span.last = excelRow
		} else if span.first > 0 {
			spanClosed = true
		}

		for j, v := range row.Cells {
			cell := fmt.Sprintf("%s%d", columnName(j+1), excelRow)
			f.SetCellValue(sheet, cell, v)
			if style := st.forCell(row.Kind, v); style > 0 {
				f.SetCellStyle(sheet, cell, cell, style)
			}
			if j < len(widths) {
				widths[j] = max(widths[j], utf8.RuneCountInString(cellText(v)))
			}
		}
	}

	// Auto-fit column widths
	for i, n := range widths {
		col := columnName(i + 1)
		f.SetColWidth(sheet, col, col, min(max(float64(n)+2, minColWidth), maxColWidth))
	}

	return span, nil
}

// addChart draws the chart of t on its sheet, right of the table. The
// series comes from the data rows of the chart's source table.
func (w *Writer) addChart(f *excelize.File, t table.Table, spans map[string]dataSpan) error {
	spec := t.Chart
	source := spec.Source
	if source == "" {
		source = t.Name
	}

	span, ok := spans[source]
	if !ok || span.first == 0 {
		// Nothing to plot
		return nil
	}

	chartType := excelize.Col
	if spec.Type == table.ChartPie {
		chartType = excelize.Pie
	}

	labelCol, valueCol := columnName(spec.LabelColumn+1), columnName(spec.ValueColumn+1)
	ref := func(col string) string {
		return fmt.Sprintf("'%s'!$%s$%d:$%s$%d", source, col, span.first, col, span.last)
	}

	anchor := fmt.Sprintf("%s2", columnName(len(t.Columns)+2))
	return f.AddChart(t.Name, anchor, &excelize.Chart{
		Type: chartType,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("'%s'!$%s$1", source, valueCol),
				Categories: ref(labelCol),
				Values:     ref(valueCol),
			},
		},
		Title:     []excelize.RichTextRun{{Text: spec.Title}},
		Legend:    excelize.ChartLegend{Position: "right"},
		PlotArea:  excelize.ChartPlotArea{ShowPercent: spec.Type == table.ChartPie, ShowVal: spec.Type != table.ChartPie},
		Dimension: excelize.ChartDimension{Width: chartWidth, Height: chartHeight},
	})
}

// createRunInfoSheet creates the run information worksheet.
func (w *Writer) createRunInfoSheet(f *excelize.File, r *model.RunReport, st *styles) error {
	if _, err := f.NewSheet(sheetRunInfo); err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 16,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	f.SetColWidth(sheetRunInfo, "A", "A", 20)
	f.SetColWidth(sheetRunInfo, "B", "B", 45)

	// Title
	f.MergeCell(sheetRunInfo, "A1", "B1")
	f.SetCellValue(sheetRunInfo, "A1", "虚拟机资源统计报告")
	f.SetCellStyle(sheetRunInfo, "A1", "B1", titleStyle)
	f.SetRowHeight(sheetRunInfo, 1, 30)

	summary := r.Summary
	if summary == nil {
		summary = model.NewRunSummary(r.Files)
	}
	grandTotal := 0
	if r.Aggregate != nil {
		grandTotal = r.Aggregate.GrandTotal()
	}

	info := []struct {
		label string
		value any
	}{
		{"运行 ID", r.RunID},
		{"统计时间", r.StartedAt.In(w.timezone).Format("2006-01-02 15:04:05")},
		{"统计耗时", formatDuration(r.Duration)},
		{"数据目录", r.SourceDir},
		{"文件总数", summary.FilesTotal},
		{"成功处理", summary.FilesProcessed},
		{"部分处理", summary.FilesPartial},
		{"跳过文件", summary.FilesSkipped},
		{"读取行数", summary.RowsRead},
		{"计入行数", summary.RowsCounted},
		{"排除行数", summary.RowsExcluded},
		{"未匹配区间", summary.GapRows},
		{"虚拟机总数", grandTotal},
	}
	if r.Version != "" {
		info = append(info, struct {
			label string
			value any
		}{"工具版本", r.Version})
	}

	for i, item := range info {
		row := i + 3 // Start from row 3
		f.SetCellValue(sheetRunInfo, fmt.Sprintf("A%d", row), item.label)
		f.SetCellValue(sheetRunInfo, fmt.Sprintf("B%d", row), item.value)
		f.SetCellStyle(sheetRunInfo, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), st.header)
	}

	return nil
}

// Helper functions

func (w *Writer) createStyles(f *excelize.File) (*styles, error) {
	var (
		st  styles
		err error
	)

	if st.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Size:  11,
			Color: colorHeaderFg,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{colorHeaderBg},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	}); err != nil {
		return nil, err
	}

	totalFill := excelize.Fill{
		Type:    "pattern",
		Color:   []string{colorTotalBg},
		Pattern: 1,
	}
	if st.total, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: totalFill,
	}); err != nil {
		return nil, err
	}
	if st.totalNumber, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   totalFill,
		NumFmt: numFmtTwoDecimals,
	}); err != nil {
		return nil, err
	}

	if st.section, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{colorSectionBg},
			Pattern: 1,
		},
	}); err != nil {
		return nil, err
	}

	if st.number, err = f.NewStyle(&excelize.Style{
		NumFmt: numFmtTwoDecimals,
	}); err != nil {
		return nil, err
	}

	return &st, nil
}

// forCell returns the style of a cell, or 0 for the default style.
func (s *styles) forCell(kind table.RowKind, v any) int {
	_, isFloat := v.(float64)
	switch kind {
	case table.RowSum, table.RowTotal:
		if isFloat {
			return s.totalNumber
		}
		return s.total
	case table.RowSection:
		return s.section
	default:
		if isFloat {
			return s.number
		}
		return 0
	}
}

// cellText renders a cell the way it is displayed, for width estimation.
func cellText(v any) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return fmt.Sprint(v)
}

// columnName converts a 1-based column index to Excel column name (A, B, ..., Z, AA, AB, ...).
func columnName(index int) string {
	result := ""
	for index > 0 {
		index--
		result = string(rune('A'+index%26)) + result
		index /= 26
	}
	return result
}

// formatDuration formats a duration in a human-readable format.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1f秒", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1f分钟", d.Minutes())
	}
	return fmt.Sprintf("%.1f小时", d.Hours())
}
