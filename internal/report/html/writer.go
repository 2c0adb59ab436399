// Package html provides HTML report generation for the VM inventory run.
// It implements the report.Sink interface with a go-echarts page holding
// the charts, followed by every report table.
package html

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"vm-inventory/internal/model"
	"vm-inventory/internal/report/table"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

const (
	reportTitle = "虚拟机资源统计报告"

	// Bars shown at most per bar chart
	maxBars = 20
)

// Writer implements report.Sink for HTML format.
type Writer struct {
	timezone *time.Location
	now      func() time.Time
}

// TemplateData holds all data passed to the tables template.
type TemplateData struct {
	Title       string
	RunID       string
	StartedAt   string
	Duration    string
	SourceDir   string
	Version     string
	GeneratedAt string
	Summary     *model.RunSummary
	Tables      []*TableData
}

// TableData represents a report table formatted for template rendering.
type TableData struct {
	ID      string
	Name    string
	Columns []string
	Rows    []*RowData
}

// RowData is one rendered table row.
type RowData struct {
	Class string
	Cells []string
}

// NewWriter creates a new HTML report writer.
// If timezone is nil, it defaults to Asia/Shanghai.
func NewWriter(timezone *time.Location) *Writer {
	if timezone == nil {
		timezone, _ = time.LoadLocation("Asia/Shanghai")
	}
	return &Writer{
		timezone: timezone,
		now:      time.Now,
	}
}

// Format returns the format identifier for this writer.
func (w *Writer) Format() string {
	return "html"
}

// Write renders the chart page and the tables into one HTML file.
func (w *Writer) Write(r *model.RunReport, tables []table.Table, outputPath string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("run report is nil")
	}

	// Ensure output path has .html extension
	if !strings.HasSuffix(strings.ToLower(outputPath), ".html") {
		outputPath = outputPath + ".html"
	}

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s - %s", reportTitle, r.RunID)
	page.SetLayout(components.PageFlexLayout)

	for _, t := range tables {
		if t.Chart == nil {
			continue
		}
		if chart := w.buildChart(t, tables); chart != nil {
			page.AddCharts(chart)
		}
	}

	// Render to buffer first
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render charts: %w", err)
	}

	fragment, err := w.renderTables(r, tables)
	if err != nil {
		return "", err
	}

	// Inject the tables after <body> and the styles into <head>
	content := injectAfterBody(buf.String(), fragment)
	content = strings.Replace(content, "</head>", customCSS+"</head>", 1)

	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}

	return outputPath, nil
}

// buildChart creates the chart t asks for from the series rows of its
// source table. It returns nil when there is nothing to plot.
func (w *Writer) buildChart(t table.Table, tables []table.Table) components.Charter {
	spec := t.Chart
	source := &t
	if spec.Source != "" {
		if source = table.Find(tables, spec.Source); source == nil {
			return nil
		}
	}

	rows := source.SeriesRows()
	if len(rows) == 0 {
		return nil
	}

	labels := make([]string, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		if spec.LabelColumn >= len(row.Cells) || spec.ValueColumn >= len(row.Cells) {
			continue
		}
		labels = append(labels, fmt.Sprint(row.Cells[spec.LabelColumn]))
		values = append(values, toFloat(row.Cells[spec.ValueColumn]))
	}

	switch spec.Type {
	case table.ChartPie:
		return newPie(spec.Title, labels, values)
	default:
		if len(labels) > maxBars {
			labels, values = labels[:maxBars], values[:maxBars]
		}
		return newBar(spec.Title, labels, values)
	}
}

func newPie(title string, labels []string, values []float64) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "item",
			Formatter: "{b}: {c} ({d}%)",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(true),
			Orient: "vertical",
			Left:   "right",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "640px",
			Height: "400px",
		}),
	)

	data := make([]opts.PieData, len(labels))
	for i := range labels {
		data[i] = opts.PieData{Name: labels[i], Value: values[i]}
	}
	pie.AddSeries("VMs", data,
		charts.WithLabelOpts(opts.Label{
			Show:      opts.Bool(true),
			Formatter: "{b}: {c}",
		}),
	)

	return pie
}

func newBar(title string, labels []string, values []float64) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "category",
			AxisLabel: &opts.AxisLabel{
				Rotate: 30,
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "VMs",
			Type: "value",
		}),
		charts.WithGridOpts(opts.Grid{
			Bottom: "25%",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "640px",
			Height: "400px",
		}),
	)

	data := make([]opts.BarData, len(values))
	for i, v := range values {
		data[i] = opts.BarData{Value: v}
	}
	bar.SetXAxis(labels).
		AddSeries("VMs", data,
			charts.WithItemStyleOpts(opts.ItemStyle{
				Color: "#4472c4",
			}),
		)

	return bar
}

// renderTables executes the embedded tables template.
func (w *Writer) renderTables(r *model.RunReport, tables []table.Table) (string, error) {
	tmpl, err := template.New("tables.html").ParseFS(embeddedTemplates, "templates/tables.html")
	if err != nil {
		return "", fmt.Errorf("failed to parse embedded template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, w.prepareTemplateData(r, tables)); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// prepareTemplateData converts the run and its tables for rendering.
func (w *Writer) prepareTemplateData(r *model.RunReport, tables []table.Table) *TemplateData {
	data := &TemplateData{
		Title:       reportTitle,
		RunID:       r.RunID,
		StartedAt:   r.StartedAt.In(w.timezone).Format("2006-01-02 15:04:05"),
		Duration:    formatDuration(r.Duration),
		SourceDir:   r.SourceDir,
		Version:     r.Version,
		GeneratedAt: w.now().In(w.timezone).Format("2006-01-02 15:04:05"),
		Summary:     r.Summary,
		Tables:      make([]*TableData, 0, len(tables)),
	}

	for i, t := range tables {
		td := &TableData{
			ID:      fmt.Sprintf("table-%d", i+1),
			Name:    t.Name,
			Columns: t.Columns,
			Rows:    make([]*RowData, 0, len(t.Rows)),
		}
		for _, row := range t.Rows {
			cells := make([]string, len(row.Cells))
			for j, v := range row.Cells {
				cells[j] = formatCell(v)
			}
			td.Rows = append(td.Rows, &RowData{Class: "row-" + row.Kind.String(), Cells: cells})
		}
		data.Tables = append(data.Tables, td)
	}

	return data
}

// injectAfterBody inserts fragment right after the opening body tag, or
// at the start of the document when there is none.
func injectAfterBody(doc, fragment string) string {
	start := strings.Index(doc, "<body")
	if start < 0 {
		return fragment + doc
	}
	end := strings.Index(doc[start:], ">")
	if end < 0 {
		return fragment + doc
	}
	pos := start + end + 1
	return doc[:pos] + "\n" + fragment + doc[pos:]
}

// Helper functions

// formatCell renders floats with two decimals.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%.2f", x)
	default:
		return fmt.Sprint(x)
	}
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case float64:
		return x
	default:
		return 0
	}
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

const customCSS = `
    <style>
        * {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
        }
        body {
            max-width: 1400px;
            margin: 0 auto;
            padding: 20px;
            font-size: 14px;
        }
        .report-header h1 {
            margin: 0 0 10px 0;
            font-size: 20px;
            border-bottom: 2px solid #4472c4;
            padding-bottom: 8px;
        }
        .info-table td {
            padding: 3px 8px;
        }
        .info-table td:first-child {
            color: #666;
            width: 120px;
        }
        .report-section {
            margin: 20px 0;
        }
        .report-section h2 {
            font-size: 16px;
            margin: 0 0 8px 0;
        }
        .data-table {
            border-collapse: collapse;
            font-size: 12px;
        }
        .data-table th {
            background: #4472c4;
            color: #fff;
            padding: 4px 10px;
        }
        .data-table td {
            border: 1px solid #ddd;
            padding: 3px 10px;
        }
        .row-sum td, .row-total td {
            font-weight: bold;
            background: #d9e1f2;
        }
        .row-section td {
            font-weight: bold;
            background: #ededed;
        }
        .row-separator {
            height: 12px;
        }
    </style>
`
