package excel

import (
	"archive/zip"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"vm-inventory/internal/model"
	"vm-inventory/internal/report/table"
)

func TestNewWriter(t *testing.T) {
	tests := []struct {
		name     string
		timezone *time.Location
		wantTZ   string
	}{
		{
			name:     "nil timezone defaults to Asia/Shanghai",
			timezone: nil,
			wantTZ:   "Asia/Shanghai",
		},
		{
			name:     "custom timezone",
			timezone: time.UTC,
			wantTZ:   "UTC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter(tt.timezone)
			if w == nil {
				t.Fatal("NewWriter returned nil")
			}
			if w.timezone.String() != tt.wantTZ {
				t.Errorf("timezone = %v, want %v", w.timezone.String(), tt.wantTZ)
			}
		})
	}
}

func TestWriter_Format(t *testing.T) {
	w := NewWriter(nil)
	if got := w.Format(); got != "excel" {
		t.Errorf("Format() = %v, want %v", got, "excel")
	}
}

func TestWriter_Write_NilReport(t *testing.T) {
	w := NewWriter(nil)
	if _, err := w.Write(nil, nil, "test.xlsx"); err == nil {
		t.Error("Write() with nil report should return error")
	}
}

func createTestRunReport() *model.RunReport {
	agg := model.NewCombinedAggregate([]model.CapacityRange{
		{Min: 0, Max: 149, Label: "0 MB - 149 MB"},
		{Min: 150, Max: 2000000, Label: "150 MB - 2 TB"},
	})
	agg.ByRange["150 MB - 2 TB"]["Linux"] = 5
	agg.ByRange["0 MB - 149 MB"]["Windows"] = 1
	agg.SpecialCount = 1
	agg.SpecialByOS["VMware Photon OS (64-bit)"] = 1
	agg.OSTotals["Linux"] = 5
	agg.OSTotals["Windows"] = 1
	agg.Clusters["C1"] = model.ClusterStats{VMCount: 5, CPUs: 10, MemoryMB: 4096, DiskMB: 2500}
	agg.ZeroCapacity["C2"] = model.ClusterStats{VMCount: 1, CPUs: 1, MemoryMB: 512}

	r := model.NewRunReport("run-42", "/data", time.Date(2024, 1, 15, 2, 0, 0, 0, time.UTC))
	r.Version = "v1.0.0"
	r.Aggregate = agg
	r.Files = []*model.FileResult{
		{Path: "/data/a.xlsx", Status: model.FileStatusProcessed, Partial: model.NewPartialAggregate()},
	}
	r.Finalize(r.StartedAt.Add(90 * time.Second))
	return r
}

func writeTestWorkbook(t *testing.T) (string, *excelize.File) {
	t.Helper()
	r := createTestRunReport()
	tables := table.Assemble(r, table.Options{})

	w := NewWriter(time.UTC)
	path, err := w.Write(r, tables, filepath.Join(t.TempDir(), "report"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.HasSuffix(path, ".xlsx") {
		t.Errorf("path = %s, want .xlsx suffix", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return path, f
}

func TestWriter_Write_Sheets(t *testing.T) {
	_, f := writeTestWorkbook(t)

	want := []string{
		table.NameOSDiskCount, table.NameClusterCount, table.NameOSSummary,
		table.NameCapacityRanges, table.NameFiles, sheetRunInfo,
	}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sheet[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if f.GetActiveSheetIndex() != 0 {
		t.Errorf("active sheet = %d, want 0", f.GetActiveSheetIndex())
	}
}

func TestWriter_Write_OSDiskCount(t *testing.T) {
	_, f := writeTestWorkbook(t)
	sheet := table.NameOSDiskCount

	tests := []struct {
		cell string
		want string
	}{
		{"A1", "OS"},
		{"B1", "Count"},
		{"C1", "Capacity Range"},
		{"A2", "Windows"},
		{"B2", "1"},
		{"A3", table.LabelDiskOSSum},
		{"A4", ""}, // separator
		{"A5", "Linux"},
		{"B5", "5"},
		{"A8", "VMware Photon OS (64-bit)"},
		{"C8", table.LabelAllCapacities},
		{"A9", "Photon OS Count"},
		{"A11", table.LabelTotalMachines},
		{"B11", "7"},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue(sheet, tt.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s) error = %v", tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.cell, got, tt.want)
		}
	}

	panes, err := f.GetPanes(sheet)
	if err != nil {
		t.Fatalf("GetPanes() error = %v", err)
	}
	if !panes.Freeze || panes.YSplit != 1 {
		t.Errorf("panes = %+v, want frozen header", panes)
	}
}

func TestWriter_Write_NumberFormat(t *testing.T) {
	_, f := writeTestWorkbook(t)
	sheet := table.NameClusterCount

	got, _ := f.GetCellValue(sheet, "D2")
	if got != "4.00" {
		t.Errorf("memory GB = %q, want 4.00", got)
	}
	got, _ = f.GetCellValue(sheet, "E2")
	if got != "0.00" {
		t.Errorf("disk TB = %q, want 0.00", got)
	}

	raw, _ := f.GetCellValue(sheet, "E2", excelize.Options{RawCellValue: true})
	if !strings.HasPrefix(raw, "0.00238") {
		t.Errorf("raw disk TB = %q, want full precision", raw)
	}

	got, _ = f.GetCellValue(sheet, "A6")
	if got != "C2 (Zero Capacity)" {
		t.Errorf("A6 = %q, want zero capacity row", got)
	}
}

func TestWriter_Write_RunInfo(t *testing.T) {
	_, f := writeTestWorkbook(t)

	title, _ := f.GetCellValue(sheetRunInfo, "A1")
	if title != "虚拟机资源统计报告" {
		t.Errorf("title = %q", title)
	}

	rows, err := f.GetRows(sheetRunInfo)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	values := make(map[string]string)
	for _, row := range rows {
		if len(row) == 2 {
			values[row[0]] = row[1]
		}
	}

	if values["运行 ID"] != "run-42" {
		t.Errorf("run id = %q", values["运行 ID"])
	}
	if values["统计耗时"] != "1.5分钟" {
		t.Errorf("duration = %q", values["统计耗时"])
	}
	if values["虚拟机总数"] != "7" {
		t.Errorf("grand total = %q", values["虚拟机总数"])
	}
	if values["工具版本"] != "v1.0.0" {
		t.Errorf("version = %q", values["工具版本"])
	}
}

func TestWriter_Write_Charts(t *testing.T) {
	path, _ := writeTestWorkbook(t)

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("zip.OpenReader() error = %v", err)
	}
	defer zr.Close()

	charts := 0
	for _, file := range zr.File {
		if strings.HasPrefix(file.Name, "xl/charts/chart") {
			charts++
		}
	}
	// OS_Disk_Count pie, cluster bar, OS summary bar
	if charts != 3 {
		t.Errorf("charts = %d, want 3", charts)
	}
}

func TestColumnName(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{1, "A"},
		{26, "Z"},
		{27, "AA"},
		{52, "AZ"},
		{703, "AAA"},
	}

	for _, tt := range tests {
		if got := columnName(tt.index); got != tt.want {
			t.Errorf("columnName(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "500ms"},
		{30 * time.Second, "30.0秒"},
		{90 * time.Second, "1.5分钟"},
		{2 * time.Hour, "2.0小时"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
