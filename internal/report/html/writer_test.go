package html

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vm-inventory/internal/model"
	"vm-inventory/internal/report/table"
)

func createTestRunReport() *model.RunReport {
	agg := model.NewCombinedAggregate(model.DefaultCapacityRanges())
	agg.ByRange["150 MB - 2 TB"]["Linux"] = 5
	agg.OSTotals["Linux"] = 5
	agg.Clusters["<b>C1</b>"] = model.ClusterStats{VMCount: 5, CPUs: 10, MemoryMB: 2048, DiskMB: 2500}

	r := model.NewRunReport("run-html", "/data", time.Date(2024, 6, 1, 4, 0, 0, 0, time.UTC))
	r.Version = "v1.2.3"
	r.Aggregate = agg
	r.Finalize(r.StartedAt.Add(3 * time.Second))
	return r
}

func TestWriter_Format(t *testing.T) {
	w := NewWriter(nil)
	assert.Equal(t, "html", w.Format())
	assert.Equal(t, "Asia/Shanghai", w.timezone.String())
}

func TestWriter_Write(t *testing.T) {
	r := createTestRunReport()
	tables := table.Assemble(r, table.Options{})

	w := NewWriter(time.UTC)
	w.now = func() time.Time { return time.Date(2024, 6, 1, 5, 0, 0, 0, time.UTC) }

	path, err := w.Write(r, tables, filepath.Join(t.TempDir(), "report"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "report.html"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	// Charts
	assert.Contains(t, content, "echarts")
	assert.Contains(t, content, "VMs by Capacity Range")
	assert.Contains(t, content, "VMs per Cluster")

	// Run info and tables
	assert.Contains(t, content, "run-html")
	assert.Contains(t, content, "2024-06-01 04:00:00")
	assert.Contains(t, content, "3.0秒")
	assert.Contains(t, content, "v1.2.3")
	for _, tbl := range tables {
		assert.Contains(t, content, "<h2>"+tbl.Name+"</h2>")
	}
	assert.Contains(t, content, `class="row-total"`)
	assert.Contains(t, content, "<td>2.00</td>")

	// Cluster names are escaped in the tables
	assert.Contains(t, content, "&lt;b&gt;C1&lt;/b&gt;")

	// Styles land in the head
	head := content[:strings.Index(content, "</head>")]
	assert.Contains(t, head, ".data-table")
}

func TestWriter_Write_Errors(t *testing.T) {
	w := NewWriter(time.UTC)

	_, err := w.Write(nil, nil, "out.html")
	assert.Error(t, err)

	r := createTestRunReport()
	_, err = w.Write(r, nil, filepath.Join(t.TempDir(), "missing", "out.html"))
	assert.Error(t, err)
}

func TestBuildChart_MissingSource(t *testing.T) {
	w := NewWriter(time.UTC)
	tbl := table.Table{
		Name:  "x",
		Chart: &table.ChartSpec{Type: table.ChartPie, Source: "missing"},
	}
	assert.Nil(t, w.buildChart(tbl, nil))

	tbl.Chart.Source = ""
	assert.Nil(t, w.buildChart(tbl, nil), "no data rows")
}

func TestInjectAfterBody(t *testing.T) {
	assert.Equal(t, "<html><body class=\"a\">\nX</body>", injectAfterBody(`<html><body class="a"></body>`, "X"))
	assert.Equal(t, "X<p>", injectAfterBody("<p>", "X"))
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", formatCell(nil))
	assert.Equal(t, "1.50", formatCell(1.5))
	assert.Equal(t, "7", formatCell(7))
	assert.Equal(t, 3.0, toFloat(3))
	assert.Equal(t, 0.0, toFloat("x"))
}
