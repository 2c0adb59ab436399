// Package table lays the combined aggregate of a run out as the ordered,
// format-independent tables every report sink renders.
package table

// RowKind tells sinks how to style a row.
type RowKind int

const (
	RowData      RowKind = iota // 数据行
	RowSum                      // 小计行
	RowTotal                    // 合计行
	RowSeparator                // 空白分隔行
	RowSection                  // 分组标题行
)

// String returns the kind name.
func (k RowKind) String() string {
	switch k {
	case RowData:
		return "data"
	case RowSum:
		return "sum"
	case RowTotal:
		return "total"
	case RowSeparator:
		return "separator"
	case RowSection:
		return "section"
	default:
		return "unknown"
	}
}

// Row is one table row. Cells hold string, int or float64 values aligned
// with Table.Columns; separator rows have no cells.
type Row struct {
	Kind  RowKind
	Cells []any
}

// ChartType is the kind of chart a sink may draw for a table.
type ChartType string

const (
	ChartPie ChartType = "pie"
	ChartBar ChartType = "bar"
)

// ChartSpec describes a chart over the data rows of a table.
type ChartSpec struct {
	Type        ChartType
	Title       string
	Source      string // table holding the series, "" for the table itself
	LabelColumn int
	ValueColumn int
}

// Table is a titled grid of rows.
type Table struct {
	Name    string // sheet or section name
	Title   string
	Columns []string
	Rows    []Row
	Chart   *ChartSpec
}

// Table names, in output order.
const (
	NameOSDiskCount    = "OS_Disk_Count"
	NameClusterCount   = "vCluster VM Count"
	NameOSSummary      = "OS_Summary"
	NameEnvironment    = "Environment"
	NameCapacityRanges = "Capacity_Ranges"
	NameLocation       = "vCluster Location"
	NameStandalone     = "Standalone VMs"
	NameFiles          = "Files"
)

func (t *Table) add(kind RowKind, cells ...any) {
	t.Rows = append(t.Rows, Row{Kind: kind, Cells: cells})
}

func (t *Table) separator() {
	t.Rows = append(t.Rows, Row{Kind: RowSeparator})
}

// DataRows returns the rows of kind RowData.
func (t *Table) DataRows() []Row {
	var rows []Row
	for _, r := range t.Rows {
		if r.Kind == RowData {
			rows = append(rows, r)
		}
	}
	return rows
}

// Find returns the table called name, or nil.
func Find(tables []Table, name string) *Table {
	for i := range tables {
		if tables[i].Name == name {
			return &tables[i]
		}
	}
	return nil
}

// SeriesRows returns the first contiguous run of data rows, the series a
// chart over t plots.
func (t *Table) SeriesRows() []Row {
	var rows []Row
	for _, r := range t.Rows {
		if r.Kind == RowData {
			rows = append(rows, r)
			continue
		}
		if len(rows) > 0 {
			break
		}
	}
	return rows
}
