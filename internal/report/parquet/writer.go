// Package parquet exports the combined aggregate as Parquet files for
// downstream analysis.
package parquet

import (
	"fmt"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"

	"vm-inventory/internal/model"
	"vm-inventory/internal/report/table"
)

const (
	extension      = ".parquet"
	osDiskSuffix   = "_os_disk"
	clustersSuffix = "_clusters"
)

// OSDiskRecord is one (range, OS) count.
type OSDiskRecord struct {
	RunID   string `parquet:"run_id"`
	Range   string `parquet:"range"`
	OS      string `parquet:"os"`
	Count   int64  `parquet:"count"`
	Special bool   `parquet:"special"` // 单独统计的 OS，不分区间
}

// ClusterRecord is the resource summary of one cluster.
type ClusterRecord struct {
	RunID        string  `parquet:"run_id"`
	Cluster      string  `parquet:"cluster"`
	VMCount      int64   `parquet:"vm_count"`
	CPUs         int64   `parquet:"cpus"`
	MemoryGB     float64 `parquet:"memory_gb"`
	DiskTB       float64 `parquet:"disk_tb"`
	ZeroCapacity bool    `parquet:"zero_capacity"` // 零容量虚拟机汇总
}

// Writer implements report.Sink for Parquet format.
type Writer struct{}

// NewWriter creates a new Parquet report writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Format returns the format identifier for this writer.
func (w *Writer) Format() string {
	return "parquet"
}

// Write saves <base>_os_disk.parquet and <base>_clusters.parquet, built
// from the aggregate rather than the display tables. It returns the path
// of the OS/disk file.
func (w *Writer) Write(r *model.RunReport, _ []table.Table, outputPath string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("run report is nil")
	}

	agg := r.Aggregate
	if agg == nil {
		agg = model.NewCombinedAggregate(nil)
	}

	base := outputPath
	if strings.HasSuffix(strings.ToLower(base), extension) {
		base = base[:len(base)-len(extension)]
	}

	osDiskPath := base + osDiskSuffix + extension
	if err := writeFile(osDiskPath, OSDiskRecords(r.RunID, agg)); err != nil {
		return "", fmt.Errorf("failed to write OS disk records: %w", err)
	}

	if err := writeFile(base+clustersSuffix+extension, ClusterRecords(r.RunID, agg)); err != nil {
		return "", fmt.Errorf("failed to write cluster records: %w", err)
	}

	return osDiskPath, nil
}

// OSDiskRecords flattens the per-range counts in range order, then the
// special OS counts.
func OSDiskRecords(runID string, agg *model.CombinedAggregate) []OSDiskRecord {
	var records []OSDiskRecord
	for _, rg := range agg.Ranges {
		for _, name := range agg.RangeOSNames(rg.Label) {
			records = append(records, OSDiskRecord{
				RunID: runID,
				Range: rg.Label,
				OS:    name,
				Count: int64(agg.Count(rg.Label, name)),
			})
		}
	}
	for _, name := range model.SortedKeys(agg.SpecialByOS) {
		records = append(records, OSDiskRecord{
			RunID:   runID,
			Range:   table.LabelAllCapacities,
			OS:      name,
			Count:   int64(agg.SpecialByOS[name]),
			Special: true,
		})
	}
	return records
}

// ClusterRecords flattens the main cluster summary, then the zero-capacity
// summary.
func ClusterRecords(runID string, agg *model.CombinedAggregate) []ClusterRecord {
	records := make([]ClusterRecord, 0, len(agg.Clusters)+len(agg.ZeroCapacity))
	add := func(name string, s model.ClusterStats, zero bool) {
		records = append(records, ClusterRecord{
			RunID:        runID,
			Cluster:      name,
			VMCount:      int64(s.VMCount),
			CPUs:         int64(s.CPUs),
			MemoryGB:     s.MemoryGB(),
			DiskTB:       s.DiskTB(),
			ZeroCapacity: zero,
		})
	}
	for _, name := range agg.ClusterNames() {
		add(name, agg.Clusters[name], false)
	}
	for _, name := range model.SortedKeys(agg.ZeroCapacity) {
		add(name, agg.ZeroCapacity[name], true)
	}
	return records
}

func writeFile[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pw := parquet.NewGenericWriter[T](f)
	if len(rows) > 0 {
		if _, err := pw.Write(rows); err != nil {
			return err
		}
	}
	if err := pw.Close(); err != nil {
		return err
	}
	return f.Close()
}
