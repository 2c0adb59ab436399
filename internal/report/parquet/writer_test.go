package parquet

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vm-inventory/internal/model"
)

func createTestRunReport() *model.RunReport {
	agg := model.NewCombinedAggregate([]model.CapacityRange{
		{Min: 0, Max: 149, Label: "0 MB - 149 MB"},
		{Min: 150, Max: 2000000, Label: "150 MB - 2 TB"},
	})
	agg.ByRange["150 MB - 2 TB"]["Windows"] = 2
	agg.ByRange["150 MB - 2 TB"]["Linux"] = 5
	agg.SpecialCount = 1
	agg.SpecialByOS["VMware Photon OS (64-bit)"] = 1
	agg.Clusters["C1"] = model.ClusterStats{VMCount: 5, CPUs: 10, MemoryMB: 2048, DiskMB: 1048576}
	agg.ZeroCapacity["C2"] = model.ClusterStats{VMCount: 1, CPUs: 2}

	r := model.NewRunReport("run-pq", "/data", time.Now())
	r.Aggregate = agg
	return r
}

func TestWriter_Write(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter()
	assert.Equal(t, "parquet", w.Format())

	path, err := w.Write(createTestRunReport(), nil, filepath.Join(dir, "inventory.parquet"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "inventory_os_disk.parquet"), path)

	osDisk, err := parquet.ReadFile[OSDiskRecord](path)
	require.NoError(t, err)
	assert.Equal(t, []OSDiskRecord{
		{RunID: "run-pq", Range: "150 MB - 2 TB", OS: "Linux", Count: 5},
		{RunID: "run-pq", Range: "150 MB - 2 TB", OS: "Windows", Count: 2},
		{RunID: "run-pq", Range: "All Capacities", OS: "VMware Photon OS (64-bit)", Count: 1, Special: true},
	}, osDisk)

	clusters, err := parquet.ReadFile[ClusterRecord](filepath.Join(dir, "inventory_clusters.parquet"))
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	assert.Equal(t, "C1", clusters[0].Cluster)
	assert.Equal(t, int64(5), clusters[0].VMCount)
	assert.InDelta(t, 2.0, clusters[0].MemoryGB, 1e-12)
	assert.InDelta(t, 1.0, clusters[0].DiskTB, 1e-12)
	assert.True(t, clusters[1].ZeroCapacity)
}

func TestWriter_Write_EmptyAggregate(t *testing.T) {
	dir := t.TempDir()
	r := model.NewRunReport("run-empty", "/data", time.Now())

	path, err := NewWriter().Write(r, nil, filepath.Join(dir, "empty"))
	require.NoError(t, err)

	rows, err := parquet.ReadFile[OSDiskRecord](path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriter_Write_Errors(t *testing.T) {
	_, err := NewWriter().Write(nil, nil, "x")
	assert.Error(t, err)

	_, err = NewWriter().Write(createTestRunReport(), nil, filepath.Join(t.TempDir(), "missing", "x"))
	assert.Error(t, err)
}
