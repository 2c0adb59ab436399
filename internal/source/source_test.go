package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vm-inventory/internal/model"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xlsx", "a.XLSX", "c.csv", "d.txt", "~$a.xlsx", ".hidden.xlsx", "e.xlsm"} {
		touch(t, dir, name)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.xlsx"), 0o755))

	paths, err := Scan(dir, nil)
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"a.XLSX", "b.xlsx", "c.csv", "e.xlsm"}, names)
}

func TestScan_CustomExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.xlsx")
	touch(t, dir, "b.csv")

	paths, err := Scan(dir, []string{"CSV"})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "b.csv", filepath.Base(paths[0]))
}

func TestScan_Errors(t *testing.T) {
	_, err := Scan("", nil)
	assert.Error(t, err)

	_, err = Scan(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func TestScan_EmptyDir(t *testing.T) {
	paths, err := Scan(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

// writeWorkbook creates an xlsx with the given sheets, in order.
func writeWorkbook(t *testing.T, path string, sheets map[string][][]any, order ...string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for _, name := range order {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))
	require.NoError(t, f.SaveAs(path))
}

func TestFileReader_Excel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")
	writeWorkbook(t, path, map[string][][]any{
		"vHost": {{"Host"}, {"esx01"}},
		"vInfo": {
			{" Name ", "Cluster", "Total disk capacity MiB"},
			{"vm1", "C1", 100},
			{"", "", ""},
			{"vm2"},
		},
		"vCluster": {{"Name", "NumHosts"}, {"C1", 4}},
	}, "vHost", "vInfo", "vCluster")

	r := NewReader(ReaderOptions{}, zerolog.Nop())
	wb, err := r.Read(context.Background(), path)
	require.NoError(t, err)

	require.NotNil(t, wb.Info)
	assert.Equal(t, "vInfo", wb.Info.Name)
	assert.Equal(t, []string{"Name", "Cluster", "Total disk capacity MiB"}, wb.Info.Headers)
	require.Len(t, wb.Info.Rows, 2, "blank row dropped")
	assert.Equal(t, "100", wb.Info.Value(wb.Info.Rows[0], "Total disk capacity MiB"))
	assert.Len(t, wb.Info.Rows[1], 3, "short row padded to header width")

	require.NotNil(t, wb.Clusters)
	assert.Equal(t, "4", wb.Clusters.Value(wb.Clusters.Rows[0], "NumHosts"))
}

func TestFileReader_SheetFallback(t *testing.T) {
	dir := t.TempDir()

	lower := filepath.Join(dir, "lower.xlsx")
	writeWorkbook(t, lower, map[string][][]any{
		"Other": {{"x"}},
		"VINFO": {{"Name"}, {"vm1"}},
	}, "Other", "VINFO")

	first := filepath.Join(dir, "first.xlsx")
	writeWorkbook(t, first, map[string][][]any{
		"Data": {{"Name"}, {"vm1"}, {"vm2"}},
	}, "Data")

	r := NewReader(ReaderOptions{Sheet: "vInfo"}, zerolog.Nop())

	wb, err := r.Read(context.Background(), lower)
	require.NoError(t, err)
	assert.Equal(t, "VINFO", wb.Info.Name)

	wb, err = r.Read(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, "Data", wb.Info.Name)
	assert.Len(t, wb.Info.Rows, 2)
	assert.Nil(t, wb.Clusters)
}

func TestFileReader_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	content := "\ufeffName,Cluster,Total disk capacity MB\nvm1,C1,\"1,024\"\n,,\nvm2,C2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewReader(ReaderOptions{}, zerolog.Nop())
	wb, err := r.Read(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "export", wb.Info.Name)
	assert.Equal(t, "Name", wb.Info.Headers[0], "BOM stripped")
	require.Len(t, wb.Info.Rows, 2)
	assert.Equal(t, "1,024", wb.Info.Value(wb.Info.Rows[0], "Total disk capacity MB"))
	assert.Equal(t, "", wb.Info.Value(wb.Info.Rows[1], "Total disk capacity MB"))
}

func TestFileReader_Corrupt(t *testing.T) {
	dir := t.TempDir()

	notZip := filepath.Join(dir, "bad.xlsx")
	require.NoError(t, os.WriteFile(notZip, []byte("this is not a workbook"), 0o644))

	brokenZip := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(brokenZip, []byte("PK\x03\x04garbage"), 0o644))

	r := NewReader(ReaderOptions{}, zerolog.Nop())
	for _, path := range []string{notZip, brokenZip, filepath.Join(dir, "missing.xlsx")} {
		_, err := r.Read(context.Background(), path)
		require.Error(t, err, path)
		assert.True(t, errors.Is(err, model.ErrFileRead), path)

		var readErr *model.FileReadError
		require.True(t, errors.As(err, &readErr))
		assert.Equal(t, path, readErr.Path)
	}
}

func TestFileReader_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReader(ReaderOptions{}, zerolog.Nop()).Read(ctx, "any.xlsx")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
