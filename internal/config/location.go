package config

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"vm-inventory/internal/model"
)

// Column headers of the location mapping sheet.
const (
	mappingCountry  = "Country"
	mappingVCenter  = "vCenter"
	mappingVCluster = "vCluster"
)

// LoadLocationMapping reads the Country/vCenter/vCluster sheet of a mapping
// workbook. Rows missing a vCenter or vCluster are ignored.
func LoadLocationMapping(path, sheet string) (model.LocationMapping, error) {
	if path == "" {
		return nil, fmt.Errorf("mapping file path is required")
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = "vClusterLoc"
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("mapping sheet not found: %s", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("mapping sheet is empty: %s", sheet)
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{mappingCountry, mappingVCenter, mappingVCluster} {
		if _, ok := cols[strings.ToLower(name)]; !ok {
			return nil, fmt.Errorf("mapping sheet %s is missing column %s", sheet, name)
		}
	}

	cell := func(row []string, name string) string {
		i := cols[strings.ToLower(name)]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	mapping := make(model.LocationMapping)
	for _, row := range rows[1:] {
		vcenter, vcluster := cell(row, mappingVCenter), cell(row, mappingVCluster)
		if vcenter == "" || vcluster == "" {
			continue
		}
		mapping.Set(vcenter, vcluster, cell(row, mappingCountry))
	}

	return mapping, nil
}
