package table

import (
	"path/filepath"
	"sort"
	"strings"

	"vm-inventory/internal/aggregate"
	"vm-inventory/internal/model"
	"vm-inventory/internal/normalize"
)

// Row labels shared with the sinks.
const (
	LabelDiskOSSum        = "Disk OS Sum"
	LabelAllCapacities    = "All Capacities"
	LabelTotalMachines    = "Total Machine Count"
	LabelTotal            = "Total"
	LabelZeroCapacity     = "(Zero Capacity)"
	LabelTotalZeroCap     = "Total Zero Capacity Count"
	LabelOverallTotal     = "Overall Total"
	LabelGrandTotal       = "Grand Total"
	LabelUnmapped         = "Unmapped"
	SiteEDC               = "EDC"
	SitePlan              = "Plan"
	GroupInfraDR          = "Infra-DR Group"
	infraDRMarker         = "-infra-dr"
	defaultSpecialLabel   = "Photon OS Count"
	groupPrefixLength     = 4
	defaultEDCMarkerDC1H1 = "dc1h1"
	defaultEDCMarkerDC2H2 = "dc2h2"
)

// Options tunes table assembly.
type Options struct {
	SpecialLabel string                // 特殊 OS 小计行标签，为空时由 SpecialOS 推导
	SpecialOS    string                // 单独统计的操作系统
	Environments []string              // 环境关键字顺序
	Countries    model.LocationMapping // (vCenter, vCluster) -> 国家
	EDCMarkers   []string              // 集群名包含即为 EDC
}

// SpecialLabel returns the subtotal label of the special OS rows:
// "Photon OS Count" for the default Photon OS, "<os> Count" otherwise.
func SpecialLabel(specialOS string) string {
	specialOS = strings.TrimSpace(specialOS)
	if specialOS == "" || specialOS == normalize.DefaultSpecialOS {
		return defaultSpecialLabel
	}
	return specialOS + " Count"
}

// Assemble builds the report tables of r in output order. Optional tables
// (environment, location, standalone) are omitted when they have no data.
func Assemble(r *model.RunReport, opts Options) []Table {
	if opts.SpecialLabel == "" {
		opts.SpecialLabel = SpecialLabel(opts.SpecialOS)
	}
	if opts.EDCMarkers == nil {
		opts.EDCMarkers = []string{defaultEDCMarkerDC1H1, defaultEDCMarkerDC2H2}
	}

	agg := r.Aggregate
	if agg == nil {
		agg = model.NewCombinedAggregate(nil)
	}

	tables := []Table{
		osDiskCount(agg, opts),
		clusterCount(agg),
		osSummary(agg),
	}
	if len(agg.Environments) > 0 {
		tables = append(tables, environments(agg, opts))
	}
	tables = append(tables, capacityRanges(agg))
	if len(agg.Locations) > 0 {
		tables = append(tables, locations(agg, opts))
	}
	if len(agg.Standalone) > 0 {
		tables = append(tables, standalone(agg))
	}
	tables = append(tables, files(r))

	return tables
}

func osDiskCount(agg *model.CombinedAggregate, opts Options) Table {
	t := Table{
		Name:    NameOSDiskCount,
		Title:   "OS by Disk Capacity",
		Columns: []string{"OS", "Count", "Capacity Range"},
		Chart: &ChartSpec{
			Type:        ChartPie,
			Title:       "VMs by Capacity Range",
			Source:      NameCapacityRanges,
			LabelColumn: 0,
			ValueColumn: 1,
		},
	}

	for _, r := range agg.Ranges {
		for _, os := range agg.RangeOSNames(r.Label) {
			t.add(RowData, os, agg.Count(r.Label, os), r.Label)
		}
		t.add(RowSum, LabelDiskOSSum, agg.RangeTotal(r.Label), r.Label)
		t.separator()
	}

	if agg.SpecialCount > 0 {
		for _, os := range model.SortedKeys(agg.SpecialByOS) {
			t.add(RowData, os, agg.SpecialByOS[os], LabelAllCapacities)
		}
		t.add(RowSum, opts.SpecialLabel, agg.SpecialCount, LabelAllCapacities)
		t.separator()
	}

	t.add(RowTotal, LabelTotalMachines, agg.GrandTotal(), "")
	return t
}

func statsCells(name string, s model.ClusterStats) []any {
	return []any{name, s.VMCount, s.CPUs, s.MemoryGB(), s.DiskTB()}
}

func clusterCount(agg *model.CombinedAggregate) Table {
	t := Table{
		Name:    NameClusterCount,
		Title:   "VMs per Cluster",
		Columns: []string{"Cluster", "VM Count", "Total CPUs", "Total Memory GB", "Total Disk TB"},
		Chart: &ChartSpec{
			Type:        ChartBar,
			Title:       "VMs per Cluster",
			LabelColumn: 0,
			ValueColumn: 1,
		},
	}

	for _, name := range agg.ClusterNames() {
		t.add(RowData, statsCells(name, agg.Clusters[name])...)
	}
	t.add(RowTotal, statsCells(LabelTotal, agg.ClusterTotal())...)

	if len(agg.ZeroCapacity) > 0 {
		t.separator()
		t.separator()
		for _, name := range model.SortedKeys(agg.ZeroCapacity) {
			t.add(RowData, statsCells(name+" "+LabelZeroCapacity, agg.ZeroCapacity[name])...)
		}
		t.add(RowTotal, statsCells(LabelTotalZeroCap, agg.ZeroCapacityTotal())...)
	}

	return t
}

func osSummary(agg *model.CombinedAggregate) Table {
	t := Table{
		Name:    NameOSSummary,
		Title:   "Operating Systems",
		Columns: []string{"Operating System", "Count"},
		Chart: &ChartSpec{
			Type:        ChartBar,
			Title:       "Top Operating Systems",
			LabelColumn: 0,
			ValueColumn: 1,
		},
	}

	counts := make(map[string]int, len(agg.OSTotals)+len(agg.SpecialByOS))
	for os, n := range agg.OSTotals {
		counts[os] += n
	}
	for os, n := range agg.SpecialByOS {
		counts[os] += n
	}

	names := model.SortedKeys(counts)
	sort.SliceStable(names, func(i, j int) bool { return counts[names[i]] > counts[names[j]] })

	total := 0
	for _, os := range names {
		t.add(RowData, os, counts[os])
		total += counts[os]
	}
	t.add(RowTotal, LabelTotal, total)
	return t
}

func environments(agg *model.CombinedAggregate, opts Options) Table {
	t := Table{
		Name:    NameEnvironment,
		Title:   "VMs per Environment",
		Columns: []string{"Environment", "Operating System", "Count"},
	}

	overall := 0
	for _, env := range environmentOrder(agg, opts.Environments) {
		byOS := agg.Environments[env]
		total := 0
		for _, n := range byOS {
			total += n
		}
		overall += total

		t.add(RowSection, env, "", total)
		for _, os := range model.SortedKeys(byOS) {
			t.add(RowData, "", os, byOS[os])
		}
		t.separator()
	}

	t.add(RowTotal, LabelOverallTotal, "", overall)
	return t
}

// environmentOrder lists environments in keyword order, then any others
// sorted, with UNKNOWN last.
func environmentOrder(agg *model.CombinedAggregate, keywords []string) []string {
	var order []string
	seen := make(map[string]bool)
	for _, k := range keywords {
		k = strings.ToUpper(strings.TrimSpace(k))
		if _, ok := agg.Environments[k]; ok && !seen[k] {
			order = append(order, k)
			seen[k] = true
		}
	}
	for _, env := range model.SortedKeys(agg.Environments) {
		if !seen[env] && env != aggregate.UnknownEnvironment {
			order = append(order, env)
			seen[env] = true
		}
	}
	if _, ok := agg.Environments[aggregate.UnknownEnvironment]; ok {
		order = append(order, aggregate.UnknownEnvironment)
	}
	return order
}

func capacityRanges(agg *model.CombinedAggregate) Table {
	t := Table{
		Name:    NameCapacityRanges,
		Title:   "VMs per Capacity Range",
		Columns: []string{"Capacity Range", "Count"},
	}

	for _, r := range agg.Ranges {
		t.add(RowData, r.Label, agg.RangeTotal(r.Label))
	}
	if agg.SpecialCount > 0 {
		t.add(RowData, LabelAllCapacities, agg.SpecialCount)
	}
	t.add(RowTotal, LabelTotal, agg.GrandTotal())
	return t
}

type locationRow struct {
	country string
	key     model.LocationKey
	stats   model.ClusterStats
	hosts   int
}

func locations(agg *model.CombinedAggregate, opts Options) Table {
	t := Table{
		Name:  NameLocation,
		Title: "Clusters per Location",
		Columns: []string{
			"Country", "vCenter", "vCluster", "Site", "Group",
			"Host Count", "VM Count", "Total CPUs", "Total Memory GB", "Total Disk TB",
		},
	}

	rows := make([]locationRow, 0, len(agg.Locations))
	for key, stats := range agg.Locations {
		country := opts.Countries.Country(key)
		if country == "" {
			country = LabelUnmapped
		}
		rows = append(rows, locationRow{country: country, key: key, stats: stats, hosts: agg.HostCounts[key.VCluster]})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].country != rows[j].country {
			return rows[i].country < rows[j].country
		}
		if rows[i].key.VCenter != rows[j].key.VCenter {
			return rows[i].key.VCenter < rows[j].key.VCenter
		}
		return rows[i].key.VCluster < rows[j].key.VCluster
	})

	var (
		grand, sub           model.ClusterStats
		grandHosts, subHosts int
	)
	flush := func(country string) {
		t.add(RowSum, country+" "+LabelTotal, "", "", "", "",
			subHosts, sub.VMCount, sub.CPUs, sub.MemoryGB(), sub.DiskTB())
		sub, subHosts = model.ClusterStats{}, 0
	}

	for i, row := range rows {
		if i > 0 && rows[i-1].country != row.country {
			flush(rows[i-1].country)
		}
		t.add(RowData, row.country, row.key.VCenter, row.key.VCluster,
			Site(row.key.VCluster, opts.EDCMarkers), Group(row.key.VCluster),
			row.hosts, row.stats.VMCount, row.stats.CPUs, row.stats.MemoryGB(), row.stats.DiskTB())

		sub.Add(row.stats)
		grand.Add(row.stats)
		subHosts += row.hosts
		grandHosts += row.hosts
	}
	if len(rows) > 0 {
		flush(rows[len(rows)-1].country)
	}

	t.add(RowTotal, LabelGrandTotal, "", "", "", "",
		grandHosts, grand.VMCount, grand.CPUs, grand.MemoryGB(), grand.DiskTB())
	return t
}

// Site returns "EDC" when cluster contains one of markers, else "Plan".
func Site(cluster string, markers []string) string {
	lower := strings.ToLower(cluster)
	for _, m := range markers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" && strings.Contains(lower, m) {
			return SiteEDC
		}
	}
	return SitePlan
}

// Group returns the cluster group: infra DR clusters share one group,
// other clusters are grouped by their first four characters.
func Group(cluster string) string {
	if strings.Contains(strings.ToLower(cluster), infraDRMarker) {
		return GroupInfraDR
	}
	runes := []rune(cluster)
	if len(runes) > groupPrefixLength {
		runes = runes[:groupPrefixLength]
	}
	return string(runes)
}

func standalone(agg *model.CombinedAggregate) Table {
	t := Table{
		Name:    NameStandalone,
		Title:   "Standalone VMs",
		Columns: []string{"vCenter", "VM"},
	}
	for _, vm := range agg.Standalone {
		t.add(RowData, vm.VCenter, vm.Name)
	}
	t.add(RowTotal, LabelTotal, len(agg.Standalone))
	return t
}

func files(r *model.RunReport) Table {
	t := Table{
		Name:    NameFiles,
		Title:   "Input Files",
		Columns: []string{"File", "Status", "Rows", "Counted", "Excluded", "Reason"},
	}
	for _, f := range r.Files {
		if f == nil {
			continue
		}
		read, counted, excluded := 0, 0, 0
		if f.Partial != nil {
			read, counted, excluded = f.Partial.RowsRead, f.Partial.Counted(), f.Partial.Excluded()
		}
		t.add(RowData, filepath.Base(f.Path), string(f.Status), read, counted, excluded, f.Reason)
	}
	return t
}
