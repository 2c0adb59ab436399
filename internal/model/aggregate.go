package model

import "sort"

// ExclusionReason explains why a row was dropped by the normalizer.
type ExclusionReason string

const (
	ExcludedTemplate   ExclusionReason = "template"    // Template / SRM Placeholder 标记
	ExcludedOSMarker   ExclusionReason = "os_marker"   // 操作系统包含排除关键字
	ExcludedName       ExclusionReason = "name"        // 名称匹配忽略规则
	ExcludedLocation   ExclusionReason = "location"    // 集群/文件夹匹配忽略规则
	ExcludedPoweredOff ExclusionReason = "powered_off" // 已关机
)

// PartialAggregate is the aggregation result of a single file.
// It is produced by one worker and read-only once returned.
type PartialAggregate struct {
	ByRange      map[string]map[string]int    `json:"by_range"`      // 容量区间 -> OS -> 数量
	SpecialCount int                          `json:"special_count"` // 单独统计的 OS 总数
	SpecialByOS  map[string]int               `json:"special_by_os"` // 单独统计的 OS 明细
	Clusters     map[string]ClusterStats      `json:"clusters"`      // 集群汇总（不含零容量）
	ZeroCapacity map[string]ClusterStats      `json:"zero_capacity"` // 零容量虚拟机集群汇总
	OSTotals     map[string]int               `json:"os_totals"`     // OS 汇总
	Environments map[string]map[string]int    `json:"environments"`  // 环境 -> OS -> 数量
	Locations    map[LocationKey]ClusterStats `json:"-"`             // (vCenter, vCluster) 汇总
	HostCounts   map[string]int               `json:"host_counts"`   // vCluster -> 主机数
	Standalone   []StandaloneVM               `json:"standalone"`    // 独立虚拟机

	RowsRead     int                     `json:"rows_read"`     // 读取行数
	RowsExcluded map[ExclusionReason]int `json:"rows_excluded"` // 按原因统计的排除行数
	RowsGap      int                     `json:"rows_gap"`      // 未落入任何容量区间的行数
	RowsNoOS     int                     `json:"rows_no_os"`    // 无操作系统信息的行数
}

// NewPartialAggregate creates an empty partial aggregate.
func NewPartialAggregate() *PartialAggregate {
	return &PartialAggregate{
		ByRange:      make(map[string]map[string]int),
		SpecialByOS:  make(map[string]int),
		Clusters:     make(map[string]ClusterStats),
		ZeroCapacity: make(map[string]ClusterStats),
		OSTotals:     make(map[string]int),
		Environments: make(map[string]map[string]int),
		Locations:    make(map[LocationKey]ClusterStats),
		HostCounts:   make(map[string]int),
		RowsExcluded: make(map[ExclusionReason]int),
	}
}

// CountRange increments the (label, os) counter.
func (p *PartialAggregate) CountRange(label, os string) {
	m, ok := p.ByRange[label]
	if !ok {
		m = make(map[string]int)
		p.ByRange[label] = m
	}
	m[os]++
}

// Counted returns the number of rows counted into at least one axis.
func (p *PartialAggregate) Counted() int {
	n := p.SpecialCount
	for _, c := range p.OSTotals {
		n += c
	}
	return n
}

// Excluded returns the number of rows dropped by exclusion filters.
func (p *PartialAggregate) Excluded() int {
	n := 0
	for _, c := range p.RowsExcluded {
		n += c
	}
	return n
}

// CombinedAggregate is the union of all partial aggregates of a run.
// It is immutable once returned by the aggregator.
type CombinedAggregate struct {
	Ranges       []CapacityRange              `json:"ranges"`
	ByRange      map[string]map[string]int    `json:"by_range"`
	SpecialCount int                          `json:"special_count"`
	SpecialByOS  map[string]int               `json:"special_by_os"`
	Clusters     map[string]ClusterStats      `json:"clusters"`
	ZeroCapacity map[string]ClusterStats      `json:"zero_capacity"`
	OSTotals     map[string]int               `json:"os_totals"`
	Environments map[string]map[string]int    `json:"environments"`
	Locations    map[LocationKey]ClusterStats `json:"-"`
	HostCounts   map[string]int               `json:"host_counts"`
	Standalone   []StandaloneVM               `json:"standalone"`

	RowsRead     int                     `json:"rows_read"`
	RowsExcluded map[ExclusionReason]int `json:"rows_excluded"`
	RowsGap      int                     `json:"rows_gap"`
	RowsNoOS     int                     `json:"rows_no_os"`
}

// NewCombinedAggregate creates an empty, well-formed aggregate in which
// every configured range is present.
func NewCombinedAggregate(ranges []CapacityRange) *CombinedAggregate {
	c := &CombinedAggregate{
		Ranges:       append([]CapacityRange(nil), ranges...),
		ByRange:      make(map[string]map[string]int, len(ranges)),
		SpecialByOS:  make(map[string]int),
		Clusters:     make(map[string]ClusterStats),
		ZeroCapacity: make(map[string]ClusterStats),
		OSTotals:     make(map[string]int),
		Environments: make(map[string]map[string]int),
		Locations:    make(map[LocationKey]ClusterStats),
		HostCounts:   make(map[string]int),
		Standalone:   make([]StandaloneVM, 0),
		RowsExcluded: make(map[ExclusionReason]int),
	}
	for _, r := range ranges {
		c.ByRange[r.Label] = make(map[string]int)
	}
	return c
}

// RangeTotal returns the number of rows counted in the range label.
func (c *CombinedAggregate) RangeTotal(label string) int {
	total := 0
	for _, n := range c.ByRange[label] {
		total += n
	}
	return total
}

// BucketedTotal returns the sum of all per-range, per-OS counts.
func (c *CombinedAggregate) BucketedTotal() int {
	total := 0
	for _, r := range c.Ranges {
		total += c.RangeTotal(r.Label)
	}
	return total
}

// GrandTotal returns the bucketed total plus the special OS tally.
func (c *CombinedAggregate) GrandTotal() int {
	return c.BucketedTotal() + c.SpecialCount
}

// Count returns the (label, os) counter.
func (c *CombinedAggregate) Count(label, os string) int {
	return c.ByRange[label][os]
}

// ClusterTotal sums the main cluster summary.
func (c *CombinedAggregate) ClusterTotal() ClusterStats {
	return sumStats(c.Clusters)
}

// ZeroCapacityTotal sums the zero-capacity summary.
func (c *CombinedAggregate) ZeroCapacityTotal() ClusterStats {
	return sumStats(c.ZeroCapacity)
}

// sumStats adds stats in key order so float totals are reproducible.
func sumStats(m map[string]ClusterStats) ClusterStats {
	var total ClusterStats
	for _, k := range SortedKeys(m) {
		total.Add(m[k])
	}
	return total
}

// RangeOSNames returns the OS labels of a range sorted by name.
func (c *CombinedAggregate) RangeOSNames(label string) []string {
	return SortedKeys(c.ByRange[label])
}

// ClusterNames returns the main summary cluster names sorted.
func (c *CombinedAggregate) ClusterNames() []string {
	return SortedKeys(c.Clusters)
}

// IsEmpty reports whether nothing was counted on any axis.
func (c *CombinedAggregate) IsEmpty() bool {
	return c.GrandTotal() == 0 && len(c.Clusters) == 0 && len(c.ZeroCapacity) == 0
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
