// Package aggregate builds per-file partial aggregates from cleaned rows and
// merges them into the combined aggregate of a run.
package aggregate

import (
	"sort"
	"strconv"
	"strings"

	"vm-inventory/internal/bucket"
	"vm-inventory/internal/model"
	"vm-inventory/internal/normalize"
)

// UnknownEnvironment is assigned to clusters matching no group-by keyword.
const UnknownEnvironment = "UNKNOWN"

// BuildOptions controls which axes a partial aggregate covers.
type BuildOptions struct {
	Path         string   // source file, used in warnings
	OSCapacity   bool     // OS x capacity range axis enabled
	Cluster      bool     // cluster axis enabled
	Environments []string // group-by keywords; empty disables the axis
}

// Build aggregates the cleaned rows of one file.
// It returns the partial aggregate and one ConfigurationGapWarning per row
// whose capacity falls outside every configured range.
func Build(res normalize.Result, cls *bucket.Classifier, opts BuildOptions) (*model.PartialAggregate, []error) {
	p := model.NewPartialAggregate()
	p.RowsRead = res.Read
	p.RowsNoOS = len(res.NoOS)
	for reason, n := range res.Excluded {
		p.RowsExcluded[reason] = n
	}

	var warnings []error

	if opts.OSCapacity {
		for i := range res.Rows {
			row := &res.Rows[i]
			p.OSTotals[row.EffectiveOS]++

			labels := cls.Classify(row.CapacityMB)
			if len(labels) == 0 {
				p.RowsGap++
				warnings = append(warnings, &model.ConfigurationGapWarning{
					Path:       opts.Path,
					Row:        row.Row,
					CapacityMB: row.CapacityMB,
				})
			}
			for _, label := range labels {
				p.CountRange(label, row.EffectiveOS)
			}

			if len(opts.Environments) > 0 {
				env := Environment(row.Cluster, opts.Environments)
				m, ok := p.Environments[env]
				if !ok {
					m = make(map[string]int)
					p.Environments[env] = m
				}
				m[row.EffectiveOS]++
			}
		}

		for _, row := range res.Special {
			p.SpecialCount++
			p.SpecialByOS[row.EffectiveOS]++
		}
	}

	if opts.Cluster {
		for _, set := range [][]model.CleanedRow{res.Rows, res.NoOS} {
			for i := range set {
				addClusterRow(p, &set[i])
			}
		}
	}

	return p, warnings
}

// addClusterRow accumulates a non-special row into the cluster and location
// summaries. Zero-capacity rows go to the secondary summary only.
func addClusterRow(p *model.PartialAggregate, row *model.CleanedRow) {
	name := row.ClusterName()
	if row.CapacityMB == 0 {
		s := p.ZeroCapacity[name]
		s.AddRow(row)
		p.ZeroCapacity[name] = s
	} else {
		s := p.Clusters[name]
		s.AddRow(row)
		p.Clusters[name] = s
	}

	key := model.LocationKey{VCenter: row.VCenter, VCluster: model.VClusterKey(row.Cluster)}
	if key.VCenter == "" {
		key.VCenter = "Unknown"
	}
	loc := p.Locations[key]
	loc.AddRow(row)
	p.Locations[key] = loc

	if strings.TrimSpace(row.Cluster) == "" {
		p.Standalone = append(p.Standalone, model.StandaloneVM{VCenter: key.VCenter, Name: row.Name})
	}
}

// HostCounts sums NumHosts per cluster from a vCluster sheet. Cluster names
// are normalized with model.VClusterKey.
func HostCounts(sheet *model.Sheet) map[string]int {
	counts := make(map[string]int)
	if sheet == nil {
		return counts
	}
	nameCol, hostsCol := headerIndex(sheet, "Name"), headerIndex(sheet, "NumHosts")
	if nameCol < 0 || hostsCol < 0 {
		return counts
	}
	for _, row := range sheet.Rows {
		if nameCol >= len(row) || hostsCol >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[nameCol])
		if name == "" {
			continue
		}
		n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(row[hostsCol]), ",", ""))
		if err != nil {
			continue
		}
		counts[model.VClusterKey(name)] += n
	}
	return counts
}

func headerIndex(sheet *model.Sheet, name string) int {
	for i, h := range sheet.Headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// Environment returns the first keyword contained in cluster, compared in
// upper case, or UnknownEnvironment.
func Environment(cluster string, keywords []string) string {
	upper := strings.ToUpper(cluster)
	for _, k := range keywords {
		k = strings.ToUpper(strings.TrimSpace(k))
		if k != "" && strings.Contains(upper, k) {
			return k
		}
	}
	return UnknownEnvironment
}

// Merge sums partial aggregates into a combined aggregate. Every key is
// accumulated, never overwritten. Integer counts are independent of the
// order of partials; callers wanting bit-identical float sums pass partials
// in a stable order.
func Merge(ranges []model.CapacityRange, partials ...*model.PartialAggregate) *model.CombinedAggregate {
	c := model.NewCombinedAggregate(ranges)

	for _, p := range partials {
		if p == nil {
			continue
		}

		for label, byOS := range p.ByRange {
			dst, ok := c.ByRange[label]
			if !ok {
				dst = make(map[string]int)
				c.ByRange[label] = dst
			}
			for os, n := range byOS {
				dst[os] += n
			}
		}

		c.SpecialCount += p.SpecialCount
		addCounts(c.SpecialByOS, p.SpecialByOS)
		addCounts(c.OSTotals, p.OSTotals)
		addStats(c.Clusters, p.Clusters)
		addStats(c.ZeroCapacity, p.ZeroCapacity)
		addCounts(c.HostCounts, p.HostCounts)

		for env, byOS := range p.Environments {
			dst, ok := c.Environments[env]
			if !ok {
				dst = make(map[string]int)
				c.Environments[env] = dst
			}
			addCounts(dst, byOS)
		}

		for key, s := range p.Locations {
			loc := c.Locations[key]
			loc.Add(s)
			c.Locations[key] = loc
		}

		c.Standalone = append(c.Standalone, p.Standalone...)

		c.RowsRead += p.RowsRead
		c.RowsGap += p.RowsGap
		c.RowsNoOS += p.RowsNoOS
		for reason, n := range p.RowsExcluded {
			c.RowsExcluded[reason] += n
		}
	}

	sort.SliceStable(c.Standalone, func(i, j int) bool {
		if c.Standalone[i].VCenter != c.Standalone[j].VCenter {
			return c.Standalone[i].VCenter < c.Standalone[j].VCenter
		}
		return c.Standalone[i].Name < c.Standalone[j].Name
	})

	return c
}

func addCounts(dst, src map[string]int) {
	for k, n := range src {
		dst[k] += n
	}
}

func addStats(dst, src map[string]model.ClusterStats) {
	for k, s := range src {
		cur := dst[k]
		cur.Add(s)
		dst[k] = cur
	}
}
