// Package bucket assigns disk capacities to configured capacity ranges.
package bucket

import (
	"sort"

	"vm-inventory/internal/model"
)

// Classifier maps a capacity in MB to the labels of the ranges containing it.
//
// Ranges are expected to be disjoint. When they are not, a value is counted
// into every range that contains it; a value between ranges matches none.
type Classifier struct {
	ranges []model.CapacityRange
}

// New creates a Classifier over ranges, kept in the given order.
func New(ranges []model.CapacityRange) *Classifier {
	return &Classifier{ranges: append([]model.CapacityRange(nil), ranges...)}
}

// Ranges returns a copy of the configured ranges.
func (c *Classifier) Ranges() []model.CapacityRange {
	return append([]model.CapacityRange(nil), c.ranges...)
}

// Classify returns the labels of all ranges whose inclusive bounds contain
// capacityMB, in range order. An empty result means a configuration gap.
func (c *Classifier) Classify(capacityMB float64) []string {
	var labels []string
	for _, r := range c.ranges {
		if r.Contains(capacityMB) {
			labels = append(labels, r.Label)
		}
	}
	return labels
}

// Overlaps returns the index pairs of ranges sharing at least one value.
func (c *Classifier) Overlaps() [][2]int {
	var pairs [][2]int
	for i := 0; i < len(c.ranges); i++ {
		for j := i + 1; j < len(c.ranges); j++ {
			if c.ranges[i].Overlaps(c.ranges[j]) {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

// Gaps returns the open intervals not covered by any range, between the
// lowest minimum and the highest maximum. Integer-aligned boundaries such
// as 149 and 150 are reported as a gap (149, 150) since fractional values
// between them match no range.
func (c *Classifier) Gaps() [][2]float64 {
	if len(c.ranges) < 2 {
		return nil
	}

	sorted := c.Ranges()
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	var gaps [][2]float64
	covered := sorted[0].Max
	for _, r := range sorted[1:] {
		if r.Min > covered {
			gaps = append(gaps, [2]float64{covered, r.Min})
		}
		if r.Max > covered {
			covered = r.Max
		}
	}
	return gaps
}
