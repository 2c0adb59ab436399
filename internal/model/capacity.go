package model

// CapacityRange is a labeled inclusive interval of disk capacity in MB.
type CapacityRange struct {
	Min   float64 `mapstructure:"min" yaml:"min" json:"min"`
	Max   float64 `mapstructure:"max" yaml:"max" json:"max"`
	Label string  `mapstructure:"label" yaml:"label" json:"label" validate:"required,capacity_label"`
}

// Contains reports whether v lies within [Min, Max].
func (r CapacityRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Overlaps reports whether the two ranges share at least one value.
func (r CapacityRange) Overlaps(o CapacityRange) bool {
	return r.Min <= o.Max && o.Min <= r.Max
}

// DefaultCapacityRanges returns the standard bucket list.
func DefaultCapacityRanges() []CapacityRange {
	return []CapacityRange{
		{Min: 0, Max: 149, Label: "0 MB - 149 MB"},
		{Min: 150, Max: 2000000, Label: "150 MB - 2 TB"},
		{Min: 2000001, Max: 10000000, Label: "2 TB - 10 TB"},
		{Min: 10000001, Max: 20000000, Label: "10 TB - 20 TB"},
		{Min: 20000001, Max: 40000000, Label: "20 TB - 40 TB"},
	}
}

// RangeLabels returns the labels of ranges in order.
func RangeLabels(ranges []CapacityRange) []string {
	labels := make([]string, len(ranges))
	for i, r := range ranges {
		labels[i] = r.Label
	}
	return labels
}
