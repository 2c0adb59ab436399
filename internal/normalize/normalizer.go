// Package normalize turns raw worksheet rows into cleaned VM rows: capacity
// in MB, exclusions applied, effective OS resolved and the special OS split
// off.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"vm-inventory/internal/model"
)

// Default values for Options.
var (
	DefaultExcludedOSMarkers = []string{"Template", "SRM Placeholder", "AdditionalBackEnd"}
	DefaultSpecialOS         = "VMware Photon OS (64-bit)"
)

const poweredOff = "poweredoff"

// Options configures row filtering.
type Options struct {
	IgnoreNamePatterns []string // VM name patterns, any match excludes
	IgnoreLocations    []string // Cluster/Folder/Function/Annotation patterns
	IgnorePoweredOff   bool
	ExcludedOSMarkers  []string
	SpecialOS          string
}

// Result is the cleaned row set of one sheet.
type Result struct {
	Rows     []model.CleanedRow            // rows with an effective OS
	Special  []model.CleanedRow            // rows of the special OS
	NoOS     []model.CleanedRow            // rows with neither OS value
	Excluded map[model.ExclusionReason]int // dropped rows by reason
	Read     int                           // data rows seen
}

// Normalizer applies unit conversion and exclusion filters.
// It is safe for concurrent use.
type Normalizer struct {
	names     []*regexp.Regexp
	locations []*regexp.Regexp
	markers   []string
	special   string
	skipOff   bool
}

// New compiles the ignore patterns of opts. A pattern that is not a valid
// regular expression is matched as a literal substring.
func New(opts Options) (*Normalizer, error) {
	names, err := compilePatterns(opts.IgnoreNamePatterns)
	if err != nil {
		return nil, fmt.Errorf("ignore name patterns: %w", err)
	}
	locations, err := compilePatterns(opts.IgnoreLocations)
	if err != nil {
		return nil, fmt.Errorf("ignore location patterns: %w", err)
	}

	markers := opts.ExcludedOSMarkers
	if markers == nil {
		markers = DefaultExcludedOSMarkers
	}
	lowered := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.TrimSpace(m); m != "" {
			lowered = append(lowered, strings.ToLower(m))
		}
	}

	special := opts.SpecialOS
	if special == "" {
		special = DefaultSpecialOS
	}

	return &Normalizer{
		names:     names,
		locations: locations,
		markers:   lowered,
		special:   special,
		skipOff:   opts.IgnorePoweredOff,
	}, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			re, err = regexp.Compile("(?i)" + regexp.QuoteMeta(p))
			if err != nil {
				return nil, err
			}
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// SpecialOS returns the OS value isolated from range aggregation.
func (n *Normalizer) SpecialOS() string {
	return n.special
}

// Normalize produces the cleaned rows of sheet. The sheet is not modified.
func (n *Normalizer) Normalize(sheet *model.Sheet, schema *model.Schema) Result {
	res := Result{Excluded: make(map[model.ExclusionReason]int)}
	if sheet == nil {
		return res
	}

	unit := schema.CapacityUnit()
	hdr := func(f model.Field) string { return schema.Header(f) }

	for i, raw := range sheet.Rows {
		res.Read++

		// Step 1: unit normalization
		capacity := parseFloatOrZero(sheet.Value(raw, hdr(model.FieldCapacity)))
		if unit == model.UnitMiB {
			capacity *= model.MiBToMB
		}

		configOS := sheet.Value(raw, hdr(model.FieldOSConfig))
		toolsOS := sheet.Value(raw, hdr(model.FieldOSTools))
		effectiveOS := toolsOS
		if effectiveOS == "" {
			effectiveOS = configOS
		}

		row := model.CleanedRow{
			Row:         i + 1,
			Name:        sheet.Value(raw, hdr(model.FieldName)),
			EffectiveOS: effectiveOS,
			Cluster:     sheet.Value(raw, hdr(model.FieldCluster)),
			Folder:      sheet.Value(raw, hdr(model.FieldFolder)),
			VCenter:     model.VCenterShortName(sheet.Value(raw, hdr(model.FieldVCenter))),
			PowerState:  sheet.Value(raw, hdr(model.FieldPowerState)),
			CapacityMB:  capacity,
			CPUs:        parseIntOrZero(sheet.Value(raw, hdr(model.FieldCPU))),
			MemoryMB:    parseFloatOrZero(sheet.Value(raw, hdr(model.FieldMemory))),
		}

		// Step 2: exclusion filtering
		if reason, excluded := n.exclude(sheet, raw, schema, &row); excluded {
			res.Excluded[reason]++
			continue
		}

		// Step 3: effective OS
		if effectiveOS == "" {
			res.NoOS = append(res.NoOS, row)
			continue
		}

		// Step 4: special OS isolation
		if effectiveOS == n.special {
			row.Special = true
			res.Special = append(res.Special, row)
			continue
		}

		res.Rows = append(res.Rows, row)
	}

	return res
}

func (n *Normalizer) exclude(sheet *model.Sheet, raw model.RawRow, schema *model.Schema, row *model.CleanedRow) (model.ExclusionReason, bool) {
	if parseBooleanValue(sheet.Value(raw, schema.Header(model.FieldTemplate))) ||
		parseBooleanValue(sheet.Value(raw, schema.Header(model.FieldSRMPlaceholder))) {
		return model.ExcludedTemplate, true
	}

	if n.hasMarker(row.EffectiveOS) {
		return model.ExcludedOSMarker, true
	}

	if row.Name != "" && matchAny(n.names, row.Name) {
		return model.ExcludedName, true
	}

	if len(n.locations) > 0 {
		for _, f := range []model.Field{model.FieldCluster, model.FieldFolder, model.FieldFunction, model.FieldAnnotation} {
			if v := sheet.Value(raw, schema.Header(f)); v != "" && matchAny(n.locations, v) {
				return model.ExcludedLocation, true
			}
		}
	}

	if n.skipOff && strings.EqualFold(row.PowerState, poweredOff) {
		return model.ExcludedPoweredOff, true
	}

	return "", false
}

func (n *Normalizer) hasMarker(os string) bool {
	if os == "" {
		return false
	}
	lower := strings.ToLower(os)
	for _, m := range n.markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
