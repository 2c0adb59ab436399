// Package schema resolves the semantic columns of inventory worksheets whose
// headers vary slightly between exports.
package schema

import (
	"regexp"
	"strings"

	"vm-inventory/internal/model"
)

// Pattern describes how a semantic field is discovered among headers.
//
// Matching is case-insensitive and tiered: an Exact match beats a Contains
// match, which beats a Regex match. Within Contains, alternatives are tried
// in the order listed. Within a tier, the first header in column order wins.
type Pattern struct {
	Field    model.Field
	Exact    []string
	Contains []string
	Regex    *regexp.Regexp
}

// DefaultPatterns returns the discovery patterns for RVTools vInfo exports.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Field: model.FieldOSConfig, Contains: []string{"OS according to the configuration file"}},
		{Field: model.FieldOSTools, Contains: []string{"OS according to the VMware Tools"}},
		{
			Field:    model.FieldCapacity,
			Contains: []string{"Total disk capacity MiB", "Total disk capacity MB"},
			Regex:    regexp.MustCompile(`(?i)total\s+disk\s+capacity\s*\(?\s*mi?b\s*\)?\s*$`),
		},
		{Field: model.FieldCluster, Exact: []string{"Cluster"}},
		{Field: model.FieldCPU, Exact: []string{"CPUs"}},
		{Field: model.FieldMemory, Exact: []string{"Memory"}},
		{Field: model.FieldPowerState, Exact: []string{"Powerstate"}},
		{Field: model.FieldName, Exact: []string{"Name", "VM"}},
		{Field: model.FieldFolder, Exact: []string{"Folder"}},
		{Field: model.FieldTemplate, Exact: []string{"Template"}},
		{Field: model.FieldSRMPlaceholder, Exact: []string{"SRM Placeholder"}},
		{Field: model.FieldFunction, Exact: []string{"Function"}},
		{Field: model.FieldAnnotation, Exact: []string{"Annotation"}},
		{Field: model.FieldVCenter, Exact: []string{"VI SDK Server"}},
	}
}

// Resolver finds the best-matching header for each semantic field.
type Resolver struct {
	patterns map[model.Field]Pattern
	order    []model.Field
}

// NewResolver creates a Resolver from patterns. A later pattern for the
// same field replaces an earlier one.
func NewResolver(patterns []Pattern) *Resolver {
	r := &Resolver{patterns: make(map[model.Field]Pattern, len(patterns))}
	for _, p := range patterns {
		if _, seen := r.patterns[p.Field]; !seen {
			r.order = append(r.order, p.Field)
		}
		r.patterns[p.Field] = p
	}
	return r
}

// Find returns the header matching field, or false when none matches.
func (r *Resolver) Find(headers []string, field model.Field) (string, bool) {
	p, ok := r.patterns[field]
	if !ok {
		return "", false
	}

	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for _, want := range p.Exact {
		want = strings.ToLower(want)
		for i, h := range normalized {
			if h != "" && h == want {
				return headers[i], true
			}
		}
	}

	for _, want := range p.Contains {
		want = strings.ToLower(want)
		for i, h := range normalized {
			if h != "" && strings.Contains(h, want) {
				return headers[i], true
			}
		}
	}

	if p.Regex != nil {
		for i, h := range headers {
			if strings.TrimSpace(h) != "" && p.Regex.MatchString(h) {
				return headers[i], true
			}
		}
	}

	return "", false
}

// Resolve matches every known field against headers.
func (r *Resolver) Resolve(headers []string) *model.Schema {
	s := model.NewSchema()
	for _, field := range r.order {
		if h, ok := r.Find(headers, field); ok {
			s.Set(field, h)
		}
	}
	return s
}
