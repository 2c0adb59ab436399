package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numberRegex = regexp.MustCompile(`-?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?`)

// parseFloatOrZero reads a numeric cell, tolerating thousands separators
// and unit suffixes. Blank or unparsable cells yield 0.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	}
	match := numberRegex.FindString(s)
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseIntOrZero truncates a numeric cell. Values outside the int32 range
// yield 0.
func parseIntOrZero(s string) int {
	v := parseFloatOrZero(s)
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0
	}
	return int(v)
}

// parseBooleanValue treats the usual spreadsheet spellings of true as true.
func parseBooleanValue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "enabled":
		return true
	default:
		return false
	}
}
