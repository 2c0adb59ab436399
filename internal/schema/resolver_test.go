package schema

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vm-inventory/internal/model"
)

func TestResolver_Find(t *testing.T) {
	r := NewResolver(DefaultPatterns())

	tests := []struct {
		name    string
		headers []string
		field   model.Field
		want    string
		found   bool
	}{
		{
			name:    "os config substring, case-insensitive",
			headers: []string{"Name", "os ACCORDING to the configuration file"},
			field:   model.FieldOSConfig,
			want:    "os ACCORDING to the configuration file",
			found:   true,
		},
		{
			name:    "first matching column wins",
			headers: []string{"OS according to the configuration file (old)", "OS according to the configuration file"},
			field:   model.FieldOSConfig,
			want:    "OS according to the configuration file (old)",
			found:   true,
		},
		{
			name:    "capacity MiB preferred over MB regardless of order",
			headers: []string{"Total disk capacity MB", "Total disk capacity MiB"},
			field:   model.FieldCapacity,
			want:    "Total disk capacity MiB",
			found:   true,
		},
		{
			name:    "capacity MB",
			headers: []string{"Name", "Total disk capacity MB"},
			field:   model.FieldCapacity,
			want:    "Total disk capacity MB",
			found:   true,
		},
		{
			name:    "capacity regex fallback",
			headers: []string{"Total  Disk Capacity (MiB)"},
			field:   model.FieldCapacity,
			want:    "Total  Disk Capacity (MiB)",
			found:   true,
		},
		{
			name:    "capacity in other units is not resolved",
			headers: []string{"Total disk capacity GB", "Total  Disk Capacity (GiB)"},
			field:   model.FieldCapacity,
			found:   false,
		},
		{
			name:    "exact cluster does not match substring",
			headers: []string{"Cluster rule(s)", "Cluster"},
			field:   model.FieldCluster,
			want:    "Cluster",
			found:   true,
		},
		{
			name:    "exact match ignores surrounding space and case",
			headers: []string{" cpus "},
			field:   model.FieldCPU,
			want:    " cpus ",
			found:   true,
		},
		{
			name:    "absent",
			headers: []string{"Name", "Cluster"},
			field:   model.FieldOSTools,
			found:   false,
		},
		{
			name:    "empty headers",
			headers: nil,
			field:   model.FieldName,
			found:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Find(tt.headers, tt.field)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	headers := []string{
		"VM", "Powerstate", "Template", "SRM Placeholder", "CPUs", "Memory",
		"Total disk capacity MiB", "Folder", "Cluster",
		"OS according to the configuration file", "OS according to the VMware Tools",
		"VI SDK Server",
	}

	s := NewResolver(DefaultPatterns()).Resolve(headers)

	require.NotNil(t, s)
	assert.Equal(t, "VM", s.Header(model.FieldName))
	assert.Equal(t, "Total disk capacity MiB", s.Header(model.FieldCapacity))
	assert.Equal(t, model.UnitMiB, s.CapacityUnit())
	assert.Equal(t, "VI SDK Server", s.Header(model.FieldVCenter))
	assert.False(t, s.Has(model.FieldFunction))
	assert.Empty(t, s.Missing(model.AxisOSCapacity))
	assert.Empty(t, s.Missing(model.AxisCluster))
}

func TestResolver_Deterministic(t *testing.T) {
	headers := []string{"Total disk capacity MB", "total disk capacity mib", "Name"}
	r := NewResolver(DefaultPatterns())

	first := r.Resolve(headers).Header(model.FieldCapacity)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, r.Resolve(headers).Header(model.FieldCapacity))
	}
	assert.Equal(t, "total disk capacity mib", first)
}

func TestNewResolver_OverridePattern(t *testing.T) {
	patterns := append(DefaultPatterns(), Pattern{
		Field: model.FieldCluster,
		Regex: regexp.MustCompile(`(?i)^vcluster$`),
	})
	r := NewResolver(patterns)

	got, ok := r.Find([]string{"Cluster", "vCluster"}, model.FieldCluster)
	assert.True(t, ok)
	assert.Equal(t, "vCluster", got)
}
