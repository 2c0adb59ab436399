package config

import (
	"strings"
	"testing"
	"time"

	"vm-inventory/internal/model"
)

// newValidConfig creates a valid configuration for testing.
func newValidConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Dir:          "./data",
			Extensions:   []string{".xlsx", ".csv"},
			Sheet:        "vInfo",
			ClusterSheet: "vCluster",
		},
		Filter: FilterConfig{
			ExcludedOSMarkers: []string{"Template", "SRM Placeholder", "AdditionalBackEnd"},
			SpecialOS:         "VMware Photon OS (64-bit)",
		},
		Capacity: CapacityConfig{
			Ranges: model.DefaultCapacityRanges(),
		},
		Location: LocationConfig{
			MappingSheet: "vClusterLoc",
			EDCMarkers:   []string{"dc1h1", "dc2h2"},
		},
		Processing: ProcessingConfig{
			Concurrency: 8,
			FileTimeout: 2 * time.Minute,
		},
		Report: ReportConfig{
			OutputDir:        "./output",
			Name:             "output",
			Formats:          []string{"excel", "csv"},
			FilenameTemplate: "{{.Name}}",
			Timezone:         "Asia/Shanghai",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := newValidConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Validate() error = %v, want nil for valid config", err)
	}
}

func TestValidate_ConcurrencyRange(t *testing.T) {
	tests := []struct {
		name        string
		concurrency int
		wantErr     bool
	}{
		{"zero", 0, true},
		{"one", 1, false},
		{"hundred", 100, false},
		{"too many", 101, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newValidConfig()
			cfg.Processing.Concurrency = tt.concurrency

			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "processing.concurrency") {
				t.Errorf("error should mention 'processing.concurrency', got: %s", err)
			}
		})
	}
}

func TestValidate_InvalidReportFormat(t *testing.T) {
	cfg := newValidConfig()
	cfg.Report.Formats = []string{"excel", "pdf"}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() should return error for invalid report format")
	}
	if !strings.Contains(err.Error(), "excel csv html parquet") {
		t.Errorf("error should list supported formats, got: %s", err)
	}
}

func TestValidate_AllFormats(t *testing.T) {
	cfg := newValidConfig()
	cfg.Report.Formats = []string{"excel", "csv", "html", "parquet"}

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := newValidConfig()
	cfg.Logging.Level = "trace"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() should return error for invalid log level")
	}
	if !strings.Contains(err.Error(), "logging.level") {
		t.Errorf("error should mention 'logging.level', got: %s", err)
	}
}

func TestValidate_InvalidTimezone(t *testing.T) {
	cfg := newValidConfig()
	cfg.Report.Timezone = "Invalid/Timezone"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() should return error for invalid timezone")
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "report.timezone") {
		t.Errorf("error should mention field 'report.timezone', got: %s", errStr)
	}
	if strings.Count(errStr, "report.timezone") != 1 {
		t.Errorf("timezone should be reported once, got: %s", errStr)
	}
}

func TestValidate_EmptyTimezone(t *testing.T) {
	cfg := newValidConfig()
	cfg.Report.Timezone = ""

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() should allow empty timezone, got error: %v", err)
	}
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name    string
		ranges  []model.CapacityRange
		wantErr string
	}{
		{
			name:    "no ranges",
			ranges:  nil,
			wantErr: "capacity.ranges",
		},
		{
			name:    "min greater than max",
			ranges:  []model.CapacityRange{{Min: 200, Max: 100, Label: "bad"}},
			wantErr: "must be less than or equal to max",
		},
		{
			name:    "empty label",
			ranges:  []model.CapacityRange{{Min: 0, Max: 100, Label: ""}},
			wantErr: "capacity.ranges[0].label",
		},
		{
			name:    "blank label",
			ranges:  []model.CapacityRange{{Min: 0, Max: 100, Label: "   "}},
			wantErr: "invalid range label",
		},
		{
			name: "duplicate label",
			ranges: []model.CapacityRange{
				{Min: 0, Max: 100, Label: "small"},
				{Min: 101, Max: 200, Label: "small"},
			},
			wantErr: "duplicate label",
		},
		{
			name:    "negative min",
			ranges:  []model.CapacityRange{{Min: -1, Max: 100, Label: "neg"}},
			wantErr: "capacity.ranges[0].min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newValidConfig()
			cfg.Capacity.Ranges = tt.ranges

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() should return error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should contain %q, got: %s", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_OverlapAndGapAllowed(t *testing.T) {
	cfg := newValidConfig()
	cfg.Capacity.Ranges = []model.CapacityRange{
		{Min: 0, Max: 10, Label: "a"},
		{Min: 10, Max: 20, Label: "b"},
		{Min: 50, Max: 60, Label: "c"},
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v, overlapping and gapped ranges are allowed", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := newValidConfig()
	cfg.Processing.Concurrency = 0
	cfg.Logging.Format = "xml"
	cfg.Capacity.Ranges = []model.CapacityRange{{Min: 5, Max: 1, Label: "x"}}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() should return error for multiple validation failures")
	}

	errs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("Validate() error type = %T, want ValidationErrors", err)
	}
	if len(errs) != 3 {
		t.Errorf("len(errors) = %d, want 3: %s", len(errs), err)
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Field:   "test.field",
		Tag:     "required",
		Value:   "",
		Message: "this field is required",
	}

	expected := "this field is required"
	if err.Error() != expected {
		t.Errorf("ValidationError.Error() = %v, want %v", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errors := ValidationErrors{
		{Field: "field1", Message: "error1"},
		{Field: "field2", Message: "error2"},
	}

	errStr := errors.Error()
	if !strings.Contains(errStr, "config validation failed") {
		t.Errorf("ValidationErrors.Error() should contain header, got: %s", errStr)
	}
	if !strings.Contains(errStr, "  - field1: error1") {
		t.Errorf("ValidationErrors.Error() should contain first error, got: %s", errStr)
	}
	if !strings.Contains(errStr, "  - field2: error2") {
		t.Errorf("ValidationErrors.Error() should contain second error, got: %s", errStr)
	}
}

func TestValidationErrors_Empty(t *testing.T) {
	errors := ValidationErrors{}
	if errors.Error() != "" {
		t.Errorf("Empty ValidationErrors.Error() should return empty string, got: %s", errors.Error())
	}
}
