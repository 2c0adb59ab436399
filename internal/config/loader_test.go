package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad_Success(t *testing.T) {
	path := writeFile(t, "config.yaml", `
source:
  dir: /data/rvtools
filter:
  ignore_powered_off: true
  ignore_locations: ["decom", "lab"]
grouping:
  environments: [PROD, UAT]
processing:
  concurrency: 4
  file_timeout: 30s
report:
  formats: [excel, html]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Source.Dir != "/data/rvtools" {
		t.Errorf("Source.Dir = %v, want /data/rvtools", cfg.Source.Dir)
	}
	if !cfg.Filter.IgnorePoweredOff {
		t.Error("Filter.IgnorePoweredOff = false, want true")
	}
	if len(cfg.Filter.IgnoreLocations) != 2 {
		t.Errorf("Filter.IgnoreLocations = %v, want 2 entries", cfg.Filter.IgnoreLocations)
	}
	if len(cfg.Grouping.Environments) != 2 {
		t.Errorf("Grouping.Environments = %v, want 2 entries", cfg.Grouping.Environments)
	}
	if cfg.Processing.Concurrency != 4 {
		t.Errorf("Concurrency = %v, want 4", cfg.Processing.Concurrency)
	}
	if cfg.Processing.FileTimeout != 30*time.Second {
		t.Errorf("FileTimeout = %v, want 30s", cfg.Processing.FileTimeout)
	}

	// Verify defaults
	if cfg.Source.Sheet != "vInfo" {
		t.Errorf("Source.Sheet = %v, want vInfo", cfg.Source.Sheet)
	}
	if cfg.Filter.SpecialOS != "VMware Photon OS (64-bit)" {
		t.Errorf("Filter.SpecialOS = %v", cfg.Filter.SpecialOS)
	}
	if len(cfg.Capacity.Ranges) != 5 {
		t.Fatalf("Capacity.Ranges = %v, want 5 default ranges", cfg.Capacity.Ranges)
	}
	if cfg.Capacity.Ranges[1].Min != 150 || cfg.Capacity.Ranges[1].Label != "150 MB - 2 TB" {
		t.Errorf("Capacity.Ranges[1] = %+v", cfg.Capacity.Ranges[1])
	}
	if cfg.Report.Timezone != "Asia/Shanghai" {
		t.Errorf("Timezone = %v, want Asia/Shanghai", cfg.Report.Timezone)
	}
	if cfg.Location.MappingSheet != "vClusterLoc" {
		t.Errorf("MappingSheet = %v, want vClusterLoc", cfg.Location.MappingSheet)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}

	if cfg.Processing.Concurrency != DefaultConcurrency() {
		t.Errorf("Concurrency = %v, want %v", cfg.Processing.Concurrency, DefaultConcurrency())
	}
	if cfg.Processing.Concurrency > 20 {
		t.Errorf("default concurrency %d exceeds cap", cfg.Processing.Concurrency)
	}
	if cfg.Report.Name != "output" {
		t.Errorf("Report.Name = %v, want output", cfg.Report.Name)
	}
	if len(cfg.Report.Formats) != 1 || cfg.Report.Formats[0] != "excel" {
		t.Errorf("Report.Formats = %v, want [excel]", cfg.Report.Formats)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}

func TestLoad_InvalidConfig(t *testing.T) {
	path := writeFile(t, "config.yaml", `
processing:
  concurrency: 500
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() should return error for invalid config")
	}
	if _, ok := err.(ValidationErrors); !ok {
		t.Errorf("Load() error type = %T, want ValidationErrors", err)
	}
}

func TestLoad_RangesFile(t *testing.T) {
	rangesPath := writeFile(t, "ranges.yaml", `
ranges:
  - {min: 0, max: 1000, label: "small"}
  - {min: 1001, max: 5000000, label: "large"}
`)
	path := writeFile(t, "config.yaml", "capacity:\n  ranges_file: "+rangesPath+"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Capacity.Ranges) != 2 || cfg.Capacity.Ranges[1].Label != "large" {
		t.Errorf("Capacity.Ranges = %+v, want ranges from file", cfg.Capacity.Ranges)
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	path := writeFile(t, "config.yaml", `
source:
  dir: /from/file
`)

	t.Setenv("VMREPORT_SOURCE_DIR", "/from/env")
	t.Setenv("VMREPORT_PROCESSING_CONCURRENCY", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Source.Dir != "/from/env" {
		t.Errorf("Source.Dir = %v, want /from/env (env override)", cfg.Source.Dir)
	}
	if cfg.Processing.Concurrency != 3 {
		t.Errorf("Concurrency = %v, want 3 (env override)", cfg.Processing.Concurrency)
	}
}

func TestReportConfig_Location(t *testing.T) {
	r := ReportConfig{Timezone: "Asia/Shanghai"}
	if r.Location().String() != "Asia/Shanghai" {
		t.Errorf("Location() = %v, want Asia/Shanghai", r.Location())
	}

	r.Timezone = ""
	if r.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC for empty timezone", r.Location())
	}
}
