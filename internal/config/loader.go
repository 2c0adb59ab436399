package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"vm-inventory/internal/model"
)

// maxDefaultConcurrency caps the CPU-derived default worker count.
const maxDefaultConcurrency = 20

// Load reads configuration from the specified YAML file and environment variables.
// Environment variables take precedence over file values.
// Environment variable format: VMREPORT_<SECTION>_<KEY> (e.g., VMREPORT_SOURCE_DIR)
// An empty configPath uses defaults and environment variables only.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults first
	setDefaults(v)

	// Configure environment variable binding
	v.SetEnvPrefix("VMREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Capacity.RangesFile != "" {
		ranges, err := LoadRanges(cfg.Capacity.RangesFile)
		if err != nil {
			return nil, err
		}
		cfg.Capacity.Ranges = ranges
	}

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultConcurrency returns runtime.NumCPU capped at 20.
func DefaultConcurrency() int {
	return min(runtime.NumCPU(), maxDefaultConcurrency)
}

// setDefaults sets default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Source defaults
	v.SetDefault("source.dir", "./data")
	v.SetDefault("source.extensions", []string{".xlsx", ".xlsm", ".csv"})
	v.SetDefault("source.sheet", "vInfo")
	v.SetDefault("source.cluster_sheet", "vCluster")

	// Filter defaults
	v.SetDefault("filter.ignore_powered_off", false)
	v.SetDefault("filter.excluded_os_markers", []string{"Template", "SRM Placeholder", "AdditionalBackEnd"})
	v.SetDefault("filter.special_os", "VMware Photon OS (64-bit)")
	v.SetDefault("filter.special_label", "")

	// Capacity defaults
	ranges := make([]map[string]any, 0, 5)
	for _, r := range model.DefaultCapacityRanges() {
		ranges = append(ranges, map[string]any{"min": r.Min, "max": r.Max, "label": r.Label})
	}
	v.SetDefault("capacity.ranges", ranges)

	// Location defaults
	v.SetDefault("location.mapping_sheet", "vClusterLoc")
	v.SetDefault("location.edc_markers", []string{"dc1h1", "dc2h2"})

	// Processing defaults
	v.SetDefault("processing.concurrency", DefaultConcurrency())
	v.SetDefault("processing.file_timeout", 2*time.Minute)

	// Report defaults
	v.SetDefault("report.output_dir", "./output")
	v.SetDefault("report.name", "output")
	v.SetDefault("report.formats", []string{"excel"})
	v.SetDefault("report.filename_template", "{{.Name}}")
	v.SetDefault("report.timezone", "Asia/Shanghai")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}
