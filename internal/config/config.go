// Package config provides configuration management for the VM inventory report.
package config

import (
	"time"

	"vm-inventory/internal/model"
)

// Config is the root configuration structure for the VM inventory report.
type Config struct {
	Source     SourceConfig     `mapstructure:"source"`
	Filter     FilterConfig     `mapstructure:"filter"`
	Capacity   CapacityConfig   `mapstructure:"capacity"`
	Grouping   GroupingConfig   `mapstructure:"grouping"`
	Location   LocationConfig   `mapstructure:"location"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Report     ReportConfig     `mapstructure:"report"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SourceConfig describes where inventory exports are read from.
type SourceConfig struct {
	Dir          string   `mapstructure:"dir"`           // 输入目录
	Extensions   []string `mapstructure:"extensions"`    // 读取的文件扩展名
	Sheet        string   `mapstructure:"sheet"`         // 虚拟机工作表（默认 vInfo）
	ClusterSheet string   `mapstructure:"cluster_sheet"` // 集群工作表（默认 vCluster）
}

// FilterConfig contains row exclusion rules.
type FilterConfig struct {
	IgnorePoweredOff  bool     `mapstructure:"ignore_powered_off"`
	IgnoreFile        string   `mapstructure:"ignore_file"`         // 每行一个名称正则
	IgnoreLocations   []string `mapstructure:"ignore_locations"`    // Cluster/Folder/Function/Annotation 子串
	ExcludedOSMarkers []string `mapstructure:"excluded_os_markers"` // OS 中包含即排除
	SpecialOS         string   `mapstructure:"special_os"`          // 单独统计的操作系统
	SpecialLabel      string   `mapstructure:"special_label"`       // 特殊 OS 小计行标签（可选）
}

// CapacityConfig contains the disk capacity ranges.
// RangesFile, when set, replaces Ranges.
type CapacityConfig struct {
	RangesFile string                `mapstructure:"ranges_file"`
	Ranges     []model.CapacityRange `mapstructure:"ranges" validate:"required,min=1,dive"`
}

// GroupingConfig contains environment grouping keywords.
type GroupingConfig struct {
	Environments []string `mapstructure:"environments"`
}

// LocationConfig describes the country mapping workbook.
type LocationConfig struct {
	MappingFile  string   `mapstructure:"mapping_file"`
	MappingSheet string   `mapstructure:"mapping_sheet"`
	EDCMarkers   []string `mapstructure:"edc_markers"` // 集群名包含即为 EDC 站点
}

// ProcessingConfig contains worker pool settings.
type ProcessingConfig struct {
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1,lte=100"`
	FileTimeout time.Duration `mapstructure:"file_timeout"`
}

// ReportConfig contains configurations for report generation.
type ReportConfig struct {
	OutputDir        string   `mapstructure:"output_dir"`
	Name             string   `mapstructure:"name"`
	Formats          []string `mapstructure:"formats" validate:"dive,oneof=excel csv html parquet"`
	FilenameTemplate string   `mapstructure:"filename_template"`
	Timezone         string   `mapstructure:"timezone" validate:"omitempty,timezone"`
}

// MetricsConfig contains the optional Prometheus textfile output.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// LoggingConfig contains configurations for logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// Location returns the report timezone, falling back to UTC.
func (c *ReportConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
