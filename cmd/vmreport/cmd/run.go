// Package cmd implements CLI commands for the VM inventory report tool.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"vm-inventory/internal/bucket"
	"vm-inventory/internal/config"
	"vm-inventory/internal/metrics"
	"vm-inventory/internal/model"
	"vm-inventory/internal/report"
	"vm-inventory/internal/report/table"
	"vm-inventory/internal/service"
)

// Exit codes
const (
	exitOK         = 0
	exitConfig     = 1 // 配置无效或输出目录无法创建
	exitAllSkipped = 2 // 所有文件均被跳过
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "执行虚拟机资源统计",
	Long: `执行完整的统计流程，包括：
1. 扫描输入目录中的 RVTools 导出文件
2. 并发读取每个文件的 vInfo 和 vCluster 工作表
3. 按列名模式识别字段，清洗并过滤虚拟机记录
4. 按磁盘容量区间、操作系统、集群、环境和地域汇总
5. 生成 Excel/CSV/HTML/Parquet 格式的统计报告

单个文件读取失败只会跳过该文件，不影响其他文件。`,
	Example: `  # 使用默认配置统计 ./data 目录
  vmreport run

  # 指定输入输出目录和报告名称
  vmreport run -s /data/rvtools -d ./output -n inventory

  # 忽略关机虚拟机，按环境关键字分组，同时生成 Excel 和 HTML
  vmreport run --ignore-powered-off --group-by PROD,UAT,DEV -f excel,html

  # 使用配置文件并导出 Prometheus 指标
  vmreport run -c config.yaml --metrics-file /var/lib/node_exporter/vmreport.prom`,
	Run: runReport,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd.Flags())
}

// addRunFlags registers the run flags on fs.
func addRunFlags(fs *pflag.FlagSet) {
	fs.StringP("src", "s", "", "输入目录（覆盖配置文件）")
	fs.StringP("dst", "d", "", "报告输出目录（覆盖配置文件）")
	fs.StringP("name", "n", "", "报告名称（覆盖配置文件）")
	fs.String("ignore-file", "", "虚拟机名称忽略列表文件，每行一个正则")
	fs.StringSlice("ignore-vm", nil, "按集群/文件夹/功能/备注忽略虚拟机（逗号分隔）")
	fs.Bool("ignore-powered-off", false, "忽略关机状态的虚拟机")
	fs.StringSlice("group-by", nil, "环境分组关键字（逗号分隔）")
	fs.String("mapping-file", "", "国家/vCenter/集群映射文件")
	fs.StringSliceP("format", "f", nil, "输出格式: excel, csv, html, parquet（逗号分隔）")
	fs.Int("concurrency", 0, "并发处理的文件数")
	fs.String("metrics-file", "", "Prometheus textfile 指标输出路径")
}

// applyFlags copies every flag set on the command line into cfg.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	stringTargets := map[string]*string{
		"src":          &cfg.Source.Dir,
		"dst":          &cfg.Report.OutputDir,
		"name":         &cfg.Report.Name,
		"ignore-file":  &cfg.Filter.IgnoreFile,
		"mapping-file": &cfg.Location.MappingFile,
		"metrics-file": &cfg.Metrics.Textfile,
	}
	for name, target := range stringTargets {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*target = v
	}

	sliceTargets := map[string]*[]string{
		"ignore-vm": &cfg.Filter.IgnoreLocations,
		"group-by":  &cfg.Grouping.Environments,
		"format":    &cfg.Report.Formats,
	}
	for name, target := range sliceTargets {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetStringSlice(name)
		if err != nil {
			return err
		}
		*target = v
	}

	if fs.Changed("ignore-powered-off") {
		v, err := fs.GetBool("ignore-powered-off")
		if err != nil {
			return err
		}
		cfg.Filter.IgnorePoweredOff = v
	}

	if fs.Changed("concurrency") {
		v, err := fs.GetInt("concurrency")
		if err != nil {
			return err
		}
		cfg.Processing.Concurrency = v
	}

	cfg.Report.Formats = resolveFormats(cfg.Report.Formats)
	return nil
}

// runReport executes the run command logic.
func runReport(cmd *cobra.Command, args []string) {
	printBanner()

	// Step 1: Load configuration
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		tmpLogger := setupLogger("error", "console")
		tmpLogger.Error().Err(err).Str("config", GetConfigFile()).Msg("failed to load configuration")
		fmt.Fprintf(os.Stderr, "❌ 配置加载失败: %v\n", err)
		os.Exit(exitConfig)
	}

	// Step 2: Apply command line overrides and validate again
	if err := applyFlags(cmd.Flags(), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "❌ 参数解析失败: %v\n", err)
		os.Exit(exitConfig)
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "❌ 配置验证失败: %v\n", err)
		os.Exit(exitConfig)
	}

	// Command line log level overrides config
	level := cfg.Logging.Level
	if GetLogLevel() != "" {
		level = GetLogLevel()
	}
	logger := setupLogger(level, cfg.Logging.Format)

	logger.Info().
		Str("version", Version).
		Str("source_dir", cfg.Source.Dir).
		Str("output_dir", cfg.Report.OutputDir).
		Strs("formats", cfg.Report.Formats).
		Msg("vm inventory report starting")

	warnRanges(cfg.Capacity.Ranges, logger)

	// Step 3: Load the country mapping
	var countries model.LocationMapping
	if cfg.Location.MappingFile != "" {
		countries, err = config.LoadLocationMapping(cfg.Location.MappingFile, cfg.Location.MappingSheet)
		if err != nil {
			logger.Error().Err(err).Str("mapping_file", cfg.Location.MappingFile).Msg("failed to load location mapping")
			fmt.Fprintf(os.Stderr, "❌ 映射文件加载失败: %v\n", err)
			os.Exit(exitConfig)
		}
		logger.Info().Int("entries", len(countries)).Msg("location mapping loaded")
	}

	// Step 4: Prepare output directory
	if err := os.MkdirAll(cfg.Report.OutputDir, 0o755); err != nil {
		logger.Error().Err(err).Str("output_dir", cfg.Report.OutputDir).Msg("failed to create output directory")
		fmt.Fprintf(os.Stderr, "❌ 无法创建输出目录: %v\n", err)
		os.Exit(exitConfig)
	}

	// Step 5: Create processor and runner
	recorder := metrics.NewRecorder()

	proc, err := service.NewProcessorFromConfig(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create file processor")
		fmt.Fprintf(os.Stderr, "❌ 初始化失败: %v\n", err)
		os.Exit(exitConfig)
	}

	runner, err := service.NewRunner(cfg, proc, logger,
		service.WithVersion(Version),
		service.WithMetrics(recorder),
	)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create runner")
		fmt.Fprintf(os.Stderr, "❌ 初始化失败: %v\n", err)
		os.Exit(exitConfig)
	}

	// Step 6: Execute run, canceled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("📂 正在读取: %s\n", cfg.Source.Dir)
	result, err := runner.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("run failed")
		fmt.Fprintf(os.Stderr, "❌ 统计失败: %v\n", err)
		os.Exit(exitConfig)
	}

	printSummary(result)

	// Step 7: Generate reports
	tables := table.Assemble(result, tableOptions(cfg, countries))

	registry := report.NewRegistry(runner.Timezone())
	filenameBase := generateFilename(cfg.Report.FilenameTemplate, cfg.Report.Name, runner.Timezone())

	fmt.Println()
	fmt.Println("📝 生成报告:")
	exitCode := exitOK
	for _, format := range cfg.Report.Formats {
		sink, err := registry.Get(format)
		if err != nil {
			logger.Error().Err(err).Str("format", format).Msg("unsupported report format")
			fmt.Printf("   ❌ %s: %v\n", format, err)
			exitCode = exitConfig
			continue
		}

		outputPath := filepath.Join(cfg.Report.OutputDir, filenameBase)
		written, err := sink.Write(result, tables, outputPath)
		if err != nil {
			logger.Error().Err(err).Str("format", format).Msg("failed to write report")
			fmt.Printf("   ❌ %s: %v\n", format, err)
			exitCode = exitConfig
			continue
		}

		logger.Info().Str("format", format).Str("path", written).Msg("report written")
		fmt.Printf("   ✅ %s\n", written)
	}

	// Step 8: Export metrics
	if cfg.Metrics.Textfile != "" {
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn().Err(err).Str("path", cfg.Metrics.Textfile).Msg("failed to write metrics textfile")
		} else {
			fmt.Printf("   ✅ %s\n", cfg.Metrics.Textfile)
		}
	}

	if exitCode == exitOK && result.AllFailed() {
		fmt.Fprintln(os.Stderr, "⚠️  所有文件均被跳过，报告为空")
		exitCode = exitAllSkipped
	}

	if exitCode != exitOK {
		stop()
		os.Exit(exitCode)
	}
}

// tableOptions maps the configuration onto the table assembly options.
func tableOptions(cfg *config.Config, countries model.LocationMapping) table.Options {
	return table.Options{
		SpecialLabel: cfg.Filter.SpecialLabel,
		SpecialOS:    cfg.Filter.SpecialOS,
		Environments: cfg.Grouping.Environments,
		Countries:    countries,
		EDCMarkers:   cfg.Location.EDCMarkers,
	}
}

// warnRanges logs overlapping capacity ranges at warn level and uncovered
// intervals at debug level.
func warnRanges(ranges []model.CapacityRange, logger zerolog.Logger) {
	cls := bucket.New(ranges)
	for _, pair := range cls.Overlaps() {
		logger.Warn().
			Str("range_a", ranges[pair[0]].Label).
			Str("range_b", ranges[pair[1]].Label).
			Msg("capacity ranges overlap, matching VMs are counted in both")
	}
	for _, gap := range cls.Gaps() {
		logger.Debug().
			Float64("from_mb", gap[0]).
			Float64("to_mb", gap[1]).
			Msg("capacity gap not covered by any range")
	}
}

// setupLogger creates a zerolog logger with the specified level and format.
// Supports "json" for structured output and "console" for human-readable output.
func setupLogger(level string, format string) zerolog.Logger {
	// Set log level
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	// Load Asia/Shanghai timezone for log timestamps
	tz, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		tz = time.Local
	}

	zerolog.TimestampFunc = func() time.Time {
		return time.Now().In(tz)
	}

	var output io.Writer
	if format == "json" {
		output = os.Stderr
	} else {
		output = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
			NoColor:    false,
		}
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// printBanner prints the application banner.
func printBanner() {
	fmt.Printf("📊 虚拟机资源统计工具 %s\n", Version)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

// printSummary prints the file and row counts of the run.
func printSummary(result *model.RunReport) {
	s := result.Summary
	if s == nil {
		return
	}

	fmt.Println()
	fmt.Println("📋 统计摘要:")
	fmt.Printf("   文件总数: %d (成功 %d, 部分 %d, 跳过 %d)\n",
		s.FilesTotal, s.FilesProcessed, s.FilesPartial, s.FilesSkipped)
	fmt.Printf("   读取行数: %d, 计入统计: %d, 排除: %d\n", s.RowsRead, s.RowsCounted, s.RowsExcluded)
	if s.GapRows > 0 {
		fmt.Printf("   ⚠️  未匹配容量区间: %d\n", s.GapRows)
	}
	if result.Aggregate != nil {
		fmt.Printf("   虚拟机总数: %d\n", result.Aggregate.GrandTotal())
	}

	skipped := result.SkippedFiles()
	if len(skipped) > 0 {
		fmt.Println()
		fmt.Println("⏭️  跳过的文件:")
		for _, f := range skipped {
			fmt.Printf("   - %s: %s\n", filepath.Base(f.Path), f.Reason)
		}
	}
}

// resolveFormats lower-cases and de-duplicates formats, keeping their order.
// An empty list falls back to excel.
func resolveFormats(formats []string) []string {
	seen := make(map[string]bool, len(formats))
	resolved := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		resolved = append(resolved, f)
	}
	if len(resolved) == 0 {
		return []string{"excel"}
	}
	return resolved
}

// generateFilename creates a filename from the template.
// Supports {{.Name}} for the report name and {{.Date}} for the current date.
func generateFilename(template, name string, tz *time.Location) string {
	if template == "" {
		template = "{{.Name}}"
	}
	if name == "" {
		name = "output"
	}
	if tz == nil {
		tz = time.UTC
	}

	// Get current date in the configured timezone
	dateStr := time.Now().In(tz).Format("2006-01-02")

	// Replace placeholders
	filename := strings.ReplaceAll(template, "{{.Date}}", dateStr)
	filename = strings.ReplaceAll(filename, "{{ .Date }}", dateStr)
	filename = strings.ReplaceAll(filename, "{{.Name}}", name)
	filename = strings.ReplaceAll(filename, "{{ .Name }}", name)

	return filename
}
