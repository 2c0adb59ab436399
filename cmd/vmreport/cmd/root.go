// Package cmd provides CLI commands for the VM inventory report tool.
package cmd

import (
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information, injected at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Global flags
var (
	cfgFile  string // Config file path
	logLevel string // Log level
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "vmreport",
	Short: "虚拟机资源统计工具 - 汇总 RVTools 导出的虚拟机清单",
	Long: `虚拟机资源统计工具读取目录中的 RVTools 导出文件（.xlsx/.xlsm/.csv），
按磁盘容量区间、操作系统、集群、环境和地域汇总虚拟机数量与资源，
生成 Excel、CSV、HTML 和 Parquet 格式的统计报告。

数据流: vCenter → RVTools 导出 → 本工具 → Excel/CSV/HTML/Parquet 报告

主要功能:
  - 并发读取多个导出文件，单个文件失败不影响其他文件
  - 按可配置的磁盘容量区间统计操作系统分布
  - 汇总集群的虚拟机数量、CPU、内存和磁盘
  - 按环境关键字和国家映射分组统计`,
	Version: Version,
	// Run displays help when called without any subcommands
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// init initializes the root command and its flags.
func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径（可选，未指定时使用默认配置）")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (debug, info, warn, error)，覆盖配置文件")

	// Customize version template
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// GetConfigFile returns the config file path from command line flag.
func GetConfigFile() string {
	return cfgFile
}

// GetLogLevel returns the log level from command line flag.
func GetLogLevel() string {
	return logLevel
}

// GetVersionInfo returns formatted version information.
func GetVersionInfo() string {
	return Version + "\n" +
		"Build Time: " + BuildTime + "\n" +
		"Git Commit: " + GitCommit + "\n" +
		"Go Version: " + runtime.Version() + "\n" +
		"OS/Arch: " + runtime.GOOS + "/" + runtime.GOARCH
}
