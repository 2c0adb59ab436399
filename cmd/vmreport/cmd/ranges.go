package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"vm-inventory/internal/bucket"
	"vm-inventory/internal/config"
	"vm-inventory/internal/model"
)

// rangesCmd represents the ranges command.
var rangesCmd = &cobra.Command{
	Use:   "ranges",
	Short: "显示生效的磁盘容量区间",
	Long:  "显示配置生效后的磁盘容量区间（MB），并列出相互重叠的区间和未被覆盖的容量空隙。",
	Run:   runRanges,
}

func init() {
	rootCmd.AddCommand(rangesCmd)
}

// runRanges executes the ranges command logic.
func runRanges(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ 配置加载失败: %v\n", err)
		os.Exit(exitConfig)
	}

	printRanges(os.Stdout, cfg.Capacity.Ranges)
}

// printRanges writes the range table followed by overlaps and gaps.
func printRanges(out io.Writer, ranges []model.CapacityRange) {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tMIN (MB)\tMAX (MB)")
	for _, r := range ranges {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Label, formatMB(r.Min), formatMB(r.Max))
	}
	w.Flush()

	cls := bucket.New(ranges)

	overlaps := cls.Overlaps()
	fmt.Fprintln(out)
	if len(overlaps) == 0 {
		fmt.Fprintln(out, "✅ 区间无重叠")
	} else {
		fmt.Fprintf(out, "⚠️  重叠区间 (%d):\n", len(overlaps))
		for _, pair := range overlaps {
			fmt.Fprintf(out, "   - %s ↔ %s\n", ranges[pair[0]].Label, ranges[pair[1]].Label)
		}
	}

	gaps := cls.Gaps()
	if len(gaps) == 0 {
		fmt.Fprintln(out, "✅ 区间无空隙")
		return
	}
	fmt.Fprintf(out, "⚠️  未覆盖的容量 (%d):\n", len(gaps))
	for _, gap := range gaps {
		fmt.Fprintf(out, "   - (%s, %s) MB\n", formatMB(gap[0]), formatMB(gap[1]))
	}
}

func formatMB(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
