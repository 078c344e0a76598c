package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rrbz/excel-insight-creator/internal/analysis"
	"github.com/rrbz/excel-insight-creator/internal/render"
	"github.com/rrbz/excel-insight-creator/internal/utils"
)

var (
	chInput    inputFlags
	chCategory string
	chValue    string
	chCap      int
	chStrict   bool
	chPNG      string
	chType     string
	chTitle    string
	chJSON     bool
)

var chartCmd = &cobra.Command{
	Use:   "chart <file>",
	Short: "Group rows by a category column and rank categories by summed value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if chCategory == "" || chValue == "" {
			return fmt.Errorf("--category and --value are required")
		}
		limit := chCap
		if limit == 0 {
			limit = cfg.DefaultCap
		}
		if err := analysis.ValidateCap(limit); err != nil {
			return err
		}
		typ, err := render.ParseType(chType)
		if err != nil {
			return err
		}
		t, err := loadTable(args[0], chInput)
		if err != nil {
			return err
		}
		for _, h := range []string{chCategory, chValue} {
			if !t.Has(h) {
				return fmt.Errorf("unknown column %q (available: %v)", h, t.Headers())
			}
		}

		agg := cfg.Aggregator()
		if chStrict {
			agg.Policy = analysis.SkipOnCoercionFailure
		}
		kind := agg.ValueKind(t, chValue)
		res := agg.Aggregate(t, chCategory, chValue, limit)
		summary := analysis.Summarize(res)

		w := cmd.OutOrStdout()
		if kind != analysis.Numeric {
			numeric := "none"
			if hs := cfg.Classifier().NumericHeaders(t); len(hs) > 0 {
				numeric = strings.Join(hs, ", ")
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: column %s is not numeric; non-numeric values are %s (numeric columns: %s)\n",
				chValue, policyNote(agg.Policy), numeric)
		}
		if chJSON {
			b, err := utils.PrettyJSON(struct {
				analysis.AggregationResult
				Summary   analysis.SeriesSummary `json:"summary"`
				ValueKind analysis.Kind          `json:"value_kind"`
			}{res, summary, kind})
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(b))
		} else {
			writeRanking(w, res, summary)
		}

		if chPNG != "" {
			var buf bytes.Buffer
			opt := render.ChartOptions{Type: typ, Title: chTitle, XLabel: chCategory, YLabel: chValue}
			if err := render.Chart(&buf, res, opt); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(chPNG, buf.Bytes()); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}
			fmt.Fprintf(w, "✓ Wrote %s chart to %s\n", typ, chPNG)
		}
		return nil
	},
}

func policyNote(p analysis.CoercionPolicy) string {
	if p == analysis.SkipOnCoercionFailure {
		return "skipped"
	}
	return "counted as zero"
}

func writeRanking(w io.Writer, res analysis.AggregationResult, s analysis.SeriesSummary) {
	if len(res.Points) == 0 {
		fmt.Fprintln(w, "No data to chart.")
		return
	}
	fmt.Fprintf(w, "%s by %s (top %d of %d)\n", res.Value, res.Category, len(res.Points), res.Groups)
	for i, p := range res.Points {
		fmt.Fprintf(w, "%3d. %-30s %12.2f  (%d rows)\n", i+1, p.Category, p.Sum, p.Count)
	}
	fmt.Fprintf(w, "Summary: points=%d max=%s min=%s mean=%s\n",
		s.Points, s.Max.Format('f', 2), s.Min.Format('f', 2), s.Mean.Format('f', 2))
	if res.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d non-numeric values\n", res.Skipped)
	}
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chInput.register(chartCmd)
	chartCmd.Flags().StringVar(&chCategory, "category", "", "column to group by")
	chartCmd.Flags().StringVar(&chValue, "value", "", "column to sum")
	chartCmd.Flags().IntVar(&chCap, "cap", 0, "number of categories to show: 10, 20, 50 or 100 (0 = config default_cap)")
	chartCmd.Flags().BoolVar(&chStrict, "strict", false, "skip non-numeric values instead of counting them as zero")
	chartCmd.Flags().StringVar(&chPNG, "png", "", "also render the chart as a PNG to this path")
	chartCmd.Flags().StringVar(&chType, "type", "bar", "chart type for --png: bar | line | area | pie")
	chartCmd.Flags().StringVar(&chTitle, "title", "", "chart title for --png")
	chartCmd.Flags().BoolVar(&chJSON, "json", false, "emit JSON")
}
