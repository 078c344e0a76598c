package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rrbz/excel-insight-creator/internal/analysis"
	"github.com/rrbz/excel-insight-creator/internal/render"
	"github.com/rrbz/excel-insight-creator/internal/utils"
)

var (
	plInput inputFlags
	plType  string
	plX     string
	plY     string
	plBins  int
	plPNG   string
	plTitle string
)

var plotCmd = &cobra.Command{
	Use:   "plot <file>",
	Short: "Draw the distribution of a numeric column (histogram) or two columns (scatter)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if plX == "" {
			return fmt.Errorf("--x is required")
		}
		if plPNG == "" {
			return fmt.Errorf("--png is required")
		}
		switch plType {
		case "histogram":
			if err := analysis.ValidateBins(plBins); err != nil {
				return err
			}
		case "scatter":
			if plY == "" {
				return fmt.Errorf("--y is required for scatter plots")
			}
		default:
			return fmt.Errorf("%w: %q (use histogram|scatter)", render.ErrUnknownType, plType)
		}
		t, err := loadTable(args[0], plInput)
		if err != nil {
			return err
		}
		for _, h := range []string{plX, plY} {
			if h != "" && !t.Has(h) {
				return fmt.Errorf("unknown column %q (available: %v)", h, t.Headers())
			}
		}

		w := cmd.OutOrStdout()
		var buf bytes.Buffer
		opt := render.ChartOptions{Title: plTitle, XLabel: plX, YLabel: plY}
		if plType == "histogram" {
			values, rejected := analysis.NumericValues(t, plX)
			if rejected > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %d non-numeric values in %s were left out\n", rejected, plX)
			}
			if opt.Title == "" {
				opt.Title = plX
			}
			opt.YLabel = ""
			bins := analysis.Histogram(values, plBins)
			if err := render.Histogram(&buf, bins, opt); err != nil {
				return err
			}
			for _, b := range bins {
				fmt.Fprintf(w, "%-24s %6d\n", b.Label(), b.Count)
			}
		} else {
			xs, ys := analysis.Paired(t, plX, plY)
			if opt.Title == "" {
				opt.Title = fmt.Sprintf("%s vs %s", plY, plX)
			}
			if err := render.Scatter(&buf, xs, ys, opt); err != nil {
				return err
			}
			fmt.Fprintf(w, "%d points (rows where both %s and %s are numbers)\n", len(xs), plX, plY)
		}
		if err := utils.SafeWriteFile(plPNG, buf.Bytes()); err != nil {
			return fmt.Errorf("write plot: %w", err)
		}
		fmt.Fprintf(w, "✓ Wrote %s to %s\n", plType, plPNG)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plInput.register(plotCmd)
	plotCmd.Flags().StringVar(&plType, "type", "histogram", "histogram | scatter")
	plotCmd.Flags().StringVar(&plX, "x", "", "column to bin (histogram) or horizontal axis (scatter)")
	plotCmd.Flags().StringVar(&plY, "y", "", "vertical axis column (scatter)")
	plotCmd.Flags().IntVar(&plBins, "bins", analysis.DefaultBins, "histogram bin count (1..100)")
	plotCmd.Flags().StringVar(&plPNG, "png", "", "output PNG path")
	plotCmd.Flags().StringVar(&plTitle, "title", "", "chart title")
}
