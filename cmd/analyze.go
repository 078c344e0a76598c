package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rrbz/excel-insight-creator/internal/analysis"
	"github.com/rrbz/excel-insight-creator/internal/utils"
)

var (
	anaInput      inputFlags
	anaOutputPath string
	anaSampleRows int
	anaJSON       bool
	anaExtended   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Profile a CSV/TSV/XLSX file: column kinds and summary statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		t, err := loadTable(path, anaInput)
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		opt.Classifier = cfg.Classifier()
		opt.SampleRows = anaSampleRows
		opt.Extended = anaExtended
		if anaSampleRows == 0 {
			opt.SampleRows = -1
		}
		rep, err := analysis.Profile(cmd.Context(), t, opt)
		if err != nil {
			return err
		}

		var out []byte
		if anaJSON {
			if out, err = utils.PrettyJSON(rep); err != nil {
				return err
			}
		} else {
			out = []byte(rep.Markdown())
		}

		w := cmd.OutOrStdout()
		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(w, "✓ Wrote analysis to %s\n", anaOutputPath)
		} else {
			fmt.Fprintln(w, string(out))
		}
		for _, warn := range rep.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s\n", warn)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaInput.register(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write analysis")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include (0 disables)")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "emit JSON instead of Markdown")
	analyzeCmd.Flags().BoolVar(&anaExtended, "extended", false, "add distribution and text statistics per column plus correlations")
}
