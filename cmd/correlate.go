package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rrbz/excel-insight-creator/internal/analysis"
	"github.com/rrbz/excel-insight-creator/internal/utils"
)

var (
	corInput   inputFlags
	corMethod  string
	corColumns []string
	corTop     int
	corJSON    bool
)

var correlateCmd = &cobra.Command{
	Use:   "correlate <file>",
	Short: "Pairwise correlation of numeric columns (pearson or spearman)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		method, err := analysis.ParseMethod(corMethod)
		if err != nil {
			return err
		}
		t, err := loadTable(args[0], corInput)
		if err != nil {
			return err
		}
		headers := corColumns
		if len(headers) == 0 {
			headers = cfg.Classifier().NumericHeaders(t)
		}
		for _, h := range headers {
			if !t.Has(h) {
				return fmt.Errorf("unknown column %q (available: %v)", h, t.Headers())
			}
		}
		if len(headers) < 2 {
			return fmt.Errorf("need at least two numeric columns, found %d", len(headers))
		}
		m := analysis.Correlate(t, headers, method)

		w := cmd.OutOrStdout()
		if corJSON {
			b, err := utils.PrettyJSON(struct {
				analysis.CorrelationMatrix
				Strongest []analysis.Correlation `json:"strongest"`
			}{m, m.Strongest(corTop)})
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(b))
			return nil
		}
		writeMatrix(w, m)
		fmt.Fprintln(w)
		pairs := m.Strongest(corTop)
		if len(pairs) == 0 {
			fmt.Fprintln(w, "No defined correlations.")
			return nil
		}
		fmt.Fprintf(w, "Strongest %s pairs:\n", method)
		for _, p := range pairs {
			fmt.Fprintf(w, "- %s ~ %s: r=%s (n=%d)\n", p.A, p.B, p.R.Format('f', 3), p.N)
		}
		return nil
	},
}

func writeMatrix(w io.Writer, m analysis.CorrelationMatrix) {
	records := make([][]string, len(m.Columns))
	for i, row := range m.Values {
		rec := make([]string, 0, len(row)+1)
		rec = append(rec, m.Columns[i])
		for _, r := range row {
			rec = append(rec, r.Format('f', 3))
		}
		records[i] = rec
	}
	headers := append([]string{string(m.Method)}, m.Columns...)
	fmt.Fprint(w, strings.TrimRight(analysis.MarkdownTable(headers, records), "\n")+"\n")
}

func init() {
	rootCmd.AddCommand(correlateCmd)
	corInput.register(correlateCmd)
	correlateCmd.Flags().StringVar(&corMethod, "method", "pearson", "pearson | spearman")
	correlateCmd.Flags().StringSliceVar(&corColumns, "columns", nil, "columns to compare (default: every numeric column)")
	correlateCmd.Flags().IntVar(&corTop, "top", analysis.MaxReportCorrelations, "number of strongest pairs to list (-1 = all)")
	correlateCmd.Flags().BoolVar(&corJSON, "json", false, "emit JSON")
}
