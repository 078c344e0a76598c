package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rrbz/excel-insight-creator/internal/analysis"
	"github.com/rrbz/excel-insight-creator/internal/utils"
)

var (
	rowsInput    inputFlags
	rowsQuery    string
	rowsColumn   string
	rowsPage     int
	rowsPageSize int
	rowsJSON     bool
)

var rowsCmd = &cobra.Command{
	Use:   "rows <file>",
	Short: "Search rows case-insensitively and print one page of results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(args[0], rowsInput)
		if err != nil {
			return err
		}
		size := rowsPageSize
		if size <= 0 {
			size = cfg.PageSize
		}
		page := analysis.Paginate(analysis.Filter(t, rowsQuery, rowsColumn), rowsPage, size)

		w := cmd.OutOrStdout()
		if rowsJSON {
			b, err := utils.PrettyJSON(page)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(b))
			return nil
		}
		if page.TotalRows == 0 {
			fmt.Fprintln(w, "No matching rows.")
			return nil
		}
		fmt.Fprint(w, analysis.MarkdownTable(page.Headers, page.Table.Strings(-1)))
		fmt.Fprintf(w, "\nPage %d/%d (rows %d-%d of %d)\n", page.Number, page.TotalPages, page.Start+1, page.End, page.TotalRows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rowsCmd)
	rowsInput.register(rowsCmd)
	rowsCmd.Flags().StringVarP(&rowsQuery, "query", "q", "", "case-insensitive substring to search for")
	rowsCmd.Flags().StringVarP(&rowsColumn, "column", "c", "", "restrict the search to one column")
	rowsCmd.Flags().IntVar(&rowsPage, "page", 1, "1-based page number (clamped)")
	rowsCmd.Flags().IntVar(&rowsPageSize, "page-size", 0, "rows per page (0 = config page_size)")
	rowsCmd.Flags().BoolVar(&rowsJSON, "json", false, "emit JSON")
}
