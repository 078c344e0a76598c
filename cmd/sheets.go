package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rrbz/excel-insight-creator/internal/ingest"
)

var sheetsCmd = &cobra.Command{
	Use:   "sheets <file.xlsx>",
	Short: "List the worksheets of an XLSX workbook (names accepted by --sheet)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
			return fmt.Errorf("%s: %w (sheets are only listed for .xlsx)", filepath.Base(path), ingest.ErrUnsupportedFormat)
		}
		names, err := ingest.SheetNames(path)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for i, n := range names {
			fmt.Fprintf(w, "%d. %s\n", i+1, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sheetsCmd)
}
