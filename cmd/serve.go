package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rrbz/excel-insight-creator/internal/server"
	"github.com/rrbz/excel-insight-creator/internal/workspace"
)

var (
	srvInput inputFlags
	srvAddr  string
	srvFile  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload, table and chart API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := srvAddr
		if addr == "" {
			addr = cfg.ServeAddr
		}
		ws := workspace.New()
		if srvFile != "" {
			t, err := loadTable(srvFile, srvInput)
			if err != nil {
				return fmt.Errorf("preload %s: %w", srvFile, err)
			}
			snap, err := ws.Replace(t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Loaded %s (%d rows)\n", snap.Name, t.Len())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", addr)
		return server.New(cfg, ws, logger).ListenAndServe(cmd.Context(), addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	srvInput.register(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default: config serve_addr)")
	serveCmd.Flags().StringVar(&srvFile, "file", "", "dataset to load before serving")
}
