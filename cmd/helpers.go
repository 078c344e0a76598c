package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rrbz/excel-insight-creator/internal/ingest"
	"github.com/rrbz/excel-insight-creator/internal/table"
)

// inputFlags are the decoding flags shared by every command that reads a file.
type inputFlags struct {
	sheet     string
	delimiter string
}

func (f *inputFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.sheet, "sheet", "", "XLSX: sheet name, as listed by 'insight sheets' (default: config value or first sheet)")
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default from extension)")
}

func (f inputFlags) options() (ingest.Options, error) {
	opt := cfg.IngestOptions()
	if f.sheet != "" {
		opt.Sheet = f.sheet
	}
	switch f.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	return opt, nil
}

// loadTable decodes path with the configured limits and the command's flags.
func loadTable(path string, in inputFlags) (*table.Table, error) {
	opt, err := in.options()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	t, err := ingest.DecodeFile(path, opt)
	if err != nil {
		logger.WithField("file", path).WithError(err).Debug("load failed")
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"file":     path,
		"rows":     t.Len(),
		"columns":  len(t.Headers()),
		"duration": time.Since(start).String(),
	}).Debug("loaded table")
	return t, nil
}
