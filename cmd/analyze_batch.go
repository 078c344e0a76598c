package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rrbz/excel-insight-creator/internal/analysis"
	"github.com/rrbz/excel-insight-creator/internal/utils"
)

var (
	abInput      inputFlags
	abOutDir     string
	abSampleRows int
	abJobs       int
	abQuiet      bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Profile multiple CSV/TSV/XLSX files concurrently and write <name>.summary.md for each",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		if abOutDir != "" {
			if err := utils.EnsureDir(abOutDir); err != nil {
				return fmt.Errorf("create out dir: %w", err)
			}
		}
		outputs := planOutputs(files, abOutDir)

		opt := analysis.DefaultOptions()
		opt.Classifier = cfg.Classifier()
		opt.SampleRows = abSampleRows
		if abSampleRows == 0 {
			opt.SampleRows = -1
		}

		w := cmd.OutOrStdout()
		var mu sync.Mutex
		say := func(format string, a ...any) {
			if abQuiet {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(w, format, a...)
		}

		jobs := abJobs
		if jobs <= 0 {
			jobs = runtime.GOMAXPROCS(0)
		}
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(jobs)
		total := len(files)
		for i, path := range files {
			g.Go(func() error {
				say("[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
				t, err := loadTable(path, abInput)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				rep, err := analysis.Profile(ctx, t, opt)
				if err != nil {
					return err
				}
				if err := utils.SafeWriteFile(outputs[i], []byte(rep.Markdown())); err != nil {
					return fmt.Errorf("write summary: %w", err)
				}
				say("✓ Wrote %s\n", outputs[i])
				return nil
			})
		}
		return g.Wait()
	},
}

// expandInputs resolves globs, keeps literal paths that exist and returns
// the de-duplicated list sorted.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// planOutputs assigns each input a summary path. Names that collide with an
// earlier input or an existing file get a __N suffix.
func planOutputs(files []string, outDir string) []string {
	out := make([]string, len(files))
	taken := map[string]struct{}{}
	for i, path := range files {
		cand := utils.SummaryPath(path, outDir, "summary.md")
		stem := strings.TrimSuffix(cand, ".summary.md")
		for n := 2; ; n++ {
			_, used := taken[cand]
			_, statErr := os.Stat(cand)
			if !used && os.IsNotExist(statErr) {
				break
			}
			cand = fmt.Sprintf("%s__%d.summary.md", stem, n)
		}
		taken[cand] = struct{}{}
		out[i] = cand
	}
	return out
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abInput.register(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory for summaries (default: next to each input)")
	analyzeBatchCmd.Flags().IntVar(&abSampleRows, "sample-rows", 5, "number of sample rows to include (0 disables)")
	analyzeBatchCmd.Flags().IntVar(&abJobs, "jobs", 0, "files processed concurrently (0 = GOMAXPROCS)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress output")
}
