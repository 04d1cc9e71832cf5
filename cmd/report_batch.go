package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/statloom-cli/internal/engine"
	"github.com/KaramelBytes/statloom-cli/internal/report"
	"github.com/KaramelBytes/statloom-cli/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	rbFlags  datasetFlags
	rbOutDir string
	rbQuiet  bool
)

var reportBatchCmd = &cobra.Command{
	Use:   "report-batch <files...>",
	Short: "Report on several datasets through one engine, one output per dataset",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		s, err := rbFlags.resolve(cmd, cfg)
		if err != nil {
			return err
		}
		if rbOutDir != "" {
			if err := utils.EnsureDir(rbOutDir); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		out := cmd.OutOrStdout()
		return withEngine(cmd.Context(), func(eng *engine.Engine) error {
			total := len(files)
			for i, path := range files {
				if !rbQuiet {
					fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
				}
				body, err := buildReport(cmd.Context(), eng, rbFlags.source(path, s.delim), s)
				if err != nil {
					return err
				}
				if rbOutDir == "" {
					if !rbQuiet {
						if _, err := out.Write(body); err != nil {
							return err
						}
					}
					continue
				}
				dest := utils.UniquePath(rbOutDir, outputBase(path, rbFlags.sheetName), ".report"+report.Extension(s.format))
				if err := utils.SafeWriteFile(dest, body); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				logger.Debug("report written", zap.String("path", dest), zap.String("run_id", eng.RunID))
				if !rbQuiet {
					fmt.Fprintf(out, "✓ Wrote report to %s\n", dest)
				}
			}
			return nil
		})
	},
}

// expandInputs resolves glob patterns and literal paths into a sorted,
// de-duplicated file list.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			// treat as literal path if exists
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
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// outputBase names a report file after its dataset and, for workbooks, the sheet.
func outputBase(path, sheet string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if sheet != "" {
		ss := utils.Slug(sheet)
		if ss == "" {
			ss = "sheet"
		}
		base += "__sheet-" + ss
	}
	return base
}

func init() {
	rootCmd.AddCommand(reportBatchCmd)
	rbFlags.register(reportBatchCmd)
	reportBatchCmd.Flags().StringVar(&rbOutDir, "out-dir", "", "directory for one report per dataset (default: stdout)")
	reportBatchCmd.Flags().BoolVar(&rbQuiet, "quiet", false, "suppress progress and non-essential output")
}
