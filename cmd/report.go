package cmd

import (
	"bytes"
	"context"
	"fmt"

	cfgpkg "github.com/KaramelBytes/statloom-cli/internal/config"
	"github.com/KaramelBytes/statloom-cli/internal/dataset"
	"github.com/KaramelBytes/statloom-cli/internal/engine"
	"github.com/KaramelBytes/statloom-cli/internal/profile"
	"github.com/KaramelBytes/statloom-cli/internal/report"
	"github.com/KaramelBytes/statloom-cli/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// datasetFlags are shared by report and report-batch.
type datasetFlags struct {
	format     string
	profile    string
	delimiter  string
	sheetName  string
	sheetIndex int
	table      string
	headRows   int
	sections   string
}

func (f *datasetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "", "output format: text | markdown | yaml (default from config)")
	cmd.Flags().StringVar(&f.profile, "profile", "", "dataset profile YAML (default: built-in happiness-2015)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
	cmd.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	cmd.Flags().IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	cmd.Flags().StringVar(&f.table, "table", "", "SQLite: table to read (default: first table by name)")
	cmd.Flags().IntVar(&f.headRows, "head-rows", 0, "rows shown in the overview (default from config; -1 hides them)")
	cmd.Flags().StringVar(&f.sections, "sections", "", "comma-separated sections: overview,histogram,statistics,correlation")
}

// settings resolves flags against the loaded configuration.
type settings struct {
	format  string
	profile *profile.Profile
	delim   rune
	opts    report.Options
}

func (f *datasetFlags) resolve(cmd *cobra.Command, c *cfgpkg.Global) (*settings, error) {
	s := &settings{format: c.Format}
	if f.format != "" {
		s.format = f.format
	}
	if err := report.CheckFormat(s.format); err != nil {
		return nil, err
	}
	path := c.ProfilePath
	if f.profile != "" {
		path = f.profile
	}
	p, err := profile.Resolve(path)
	if err != nil {
		return nil, err
	}
	s.profile = p
	delim := c.Delimiter
	if f.delimiter != "" {
		delim = f.delimiter
	}
	if s.delim, err = cfgpkg.DelimiterRune(delim); err != nil {
		return nil, err
	}
	s.opts.HeadRows = c.HeadRows
	if cmd.Flags().Changed("head-rows") {
		s.opts.HeadRows = f.headRows
	}
	if s.opts.Sections, err = report.ParseSections(f.sections); err != nil {
		return nil, err
	}
	return s, nil
}

func (f *datasetFlags) source(path string, delim rune) dataset.Source {
	return dataset.Source{
		Path:       path,
		Delimiter:  delim,
		SheetName:  f.sheetName,
		SheetIndex: f.sheetIndex,
		Table:      f.table,
	}
}

// withEngine starts an engine for the configured pool and closes it on every
// exit path.
func withEngine(ctx context.Context, fn func(*engine.Engine) error) (err error) {
	eng, err := engine.Start(ctx, engine.Options{Workers: cfg.Workers, Partitions: cfg.Partitions}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := eng.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(eng)
}

// buildReport loads one dataset and renders its report.
func buildReport(ctx context.Context, eng *engine.Engine, src dataset.Source, s *settings) ([]byte, error) {
	rs, err := eng.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	opts := s.opts
	opts.Name = src.Name()
	rep, err := report.Build(ctx, eng, rs, s.profile, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Name(), err)
	}
	var buf bytes.Buffer
	if err := rep.Render(&buf, s.format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	repFlags  datasetFlags
	repOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Report statistics, histogram and correlations for one dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := repFlags.resolve(cmd, cfg)
		if err != nil {
			return err
		}
		src := repFlags.source(args[0], s.delim)
		return withEngine(cmd.Context(), func(eng *engine.Engine) error {
			out, err := buildReport(cmd.Context(), eng, src, s)
			if err != nil {
				return err
			}
			if repOutput != "" {
				if err := utils.SafeWriteFile(repOutput, out); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				logger.Debug("report written", zap.String("path", repOutput), zap.String("run_id", eng.RunID))
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote report to %s\n", repOutput)
				return nil
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	repFlags.register(reportCmd)
	reportCmd.Flags().StringVarP(&repOutput, "output", "o", "", "optional path to write the report")
}
