package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/statloom-cli/internal/config"
	"github.com/KaramelBytes/statloom-cli/internal/report"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set StatLoom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "workers: %d\n", cfg.Workers)
		fmt.Fprintf(out, "partitions: %d\n", cfg.Partitions)
		if cfg.ProfilePath != "" {
			fmt.Fprintf(out, "profile: %s\n", cfg.ProfilePath)
		} else {
			fmt.Fprintln(out, "profile: (built-in)")
		}
		fmt.Fprintf(out, "format: %s\n", cfg.Format)
		fmt.Fprintf(out, "head_rows: %d\n", cfg.HeadRows)
		if cfg.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %q\n", cfg.Delimiter)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "workers", "partitions", "head_rows":
			i, err := strconv.Atoi(val)
			if err != nil || (i < 0 && key != "head_rows") {
				return fmt.Errorf("invalid int for %s: %v", key, val)
			}
			switch key {
			case "workers":
				cfg.Workers = i
			case "partitions":
				cfg.Partitions = i
			default:
				cfg.HeadRows = i
			}
		case "profile":
			cfg.ProfilePath = val
		case "format":
			if err := report.CheckFormat(val); err != nil {
				return err
			}
			cfg.Format = val
		case "delimiter":
			if _, err := cfgpkg.DelimiterRune(val); err != nil {
				return err
			}
			cfg.Delimiter = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
