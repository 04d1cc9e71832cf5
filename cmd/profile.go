package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/statloom-cli/internal/profile"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	profPath  string
	profForce bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect or create dataset profiles",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective dataset profile as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.ProfilePath
		if profPath != "" {
			path = profPath
		}
		p, err := profile.Resolve(path)
		if err != nil {
			return err
		}
		b, err := yaml.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var profileInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write the built-in profile to a file as a starting point",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !profForce {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("profile %s already exists (use --force to overwrite)", path)
			}
		}
		if err := profile.Save(profile.Default(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileInitCmd)
	profileShowCmd.Flags().StringVar(&profPath, "profile", "", "profile YAML to show (default: configured or built-in)")
	profileInitCmd.Flags().BoolVar(&profForce, "force", false, "overwrite an existing profile")
}
