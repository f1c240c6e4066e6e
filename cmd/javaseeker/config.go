package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"javaseeker/internal/config"
	"javaseeker/internal/paths"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the application settings",
	Long: `Settings are read from <base>/config.json, layered over the defaults and
under JAVASEEKER_* environment variables (e.g. JAVASEEKER_SERVER_ADDR).
A .env file in the working directory is loaded first.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		out, err := formatJSON(e.cfg)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default settings to <base>/config.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := paths.ResolveBase(baseFlag)
		if err != nil {
			return err
		}
		path := paths.ConfigPath(base)
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.DefaultConfig().Save(base); err != nil {
			return fmt.Errorf("write settings: %w", err)
		}
		fmt.Printf("Wrote default settings to %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing settings file")
	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
