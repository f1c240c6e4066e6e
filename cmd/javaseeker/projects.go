package main

import (
	"fmt"

	"github.com/spf13/cobra"

	seekerrors "javaseeker/internal/errors"
	"javaseeker/internal/projects"
)

var resetStatus string

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Inspect and reset configured projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured projects and their status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		store, err := e.openProjects(e.consoleLogger())
		if err != nil {
			return err
		}
		return printResponse(store.List())
	},
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		store, err := e.openProjects(e.consoleLogger())
		if err != nil {
			return err
		}
		d, ok := store.Get(args[0])
		if !ok {
			return seekerrors.NewProjectNotFoundError(args[0])
		}
		return printResponse(d)
	},
}

var projectsResetCmd = &cobra.Command{
	Use:   "reset <name>",
	Short: "Write an explicit status for a project into the descriptor file",
	Long: `Write an explicit status for a project into the descriptor file.

A running server applies the new status on its next descriptor reload, so
resetting a project parked in a failed build status to NOT_SYNCED makes the
lifecycle engine sync and build it again.

Examples:
  javaseeker projects reset shop
  javaseeker projects reset shop --status FAILED_SYNC`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := projects.ParseStatus(resetStatus)
		if err != nil {
			return err
		}
		e, err := loadEnv()
		if err != nil {
			return err
		}
		store, err := e.openProjects(e.consoleLogger())
		if err != nil {
			return err
		}
		if _, ok := store.Get(args[0]); !ok {
			return seekerrors.NewProjectNotFoundError(args[0])
		}
		if err := store.ResetStatus(args[0], status); err != nil {
			return err
		}
		fmt.Printf("Project %s reset to %s in %s\n", args[0], status, store.Path())
		return nil
	},
}

func init() {
	projectsResetCmd.Flags().StringVar(&resetStatus, "status", string(projects.StatusNotSynced), "Status to write")

	projectsCmd.AddCommand(projectsListCmd, projectsShowCmd, projectsResetCmd)
	rootCmd.AddCommand(projectsCmd)
}
