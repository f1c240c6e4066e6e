package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"javaseeker/internal/jobs"
)

var (
	historyProject   string
	historyStatus    string
	historyLimit     int
	historyOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the lifecycle run history",
	Long: `Each sync and build cycle of a project is recorded in <base>/history.db
with its trigger, timings, resulting project status and error.

Examples:
  javaseeker history list
  javaseeker history list --project shop --status failed
  javaseeker history prune --older-than 168h`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent lifecycle runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete finished runs older than the retention period",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	historyListCmd.Flags().StringVar(&historyProject, "project", "", "Only runs of this project")
	historyListCmd.Flags().StringVar(&historyStatus, "status", "", "Filter by run status (queued, running, completed, failed, cancelled)")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to return")
	historyPruneCmd.Flags().DurationVar(&historyOlderThan, "older-than", 0, "Age cutoff (default: history.retentionHours)")

	historyCmd.AddCommand(historyListCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	store, err := e.openHistory(e.consoleLogger())
	if err != nil {
		return err
	}
	defer store.Close()

	opts := jobs.ListJobsOptions{Project: historyProject, Limit: historyLimit}
	if historyStatus != "" {
		opts.Status = []jobs.JobStatus{jobs.JobStatus(historyStatus)}
	}
	resp, err := store.ListJobs(opts)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	return printResponse(resp)
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	retention := historyOlderThan
	if retention <= 0 {
		retention = e.cfg.History.Retention()
	}
	if retention <= 0 {
		return fmt.Errorf("no retention period: pass --older-than or set history.retentionHours")
	}

	store, err := e.openHistory(e.consoleLogger())
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.CleanupOldJobs(retention)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}
	fmt.Printf("Deleted %d runs older than %s\n", n, retention)
	return nil
}
