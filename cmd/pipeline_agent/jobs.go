package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var jobsLimit int

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent jobs, most recently updated first",
	RunE:  runJobs,
}

func init() {
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 50, "Maximum number of jobs to list")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(_ *cobra.Command, _ []string) error {
	cfg, err := loadAgentConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	s, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	snaps, err := s.List(ctx, jobsLimit)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	if len(snaps) == 0 {
		fmt.Println("No jobs found.")
		return nil
	}
	for _, snap := range snaps {
		fmt.Printf("%s  %s\n", snap.JobID, snap.Stage)
	}
	return nil
}
