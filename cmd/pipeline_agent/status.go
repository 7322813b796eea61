package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/narendersurabhi/agents-event-driven/internal/pipeline"
)

var statusCmd = &cobra.Command{
	Use:   "status <job_id>",
	Short: "Show a job's stage and artifact presence",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, args []string) error {
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

	snap, err := s.Load(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", args[0], err)
	}

	fmt.Printf("Job:          %s\n", snap.JobID)
	fmt.Printf("Stage:        %s\n", snap.Stage)
	fmt.Printf("Run QA:       %t\n", snap.RunQA)
	fmt.Printf("Run improver: %t\n", snap.RunImprover)
	fmt.Println("Artifacts:")
	for _, slot := range []string{
		pipeline.SlotJD, pipeline.SlotProfile, pipeline.SlotPlan,
		pipeline.SlotTailored, pipeline.SlotQA, pipeline.SlotImproved,
		pipeline.SlotCoverLetter,
	} {
		marker := " "
		if snap.Artifacts[slot] != nil {
			marker = "x"
		}
		fmt.Printf("  [%s] %s\n", marker, slot)
	}
	return nil
}
