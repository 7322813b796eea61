package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/narendersurabhi/agents-event-driven/internal/agents"
	"github.com/narendersurabhi/agents-event-driven/internal/fsm"
	"github.com/narendersurabhi/agents-event-driven/internal/llm"
	"github.com/narendersurabhi/agents-event-driven/internal/observability"
	"github.com/narendersurabhi/agents-event-driven/internal/worker"
)

var (
	runJDPath     string
	runResumePath string
	runNoQA       bool
	runNoImprover bool
	runOutputDir  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once, directly, without the event bus",
	Long:  `Execute every stage sequentially in this process and write the artifacts as JSON files. Useful for local runs and debugging stage prompts.`,
	RunE:  runDirect,
}

func init() {
	runCmd.Flags().StringVar(&runJDPath, "jd", "", "Path to job description text file (required)")
	runCmd.Flags().StringVar(&runResumePath, "resume", "", "Path to resume text file (required)")
	runCmd.Flags().BoolVar(&runNoQA, "no-qa", false, "Skip the QA review stage")
	runCmd.Flags().BoolVar(&runNoImprover, "no-improver", false, "Skip the QA-driven improver stage")
	runCmd.Flags().StringVar(&runOutputDir, "output", "out", "Directory to write artifacts to")
	_ = runCmd.MarkFlagRequired("jd")
	_ = runCmd.MarkFlagRequired("resume")
	rootCmd.AddCommand(runCmd)
}

func runDirect(_ *cobra.Command, _ []string) error {
	cfg, err := loadAgentConfig()
	if err != nil {
		return err
	}
	apiKey, err := requireAPIKey(cfg)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	jdText, err := os.ReadFile(runJDPath)
	if err != nil {
		return fmt.Errorf("failed to read job description: %w", err)
	}
	resumeText, err := os.ReadFile(runResumePath)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}

	ctx := context.Background()
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close()

	executor := worker.NewDirectExecutor(client, llm.NewRepairAgent(client), logger)
	runQA := cfg.QAEnabled() && !runNoQA
	runImprover := cfg.ImproverEnabled() && !runNoImprover
	runner := fsm.NewRunner(nil, executor, agents.Stages(), runQA, runImprover, logger)

	result, err := runner.Run(ctx, string(jdText), string(resumeText))
	if err != nil {
		return fmt.Errorf("pipeline run failed in state %s: %w", runner.State(), err)
	}

	if cfg.Verbose {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintJDAnalysis(result.JD)
		printer.PrintPlan(result.Plan)
		printer.PrintQAReport(result.QA)
		printer.PrintCoverLetter(result.CoverLetter)
	}

	if err := os.MkdirAll(runOutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	artifacts := map[string]any{
		"jd.json":           result.JD,
		"profile.json":      result.Profile,
		"plan.json":         result.Plan,
		"tailored.json":     result.Tailored,
		"qa.json":           result.QA,
		"improved.json":     result.Improved,
		"cover_letter.json": result.CoverLetter,
		"final_resume.json": result.FinalResume(),
	}
	for name, artifact := range artifacts {
		if artifact == nil {
			continue
		}
		if err := writeArtifact(filepath.Join(runOutputDir, name), artifact); err != nil {
			return err
		}
	}

	fmt.Printf("Pipeline complete. Artifacts written to %s\n", runOutputDir)
	return nil
}

func writeArtifact(path string, artifact any) error {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
