package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/narendersurabhi/agents-event-driven/internal/agents"
	"github.com/narendersurabhi/agents-event-driven/internal/llm"
	"github.com/narendersurabhi/agents-event-driven/internal/pipeline"
	"github.com/narendersurabhi/agents-event-driven/internal/server"
	"github.com/narendersurabhi/agents-event-driven/internal/worker"
)

var (
	servePort     int
	serveBus      string
	serveNATSURL  string
	serveStore    string
	serveStoreDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pipeline REST API server",
	Long:  `Start the orchestrator, stage workers, and LLM step worker, and expose the pipeline over HTTP.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveBus, "bus", "", "Event bus backend: memory or nats")
	serveCmd.Flags().StringVar(&serveNATSURL, "nats-url", "", "NATS server URL")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "Snapshot store backend: memory, file, or postgres")
	serveCmd.Flags().StringVar(&serveStoreDir, "store-dir", "", "Directory for file snapshots")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadAgentConfig()
	if err != nil {
		return err
	}
	// Flags win over config file and environment.
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveBus != "" {
		cfg.Bus = serveBus
	}
	if serveNATSURL != "" {
		cfg.NATSURL = serveNATSURL
	}
	if serveStore != "" {
		cfg.Store = serveStore
	}
	if serveStoreDir != "" {
		cfg.StoreDir = serveStoreDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	apiKey, err := requireAPIKey(cfg)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := context.Background()

	b, err := buildBus(cfg)
	if err != nil {
		return err
	}
	s, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close()

	sup := pipeline.NewSupervisor(ctx, logger)

	orchestrator := pipeline.NewOrchestrator(b, s, logger)
	orchestrator.Start(sup)

	for _, stage := range agents.Stages() {
		worker.NewStageWorker(b, stage, logger).Start(sup)
	}

	stepWorker := worker.NewStepWorker(b, client, llm.NewRepairAgent(client), logger)
	sup.Go("llm_step", stepWorker.Run)

	srv := server.New(server.Config{Port: cfg.Port}, b, s, orchestrator, logger)
	if err := srv.Start(); err != nil {
		return err
	}

	if err := sup.Stop(); err != nil {
		return fmt.Errorf("pipeline shutdown failed: %w", err)
	}
	return nil
}
