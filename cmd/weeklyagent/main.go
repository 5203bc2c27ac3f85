package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/hubtoday/weeklyagent/internal/ai"
	"github.com/hubtoday/weeklyagent/internal/config"
	"github.com/hubtoday/weeklyagent/internal/digest"
	"github.com/hubtoday/weeklyagent/internal/logger"
	"github.com/hubtoday/weeklyagent/internal/metrics"
)

func main() {
	configPath := flag.String("config", "configs/weekly_config.yaml", "path to the YAML config")
	dryRun := flag.Bool("dry-run", false, "run the pipeline without writing output or state")
	schedule := flag.String("schedule", "", "cron expression; when set, run on a schedule instead of once")
	flag.Parse()

	// Optional .env for local runs; absence is fine.
	_ = godotenv.Load()
	logger.Init()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config failed", "path", *configPath, "error", err)
		os.Exit(1)
	}

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	ctx := context.Background()
	client, err := ai.NewClient(ctx, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.MaxRequests)
	if err != nil {
		logger.Error("create ai client failed", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	run := func() {
		generator := digest.New(cfg, client)
		if _, err := generator.Generate(ctx, *dryRun); err != nil {
			logger.Error("weekly generation failed", "error", err)
			metrics.Global.SetError(err.Error())
		}
	}

	if *schedule == "" {
		run()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, run); err != nil {
		logger.Error("invalid cron schedule", "schedule", *schedule, "error", err)
		os.Exit(1)
	}
	logger.Info("scheduler started", "schedule", *schedule)
	c.Run()
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	log.Printf("Starting monitoring server on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Printf("Monitoring server error: %v", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_issue": stats["last_issue"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
