package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/stepwise/planner/internal/config"
	"github.com/stepwise/planner/internal/logger"
	"github.com/stepwise/planner/internal/queue"
	"github.com/stepwise/planner/internal/services/ai"
	"github.com/stepwise/planner/internal/store"
	"github.com/stepwise/planner/internal/workers"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_model", cfg.AIModel),
		zap.String("sweep_schedule", cfg.SweepSchedule),
	)

	fileStore, err := store.NewFileStore(cfg.DataDir, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_open_data_directory", zap.Error(err))
	}

	if cfg.RabbitMQURL == "" {
		zapLogger.Fatal("rabbitmq_url_required_for_worker")
	}
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_rabbitmq",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	analyzer := ai.NewOpenAIAnalyzer(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)

	assignmentAnalyzer := workers.NewAssignmentAnalyzer(analyzer, fileStore, jobQueue, zapLogger)
	reassigner := workers.NewReassigner(fileStore, cfg.DailyStepCapacity, zapLogger)
	runner := workers.NewRunner(jobQueue, assignmentAnalyzer, reassigner, cfg.RabbitMQPrefetch, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Nightly sweep: enqueue one reassignment job per known user
	sweeper := cron.New()
	_, err = sweeper.AddFunc(cfg.SweepSchedule, func() {
		if err := workers.EnqueueSweeps(ctx, fileStore, jobQueue, zapLogger); err != nil {
			zapLogger.Error("failed_to_enqueue_reassignment_sweeps", zap.Error(err))
		}
	})
	if err != nil {
		zapLogger.Fatal("invalid_sweep_schedule", zap.Error(err))
	}
	sweeper.Start()
	defer sweeper.Stop()

	runnerDone := make(chan error, 1)
	go func() {
		runnerDone <- runner.Run(ctx)
	}()

	zapLogger.Info("worker_started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		zapLogger.Info("shutdown_signal_received")
		cancel()
		<-runnerDone
	case err := <-runnerDone:
		if err != nil && err != context.Canceled {
			zapLogger.Error("worker_runner_stopped", zap.Error(err))
		}
	}

	zapLogger.Info("worker_stopped")
}
