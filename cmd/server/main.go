package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/arbiter/internal/config"
	"github.com/aristath/arbiter/internal/modules/arbitrage"
	"github.com/aristath/arbiter/internal/modules/execution"
	"github.com/aristath/arbiter/internal/scheduler"
	"github.com/aristath/arbiter/internal/server"
	"github.com/aristath/arbiter/internal/solver/lp"
	"github.com/aristath/arbiter/internal/solver/sat"
	"github.com/aristath/arbiter/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info"})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Arbiter")

	// Solver backends and the arbitrage service
	service := arbitrage.NewService(sat.NewBranchSolver(), lp.NewSimplexSolver(), log)
	handler := arbitrage.NewHandler(service, log)

	// Optional leg execution after successful solves
	execClient, err := execution.NewClient(cfg.ExecutionMode, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create execution client")
	}
	if execClient != nil {
		handler.SetExecutionClient(execClient)
	}

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	// Register background jobs
	if err := registerJobs(sched, service, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		Config:    cfg,
		Arbitrage: handler,
		DevMode:   cfg.DevMode,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func registerJobs(sched *scheduler.Scheduler, service *arbitrage.Service, cfg *config.Config, log zerolog.Logger) error {
	if cfg.SpoolDir == "" {
		return nil
	}
	return sched.AddJob(cfg.SweepSchedule, scheduler.NewSweepJob(service, cfg.SpoolDir, log))
}
