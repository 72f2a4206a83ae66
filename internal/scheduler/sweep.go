package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/arbiter/internal/modules/arbitrage"
)

// SweepJob drains a spool directory of solve requests: every *.json file is
// decoded, solved, and answered with a sibling *.result.json, after which the
// request file is removed. Files that fail to decode still get an error
// envelope so a producer never waits forever.
type SweepJob struct {
	service  *arbitrage.Service
	spoolDir string
	log      zerolog.Logger
}

// NewSweepJob creates a sweep job over the given spool directory.
func NewSweepJob(service *arbitrage.Service, spoolDir string, log zerolog.Logger) *SweepJob {
	return &SweepJob{
		service:  service,
		spoolDir: spoolDir,
		log:      log.With().Str("component", "sweep_job").Logger(),
	}
}

// Name implements Job.
func (j *SweepJob) Name() string {
	return "spool_sweep"
}

// Run implements Job.
func (j *SweepJob) Run() error {
	entries, err := os.ReadDir(j.spoolDir)
	if err != nil {
		return fmt.Errorf("read spool dir: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".result.json") {
			continue
		}
		if err := j.sweepOne(name); err != nil {
			j.log.Error().Err(err).Str("file", name).Msg("Failed to sweep request")
		}
	}
	return nil
}

func (j *SweepJob) sweepOne(name string) error {
	reqPath := filepath.Join(j.spoolDir, name)
	resultPath := strings.TrimSuffix(reqPath, ".json") + ".result.json"

	raw, err := os.ReadFile(reqPath)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	var envelope *arbitrage.Envelope
	var req arbitrage.SolveRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		envelope = &arbitrage.Envelope{Status: "error", Error: "invalid JSON payload"}
	} else {
		envelope = j.service.Solve(context.Background(), &req)
	}

	out, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(resultPath, out, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if err := os.Remove(reqPath); err != nil {
		return fmt.Errorf("remove request: %w", err)
	}

	j.log.Info().
		Str("file", name).
		Str("status", envelope.Status).
		Int("opportunities", len(envelope.Opportunities)).
		Msg("Swept solve request")
	return nil
}
