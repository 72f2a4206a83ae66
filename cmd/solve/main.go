// Command solve runs one arbitrage solve: a JSON request on stdin, the
// result envelope on stdout. Logs go to stderr so stdout stays parseable.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"

	"github.com/aristath/arbiter/internal/config"
	"github.com/aristath/arbiter/internal/modules/arbitrage"
	"github.com/aristath/arbiter/internal/modules/execution"
	"github.com/aristath/arbiter/internal/solver/lp"
	"github.com/aristath/arbiter/internal/solver/sat"
	"github.com/aristath/arbiter/pkg/logger"
)

func main() {
	pretty := flag.Bool("pretty", false, "print a human-readable legs table to stderr")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
		Output: os.Stderr,
	})

	envelope := run(cfg, log)

	out, err := json.Marshal(envelope)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode result")
	}
	fmt.Println(string(out))

	if *pretty {
		printLegs(os.Stderr, envelope)
	}
}

func run(cfg *config.Config, log zerolog.Logger) *arbitrage.Envelope {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return &arbitrage.Envelope{Status: "error", Error: fmt.Sprintf("read stdin: %v", err)}
	}
	if strings.TrimSpace(string(raw)) == "" {
		return &arbitrage.Envelope{Status: "error", Error: "empty input"}
	}

	var req arbitrage.SolveRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return &arbitrage.Envelope{Status: "error", Error: "invalid JSON payload"}
	}

	service := arbitrage.NewService(sat.NewBranchSolver(), lp.NewSimplexSolver(), log)
	envelope := service.Solve(context.Background(), &req)

	executeLegs(cfg, log, envelope)
	return envelope
}

// executeLegs hands accepted legs to the configured execution client, if any.
func executeLegs(cfg *config.Config, log zerolog.Logger, envelope *arbitrage.Envelope) {
	if envelope.Status != "ok" || len(envelope.Opportunities) == 0 {
		return
	}

	client, err := execution.NewClient(cfg.ExecutionMode, log)
	if err != nil {
		log.Error().Err(err).Msg("Execution client unavailable")
		return
	}
	if client == nil {
		return
	}

	for _, opp := range envelope.Opportunities {
		if _, err := client.PlaceLegs(context.Background(), opp.Legs); err != nil {
			log.Error().Err(err).Msg("Leg execution failed")
			return
		}
	}
}

func printLegs(out io.Writer, envelope *arbitrage.Envelope) {
	if envelope.Status != "ok" {
		fmt.Fprintf(out, "error: %s\n", envelope.Error)
		return
	}
	if len(envelope.Opportunities) == 0 {
		fmt.Fprintln(out, "no opportunities")
		return
	}

	for _, opp := range envelope.Opportunities {
		fmt.Fprintf(out, "\nguaranteed profit %.4f | cost %.4f | %d scenario(s) | %dms\n",
			opp.GuaranteedProfit, opp.Cost, len(opp.Outcomes), opp.RuntimeMs)

		table := tablewriter.NewWriter(out)
		table.Header("Token", "Side", "Price", "Shares", "Label")
		for _, leg := range opp.Legs {
			table.Append(
				leg.TokenID,
				string(leg.Side),
				fmt.Sprintf("%.4f", leg.Price),
				fmt.Sprintf("%.4f", leg.Shares),
				leg.Label,
			)
		}
		table.Render()
	}
}
