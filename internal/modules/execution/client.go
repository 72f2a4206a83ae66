// Package execution places solved arbitrage legs against a trading venue.
// The client implementation is selected by configuration at startup; there is
// no runtime discovery of venue backends.
package execution

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/arbiter/internal/domain"
)

// Mode selects the execution backend.
const (
	ModeOff     = "off"
	ModeConsole = "console"
)

// Order is one placed (or simulated) order.
type Order struct {
	ID  string     `json:"orderId"`
	Leg domain.Leg `json:"leg"`
}

// Client places the legs of an accepted opportunity.
type Client interface {
	// PlaceLegs submits all legs in order and returns the resulting orders.
	PlaceLegs(ctx context.Context, legs []domain.Leg) ([]Order, error)
	// Name identifies the backend for logging and status reporting.
	Name() string
}

// NewClient returns the client for the configured mode. ModeOff returns a
// nil client: callers skip execution entirely.
func NewClient(mode string, log zerolog.Logger) (Client, error) {
	switch mode {
	case ModeOff, "":
		return nil, nil
	case ModeConsole:
		return NewConsoleClient(log), nil
	default:
		return nil, fmt.Errorf("execution: unknown mode %q", mode)
	}
}
