package execution

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aristath/arbiter/internal/domain"
)

// ConsoleClient is the dry-run backend: it logs every leg it would place and
// fabricates order ids, throttled the way a real venue client would be.
type ConsoleClient struct {
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewConsoleClient creates a dry-run client capped at two orders per second.
func NewConsoleClient(log zerolog.Logger) *ConsoleClient {
	return &ConsoleClient{
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		log:     log.With().Str("component", "console_execution").Logger(),
	}
}

// Name implements Client.
func (c *ConsoleClient) Name() string {
	return ModeConsole
}

// PlaceLegs implements Client. Legs are "placed" strictly in order; a
// cancelled context aborts the remainder and returns the orders placed so
// far along with the context error.
func (c *ConsoleClient) PlaceLegs(ctx context.Context, legs []domain.Leg) ([]Order, error) {
	orders := make([]Order, 0, len(legs))
	for _, leg := range legs {
		if err := c.limiter.Wait(ctx); err != nil {
			return orders, err
		}
		order := Order{ID: uuid.New().String(), Leg: leg}
		c.log.Info().
			Str("order_id", order.ID).
			Str("token_id", leg.TokenID).
			Str("side", string(leg.Side)).
			Float64("price", leg.Price).
			Float64("shares", leg.Shares).
			Msg("dry-run order")
		orders = append(orders, order)
	}
	return orders, nil
}
