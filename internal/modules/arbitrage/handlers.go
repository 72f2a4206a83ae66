package arbitrage

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/arbiter/internal/modules/execution"
)

// RunCache stores the last solve result for the status endpoint.
type RunCache struct {
	mu          sync.RWMutex
	lastRunID   string
	lastResult  *Envelope
	lastUpdated time.Time
}

// Handler handles HTTP requests for the arbitrage module.
type Handler struct {
	service *Service
	cache   *RunCache
	exec    execution.Client
	log     zerolog.Logger
}

// NewHandler creates a new arbitrage handler.
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		cache:   &RunCache{},
		log:     log.With().Str("component", "arbitrage_handler").Logger(),
	}
}

// SetExecutionClient enables leg execution after successful solves. A nil
// client (the default) leaves execution off.
func (h *Handler) SetExecutionClient(c execution.Client) {
	h.exec = c
}

// HandleSolve handles POST /api/arbitrage/solve - runs one solve over the
// posted payload and returns the result envelope.
func (h *Handler) HandleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Warn().Err(err).Msg("Failed to decode solve request")
		h.writeJSON(w, http.StatusBadRequest, errorEnvelope("invalid JSON payload"))
		return
	}

	runID := uuid.New().String()
	h.log.Info().
		Str("run_id", runID).
		Int("conditions", len(req.Conditions)).
		Int("tokens", len(req.Tokens)).
		Msg("Running arbitrage solve")

	envelope := h.service.Solve(r.Context(), &req)

	h.cache.mu.Lock()
	h.cache.lastRunID = runID
	h.cache.lastResult = envelope
	h.cache.lastUpdated = time.Now()
	h.cache.mu.Unlock()

	if h.exec != nil && envelope.Status == "ok" {
		for _, opp := range envelope.Opportunities {
			if _, err := h.exec.PlaceLegs(r.Context(), opp.Legs); err != nil {
				h.log.Error().Err(err).Str("run_id", runID).Msg("Leg execution failed")
				break
			}
		}
	}

	h.writeJSON(w, http.StatusOK, envelope)
}

// HandleGetStatus handles GET /api/arbitrage/status - returns solver readiness and
// the last run, if any.
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	h.cache.mu.RLock()
	defer h.cache.mu.RUnlock()

	response := map[string]interface{}{
		"status":   "ready",
		"last_run": nil,
	}
	if h.cache.lastResult != nil {
		response["last_run"] = map[string]interface{}{
			"run_id":        h.cache.lastRunID,
			"status":        h.cache.lastResult.Status,
			"opportunities": len(h.cache.lastResult.Opportunities),
		}
		response["last_run_time"] = h.cache.lastUpdated.Format(time.RFC3339)
	}

	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
