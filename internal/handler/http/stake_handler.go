package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/stake-calculator-service/internal/models"
	"github.com/cypherlabdev/stake-calculator-service/internal/service"
	"github.com/cypherlabdev/stake-calculator-service/pkg/calculator"
)

// maxBatchSize bounds the number of inputs accepted by the batch endpoint
const maxBatchSize = 500

// StakeHandler handles HTTP requests for stake calculations
type StakeHandler struct {
	responder
	service *service.StakeService
}

// NewStakeHandler creates a new stake HTTP handler
func NewStakeHandler(service *service.StakeService, logger zerolog.Logger) *StakeHandler {
	return &StakeHandler{
		responder: responder{logger: logger.With().Str("component", "stake_handler").Logger()},
		service:   service,
	}
}

// RegisterRoutes registers the stake routes on r
func (h *StakeHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/stake", func(r chi.Router) {
		r.Get("/defaults", h.handleDefaults)
		r.Post("/calculate", h.handleCalculate)
		r.Post("/batch", h.handleBatch)
	})
}

// handleDefaults handles GET /api/v1/stake/defaults
func (h *StakeHandler) handleDefaults(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, h.service.Defaults())
}

// handleCalculate handles POST /api/v1/stake/calculate
func (h *StakeHandler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var in models.StakeInputs
	if err := decodeJSON(w, r, &in); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.service.Calculate(r.Context(), in)
	if err != nil {
		if IsValidationError(err) {
			h.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("stake calculation failed")
		h.errorResponse(w, http.StatusInternalServerError, "failed to calculate stake")
		return
	}

	h.jsonResponse(w, http.StatusOK, ToStakeResponse(res))
}

// BatchRequest is the body of POST /api/v1/stake/batch
type BatchRequest struct {
	Requests []models.StakeInputs `json:"requests"`
}

// handleBatch handles POST /api/v1/stake/batch
func (h *StakeHandler) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Requests) == 0 {
		h.errorResponse(w, http.StatusBadRequest, "requests must not be empty")
		return
	}
	if len(req.Requests) > maxBatchSize {
		h.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("at most %d requests per batch", maxBatchSize))
		return
	}

	results, err := h.service.CalculateBatch(r.Context(), req.Requests)
	if err != nil {
		h.logger.Error().Err(err).Int("count", len(req.Requests)).Msg("batch calculation failed")
		h.errorResponse(w, http.StatusInternalServerError, "failed to calculate stakes")
		return
	}

	out := make([]*StakeResponse, 0, len(results))
	for _, res := range results {
		out = append(out, ToStakeResponse(res))
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"count":    len(out),
		"rejected": len(req.Requests) - len(out),
		"results":  out,
	})
}

// IsValidationError reports whether err comes from rejected calculator inputs
func IsValidationError(err error) bool {
	return errors.Is(err, calculator.ErrInvalidOdds) ||
		errors.Is(err, calculator.ErrInvalidBankroll) ||
		errors.Is(err, calculator.ErrInvalidProbability) ||
		errors.Is(err, calculator.ErrInvalidRiskFraction)
}

// StakeResponse represents the API response for a stake calculation
type StakeResponse struct {
	*models.StakeResult
	Message string       `json:"message"`
	Display StakeDisplay `json:"display"`
}

// StakeDisplay holds the rounded strings a client shows next to each figure
type StakeDisplay struct {
	ImpliedProbabilityPct string `json:"implied_probability_pct"`
	FullKellyPct          string `json:"full_kelly_pct"`
	StakeAmount           string `json:"stake_amount"`
	BankrollPct           string `json:"bankroll_pct"`
	ExpectedValue         string `json:"expected_value"`
	ROIPct                string `json:"roi_pct"`
	EdgePct               string `json:"edge_pct"`
}

// ToStakeResponse converts a StakeResult to API response format
func ToStakeResponse(res *models.StakeResult) *StakeResponse {
	return &StakeResponse{
		StakeResult: res,
		Message:     calculator.AdvisoryMessage(res),
		Display: StakeDisplay{
			ImpliedProbabilityPct: res.ImpliedProbabilityPct.StringFixed(1),
			FullKellyPct:          res.FullKellyFraction.Mul(decimal.NewFromInt(100)).StringFixed(1),
			StakeAmount:           res.StakeAmount.StringFixed(0),
			BankrollPct:           res.BankrollPct.StringFixed(2),
			ExpectedValue:         res.ExpectedValue.StringFixed(0),
			ROIPct:                signed(res.ROIPct, 1),
			EdgePct:               signed(res.EdgePct, 1),
		},
	}
}

// signed renders d with an explicit plus sign for positive values
func signed(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	if d.Round(places).IsPositive() {
		return "+" + s
	}
	return s
}
