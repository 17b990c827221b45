package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/stake-calculator-service/internal/cache"
	"github.com/cypherlabdev/stake-calculator-service/internal/metrics"
	"github.com/cypherlabdev/stake-calculator-service/internal/models"
	"github.com/cypherlabdev/stake-calculator-service/pkg/calculator"
)

// StakeService orchestrates stake calculation with caching
type StakeService struct {
	calculator Calculator
	cache      Cache
	defaults   models.StakeInputs
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewStakeService creates a new stake service
func NewStakeService(
	calc Calculator,
	resultCache Cache,
	defaults models.StakeInputs,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *StakeService {
	return &StakeService{
		calculator: calc,
		cache:      resultCache,
		defaults:   defaults,
		metrics:    m,
		logger:     logger.With().Str("component", "stake_service").Logger(),
	}
}

// Defaults returns the inputs a new calculator session starts from
func (s *StakeService) Defaults() models.StakeInputs {
	return s.defaults
}

// Calculate returns the stake recommendation for the inputs with a cache-first strategy
func (s *StakeService) Calculate(ctx context.Context, in models.StakeInputs) (*models.StakeResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.CalculationLatency.Observe(time.Since(start).Seconds())
	}()

	if err := calculator.Validate(in); err != nil {
		s.metrics.CalculationErrors.WithLabelValues("validation").Inc()
		return nil, fmt.Errorf("invalid stake inputs: %w", err)
	}

	// Try cache first
	cached, err := s.cache.Get(ctx, in)
	switch {
	case err == nil && cached != nil:
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		s.metrics.ObserveResult(cached)
		s.logger.Debug().
			Str("decimal_odds", in.DecimalOdds.String()).
			Str("estimated_probability_pct", in.EstimatedProbabilityPct.String()).
			Msg("cache hit for stake result")
		return cached, nil
	case errors.Is(err, cache.ErrCacheMiss):
		s.metrics.CacheLookups.WithLabelValues("miss").Inc()
	case err != nil:
		// Cache errors never fail the request
		s.metrics.CacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn().
			Err(err).
			Str("decimal_odds", in.DecimalOdds.String()).
			Str("estimated_probability_pct", in.EstimatedProbabilityPct.String()).
			Msg("cache error, computing stake")
	}

	result, err := s.calculator.Compute(in)
	if err != nil {
		s.metrics.CalculationErrors.WithLabelValues("compute").Inc()
		return nil, fmt.Errorf("stake calculation failed: %w", err)
	}

	if err := s.cache.Set(ctx, result); err != nil {
		s.logger.Warn().
			Err(err).
			Str("decimal_odds", in.DecimalOdds.String()).
			Str("estimated_probability_pct", in.EstimatedProbabilityPct.String()).
			Msg("failed to cache stake result")
	}

	s.metrics.ObserveResult(result)
	s.logger.Info().
		Str("stake_amount", result.StakeAmount.StringFixed(2)).
		Str("edge_pct", result.EdgePct.StringFixed(2)).
		Str("advisory", string(result.Advisory)).
		Msg("computed and cached stake")

	return result, nil
}

// CalculateBatch computes a batch of inputs and caches the results
func (s *StakeService) CalculateBatch(ctx context.Context, inputs []models.StakeInputs) ([]*models.StakeResult, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	results, err := s.calculator.BatchCompute(inputs)
	if err != nil {
		s.metrics.CalculationErrors.WithLabelValues("batch").Inc()
		return nil, fmt.Errorf("batch calculation failed: %w", err)
	}

	if rejected := len(inputs) - len(results); rejected > 0 {
		s.metrics.CalculationErrors.WithLabelValues("batch").Add(float64(rejected))
	}

	if err := s.cache.SetBatch(ctx, results); err != nil {
		s.logger.Warn().
			Err(err).
			Int("count", len(results)).
			Msg("failed to cache batch of stake results")
	}

	for _, res := range results {
		s.metrics.ObserveResult(res)
	}

	s.logger.Info().
		Int("input_count", len(inputs)).
		Int("output_count", len(results)).
		Msg("computed and cached batch")

	return results, nil
}
