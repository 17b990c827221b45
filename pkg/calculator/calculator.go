package calculator

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/stake-calculator-service/internal/models"
)

var (
	ErrInvalidOdds         = errors.New("decimal odds must be greater than 1")
	ErrInvalidBankroll     = errors.New("bankroll must not be negative")
	ErrInvalidProbability  = errors.New("estimated probability must be between 0 and 100")
	ErrInvalidRiskFraction = errors.New("risk fraction must be greater than 0 and at most 100")
)

// DefaultGoodEdgeThresholdPct is the edge, in percent, from which a stake counts as a good edge
var DefaultGoodEdgeThresholdPct = decimal.NewFromInt(5)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// kellyPrecision is the number of decimal places kept when dividing by the net odds
const kellyPrecision = 32

// Calculator sizes stakes with the (fractional) Kelly criterion
type Calculator struct {
	params models.CalculatorParams
	logger zerolog.Logger
}

// NewCalculator creates a new stake calculator
func NewCalculator(params models.CalculatorParams, logger zerolog.Logger) *Calculator {
	if params.GoodEdgeThresholdPct.IsZero() {
		params.GoodEdgeThresholdPct = DefaultGoodEdgeThresholdPct
	}
	return &Calculator{
		params: params,
		logger: logger.With().Str("component", "calculator").Logger(),
	}
}

// CacheNamespace names the parameters results are computed under, so stored results
// from a different good-edge threshold are never reused
func (c *Calculator) CacheNamespace() string {
	return "edge" + c.params.GoodEdgeThresholdPct.String()
}

// Validate checks that inputs lie inside the domain the formulas are defined on
func Validate(in models.StakeInputs) error {
	if in.DecimalOdds.LessThanOrEqual(one) {
		return fmt.Errorf("%w: got %s", ErrInvalidOdds, in.DecimalOdds.String())
	}
	// Odds so close to 1, or so large, that the implied probability rounds to 100 or 0
	if implied := ImpliedProbabilityPct(in.DecimalOdds); !implied.IsPositive() || !implied.LessThan(hundred) {
		return fmt.Errorf("%w: implied probability of %s is out of range", ErrInvalidOdds, in.DecimalOdds.String())
	}
	if in.Bankroll.IsNegative() {
		return fmt.Errorf("%w: got %s", ErrInvalidBankroll, in.Bankroll.String())
	}
	if in.EstimatedProbabilityPct.IsNegative() || in.EstimatedProbabilityPct.GreaterThan(hundred) {
		return fmt.Errorf("%w: got %s", ErrInvalidProbability, in.EstimatedProbabilityPct.String())
	}
	if !in.RiskFractionPct.IsPositive() || in.RiskFractionPct.GreaterThan(hundred) {
		return fmt.Errorf("%w: got %s", ErrInvalidRiskFraction, in.RiskFractionPct.String())
	}
	return nil
}

// Compute derives the full stake recommendation for the given inputs
func (c *Calculator) Compute(in models.StakeInputs) (*models.StakeResult, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	// Shift(-2) divides by 100 without rounding
	p := in.EstimatedProbabilityPct.Shift(-2)
	q := one.Sub(p)
	b := in.DecimalOdds.Sub(one) // net odds

	implied := ImpliedProbabilityPct(in.DecimalOdds)
	fullKelly := FullKellyFraction(p, b)

	applied := fullKelly.Mul(in.RiskFractionPct.Shift(-2))
	stake := in.Bankroll.Mul(applied)

	// estimate > 100/odds, tested as estimate*odds > 100 so it agrees with the Kelly sign
	hasEdge := HasEdge(in.EstimatedProbabilityPct, in.DecimalOdds)
	edge := EdgePct(in.EstimatedProbabilityPct, in.DecimalOdds)

	ev := p.Mul(b).Mul(stake).Sub(q.Mul(stake))

	// ROI is undefined for a zero stake; report 0 instead
	roi := decimal.Zero
	if !stake.IsZero() {
		roi = ev.Div(stake).Mul(hundred)
	}

	return &models.StakeResult{
		ID:                    uuid.New(),
		Inputs:                in,
		ImpliedProbabilityPct: implied,
		FullKellyFraction:     fullKelly,
		AppliedKellyFraction:  applied,
		StakeAmount:           stake,
		BankrollPct:           applied.Mul(hundred),
		HasEdge:               hasEdge,
		EdgePct:               edge,
		ExpectedValue:         ev,
		ROIPct:                roi,
		Advisory:              c.Classify(hasEdge, edge),
		ComputedAt:            time.Now().UTC(),
	}, nil
}

// Classify maps an edge onto an advisory. The checks run in order: no edge, small edge, good edge.
func (c *Calculator) Classify(hasEdge bool, edgePct decimal.Decimal) models.Advisory {
	if !hasEdge {
		return models.AdvisoryNoEdge
	}
	if edgePct.LessThan(c.params.GoodEdgeThresholdPct) {
		return models.AdvisorySmallEdge
	}
	return models.AdvisoryGoodEdge
}

// BatchCompute computes a batch of inputs, skipping the ones that fail validation
func (c *Calculator) BatchCompute(inputs []models.StakeInputs) ([]*models.StakeResult, error) {
	results := make([]*models.StakeResult, 0, len(inputs))

	for i, in := range inputs {
		res, err := c.Compute(in)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Int("index", i).
				Str("decimal_odds", in.DecimalOdds.String()).
				Msg("failed to compute stake")
			continue
		}
		results = append(results, res)
	}

	c.logger.Info().
		Int("input_count", len(inputs)).
		Int("output_count", len(results)).
		Msg("batch computation complete")

	return results, nil
}

// ImpliedProbabilityPct converts decimal odds to the break-even probability in percent
func ImpliedProbabilityPct(odds decimal.Decimal) decimal.Decimal {
	// Example: 2.50 odds = 100/2.50 = 40%
	return hundred.Div(odds)
}

// FullKellyFraction returns max(0, (b*p - q) / b) for win probability p and net odds b.
// The sign is decided on the exact numerator; only the division by b rounds.
func FullKellyFraction(p, b decimal.Decimal) decimal.Decimal {
	q := one.Sub(p)
	numerator := b.Mul(p).Sub(q)
	if !numerator.IsPositive() {
		return decimal.Zero
	}
	return numerator.DivRound(b, kellyPrecision)
}

// HasEdge reports whether the estimate beats the implied probability, i.e. estimate*odds > 100
func HasEdge(estimatedPct, odds decimal.Decimal) bool {
	return estimatedPct.Mul(odds).GreaterThan(hundred)
}

// EdgePct returns (estimate / implied - 1) * 100, which simplifies to estimate*odds - 100
func EdgePct(estimatedPct, odds decimal.Decimal) decimal.Decimal {
	return estimatedPct.Mul(odds).Sub(hundred)
}
