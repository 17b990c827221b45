package calculator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/stake-calculator-service/internal/models"
)

// setupTestCalculator creates a test calculator with default parameters
func setupTestCalculator() *Calculator {
	params := models.CalculatorParams{
		GoodEdgeThresholdPct: decimal.NewFromInt(5),
	}
	return NewCalculator(params, zerolog.Nop())
}

// stakeInputs builds inputs from plain floats
func stakeInputs(bankroll, odds, probability, risk float64) models.StakeInputs {
	return models.StakeInputs{
		Bankroll:                decimal.NewFromFloat(bankroll),
		DecimalOdds:             decimal.NewFromFloat(odds),
		EstimatedProbabilityPct: decimal.NewFromFloat(probability),
		RiskFractionPct:         decimal.NewFromFloat(risk),
	}
}

// assertDecimal compares decimals by value
func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	want := decimal.RequireFromString(expected)
	assert.True(t, want.Equal(actual), "expected %s, got %s", want, actual)
}

// TestNewCalculator_DefaultThreshold tests that a zero threshold falls back to 5%
func TestNewCalculator_DefaultThreshold(t *testing.T) {
	calc := NewCalculator(models.CalculatorParams{}, zerolog.Nop())
	assert.True(t, calc.params.GoodEdgeThresholdPct.Equal(decimal.NewFromInt(5)))
}

// TestCacheNamespace tests that the namespace follows the good-edge threshold
func TestCacheNamespace(t *testing.T) {
	assert.Equal(t, "edge5", NewCalculator(models.CalculatorParams{}, zerolog.Nop()).CacheNamespace())
	assert.Equal(t, "edge7.5", NewCalculator(models.CalculatorParams{
		GoodEdgeThresholdPct: decimal.RequireFromString("7.50"),
	}, zerolog.Nop()).CacheNamespace())
}

// TestCompute_ReferenceScenario tests the 10000 / 2.0 / 55% / 50% scenario
func TestCompute_ReferenceScenario(t *testing.T) {
	calc := setupTestCalculator()

	res, err := calc.Compute(stakeInputs(10000, 2.0, 55, 50))

	require.NoError(t, err)
	require.NotNil(t, res)
	assertDecimal(t, "50", res.ImpliedProbabilityPct)
	assertDecimal(t, "0.10", res.FullKellyFraction)
	assertDecimal(t, "0.05", res.AppliedKellyFraction)
	assertDecimal(t, "500", res.StakeAmount)
	assertDecimal(t, "5", res.BankrollPct)
	assert.True(t, res.HasEdge)
	assertDecimal(t, "10", res.EdgePct)
	assertDecimal(t, "50", res.ExpectedValue)
	assertDecimal(t, "10", res.ROIPct)
	assert.Equal(t, models.AdvisoryGoodEdge, res.Advisory)
	assert.NotEqual(t, uuid.Nil, res.ID)
}

// TestCompute_SmallEdgeScenario tests odds 1.90 with a 55% estimate
func TestCompute_SmallEdgeScenario(t *testing.T) {
	calc := setupTestCalculator()

	res, err := calc.Compute(stakeInputs(10000, 1.90, 55, 50))

	require.NoError(t, err)
	assert.Equal(t, "52.63", res.ImpliedProbabilityPct.StringFixed(2))
	assert.True(t, res.HasEdge)
	assertDecimal(t, "4.5", res.EdgePct)
	assert.Equal(t, models.AdvisorySmallEdge, res.Advisory)
}

// TestCompute_HomeUnderdogScenarios tests the 40% estimate against two prices
func TestCompute_HomeUnderdogScenarios(t *testing.T) {
	calc := setupTestCalculator()

	tests := []struct {
		name        string
		odds        float64
		wantImplied string
		wantEdge    bool
		advisory    models.Advisory
	}{
		{name: "2.80 has value", odds: 2.80, wantImplied: "35.7", wantEdge: true, advisory: models.AdvisoryGoodEdge},
		{name: "2.40 has no value", odds: 2.40, wantImplied: "41.7", wantEdge: false, advisory: models.AdvisoryNoEdge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := calc.Compute(stakeInputs(10000, tt.odds, 40, 50))

			require.NoError(t, err)
			assert.Equal(t, tt.wantImplied, res.ImpliedProbabilityPct.StringFixed(1))
			assert.Equal(t, tt.wantEdge, res.HasEdge)
			assert.Equal(t, tt.advisory, res.Advisory)
		})
	}
}

// TestCompute_EdgeExactlyAtThreshold tests that a 5% edge is a good edge
func TestCompute_EdgeExactlyAtThreshold(t *testing.T) {
	calc := setupTestCalculator()

	// 52.5% at 2.00 is exactly 5% above the implied 50%
	res, err := calc.Compute(stakeInputs(1000, 2.0, 52.5, 100))

	require.NoError(t, err)
	assertDecimal(t, "5", res.EdgePct)
	assert.Equal(t, models.AdvisoryGoodEdge, res.Advisory)
}

// TestClassify tests advisory ordering and the threshold boundary
func TestClassify(t *testing.T) {
	calc := setupTestCalculator()

	tests := []struct {
		name    string
		hasEdge bool
		edge    string
		want    models.Advisory
	}{
		{name: "no edge wins over large edge value", hasEdge: false, edge: "12", want: models.AdvisoryNoEdge},
		{name: "negative edge", hasEdge: false, edge: "-4", want: models.AdvisoryNoEdge},
		{name: "just below threshold", hasEdge: true, edge: "4.999", want: models.AdvisorySmallEdge},
		{name: "exactly at threshold", hasEdge: true, edge: "5.0", want: models.AdvisoryGoodEdge},
		{name: "above threshold", hasEdge: true, edge: "10", want: models.AdvisoryGoodEdge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calc.Classify(tt.hasEdge, decimal.RequireFromString(tt.edge)))
		})
	}
}

// TestCompute_ZeroStake tests the zero stake sentinel for ROI
func TestCompute_ZeroStake(t *testing.T) {
	calc := setupTestCalculator()

	tests := []struct {
		name     string
		inputs   models.StakeInputs
		advisory models.Advisory
	}{
		{name: "zero bankroll with edge", inputs: stakeInputs(0, 2.0, 60, 50), advisory: models.AdvisoryGoodEdge},
		{name: "negative Kelly clamped", inputs: stakeInputs(10000, 2.0, 30, 50), advisory: models.AdvisoryNoEdge},
		{name: "zero probability", inputs: stakeInputs(10000, 3.0, 0, 100), advisory: models.AdvisoryNoEdge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := calc.Compute(tt.inputs)

			require.NoError(t, err)
			assert.True(t, res.StakeAmount.IsZero())
			assert.True(t, res.ROIPct.IsZero())
			assert.True(t, res.ExpectedValue.IsZero())
			assert.Equal(t, tt.advisory, res.Advisory)
		})
	}
}

// TestCompute_InvalidInputs tests that inputs outside the domain are rejected
func TestCompute_InvalidInputs(t *testing.T) {
	calc := setupTestCalculator()

	tests := []struct {
		name    string
		inputs  models.StakeInputs
		wantErr error
	}{
		{name: "odds equal to 1", inputs: stakeInputs(100, 1.0, 50, 50), wantErr: ErrInvalidOdds},
		{name: "odds below 1", inputs: stakeInputs(100, 0.5, 50, 50), wantErr: ErrInvalidOdds},
		{name: "zero odds", inputs: stakeInputs(100, 0, 50, 50), wantErr: ErrInvalidOdds},
		{name: "negative bankroll", inputs: stakeInputs(-1, 2.0, 50, 50), wantErr: ErrInvalidBankroll},
		{name: "negative probability", inputs: stakeInputs(100, 2.0, -0.1, 50), wantErr: ErrInvalidProbability},
		{name: "probability above 100", inputs: stakeInputs(100, 2.0, 100.5, 50), wantErr: ErrInvalidProbability},
		{name: "zero risk fraction", inputs: stakeInputs(100, 2.0, 50, 0), wantErr: ErrInvalidRiskFraction},
		{name: "risk fraction above 100", inputs: stakeInputs(100, 2.0, 50, 120), wantErr: ErrInvalidRiskFraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := calc.Compute(tt.inputs)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, res)
		})
	}
}

// TestCompute_ExtremeOddsRejected tests odds whose implied probability rounds to 100 or 0
func TestCompute_ExtremeOddsRejected(t *testing.T) {
	calc := setupTestCalculator()

	for _, odds := range []string{"1.00000000000000000001", "100000000000000000000"} {
		t.Run(odds, func(t *testing.T) {
			res, err := calc.Compute(models.StakeInputs{
				Bankroll:                decimal.NewFromInt(1000),
				DecimalOdds:             decimal.RequireFromString(odds),
				EstimatedProbabilityPct: hundred,
				RiskFractionPct:         hundred,
			})

			assert.ErrorIs(t, err, ErrInvalidOdds)
			assert.Nil(t, res)
		})
	}
}

// TestCompute_EdgeAgreesWithStake tests that edge, advisory and stake never contradict
// each other when the estimate sits next to the implied probability
func TestCompute_EdgeAgreesWithStake(t *testing.T) {
	calc := setupTestCalculator()

	tests := []struct {
		name        string
		odds        string
		probability string
		hasEdge     bool
		advisory    models.Advisory
	}{
		{name: "just above 2/3 at 1.5", odds: "1.5", probability: "66.66666666666666667", hasEdge: true, advisory: models.AdvisorySmallEdge},
		{name: "just below 2/3 at 1.5", odds: "1.5", probability: "66.66666666666666666", hasEdge: false, advisory: models.AdvisoryNoEdge},
		{name: "just above 1/3 at 3", odds: "3", probability: "33.33333333333333334", hasEdge: true, advisory: models.AdvisorySmallEdge},
		{name: "exactly break even", odds: "4", probability: "25", hasEdge: false, advisory: models.AdvisoryNoEdge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := calc.Compute(models.StakeInputs{
				Bankroll:                decimal.NewFromInt(10000),
				DecimalOdds:             decimal.RequireFromString(tt.odds),
				EstimatedProbabilityPct: decimal.RequireFromString(tt.probability),
				RiskFractionPct:         hundred,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.hasEdge, res.HasEdge)
			assert.Equal(t, tt.advisory, res.Advisory)
			assert.Equal(t, tt.hasEdge, res.EdgePct.IsPositive(), "edge %s", res.EdgePct)
			assert.Equal(t, tt.hasEdge, res.FullKellyFraction.IsPositive(), "kelly %s", res.FullKellyFraction)
			assert.Equal(t, tt.hasEdge, res.StakeAmount.IsPositive(), "stake %s", res.StakeAmount)
			assert.True(t, res.ImpliedProbabilityPct.LessThan(hundred))
		})
	}
}

// TestEdgePct_Exact tests that the edge carries no rounding from a division
func TestEdgePct_Exact(t *testing.T) {
	assertDecimal(t, "4.5", EdgePct(decimal.NewFromInt(55), decimal.RequireFromString("1.90")))
	assertDecimal(t, "0.00000000000000002",
		EdgePct(decimal.RequireFromString("33.33333333333333334"), decimal.NewFromInt(3)))
	assert.True(t, HasEdge(decimal.RequireFromString("33.33333333333333334"), decimal.NewFromInt(3)))
	assert.False(t, HasEdge(decimal.NewFromInt(25), decimal.NewFromInt(4)))
}

// TestCompute_ImpliedProbabilityBounds tests 0 < implied < 100 for odds above 1
func TestCompute_ImpliedProbabilityBounds(t *testing.T) {
	step := decimal.RequireFromString("0.37")
	limit := decimal.NewFromInt(500)

	for odds := decimal.RequireFromString("1.001"); odds.LessThan(limit); odds = odds.Add(step) {
		implied := ImpliedProbabilityPct(odds)
		assert.True(t, implied.IsPositive(), "implied %s for odds %s", implied, odds)
		assert.True(t, implied.LessThan(hundred), "implied %s for odds %s", implied, odds)
	}
}

// TestCompute_KellyNeverNegativeAndMonotone tests clamping and monotonicity in the estimate
func TestCompute_KellyNeverNegativeAndMonotone(t *testing.T) {
	calc := setupTestCalculator()
	probStep := decimal.RequireFromString("0.5")

	for _, odds := range []string{"1.01", "1.5", "1.9", "2.0", "2.8", "4.33", "11", "101"} {
		previous := decimal.Zero
		for prob := decimal.Zero; prob.LessThanOrEqual(hundred); prob = prob.Add(probStep) {
			res, err := calc.Compute(models.StakeInputs{
				Bankroll:                decimal.NewFromInt(1000),
				DecimalOdds:             decimal.RequireFromString(odds),
				EstimatedProbabilityPct: prob,
				RiskFractionPct:         decimal.NewFromInt(25),
			})
			require.NoError(t, err)

			assert.False(t, res.FullKellyFraction.IsNegative(), "odds %s prob %s", odds, prob)
			assert.True(t, res.FullKellyFraction.GreaterThanOrEqual(previous),
				"kelly decreased at odds %s prob %s: %s < %s", odds, prob, res.FullKellyFraction, previous)
			previous = res.FullKellyFraction
		}
	}
}

// TestCompute_FullRiskFraction tests that 100% risk applies full Kelly exactly
func TestCompute_FullRiskFraction(t *testing.T) {
	calc := setupTestCalculator()

	for _, in := range []models.StakeInputs{
		stakeInputs(10000, 2.0, 55, 100),
		stakeInputs(2500, 1.9, 58, 100),
		stakeInputs(777, 3.75, 31, 100),
	} {
		res, err := calc.Compute(in)
		require.NoError(t, err)
		assert.True(t, res.AppliedKellyFraction.Equal(res.FullKellyFraction),
			"applied %s != full %s", res.AppliedKellyFraction, res.FullKellyFraction)
	}
}

// TestBatchCompute_SkipsInvalid tests that invalid entries are dropped from a batch
func TestBatchCompute_SkipsInvalid(t *testing.T) {
	calc := setupTestCalculator()

	inputs := []models.StakeInputs{
		stakeInputs(10000, 2.0, 55, 50),
		stakeInputs(10000, 1.0, 55, 50), // invalid odds
		stakeInputs(10000, 1.9, 55, 50),
	}

	results, err := calc.BatchCompute(inputs)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assertDecimal(t, "500", results[0].StakeAmount)
	assert.Equal(t, models.AdvisorySmallEdge, results[1].Advisory)
}

// TestBatchCompute_Empty tests an empty batch
func TestBatchCompute_Empty(t *testing.T) {
	calc := setupTestCalculator()

	results, err := calc.BatchCompute(nil)

	assert.NoError(t, err)
	assert.Empty(t, results)
}

// TestAdvisoryMessage tests the rendered advice per advisory
func TestAdvisoryMessage(t *testing.T) {
	calc := setupTestCalculator()

	good, err := calc.Compute(stakeInputs(10000, 2.0, 55, 50))
	require.NoError(t, err)
	assert.Contains(t, AdvisoryMessage(good), "Good value")
	assert.Contains(t, AdvisoryMessage(good), "10.0%")

	small, err := calc.Compute(stakeInputs(10000, 1.9, 55, 50))
	require.NoError(t, err)
	assert.Contains(t, AdvisoryMessage(small), "Small value (4.5%)")

	none, err := calc.Compute(stakeInputs(10000, 2.4, 40, 50))
	require.NoError(t, err)
	assert.Contains(t, AdvisoryMessage(none), "No value")
	assert.Contains(t, AdvisoryMessage(none), "41.7%")

	assert.Empty(t, AdvisoryMessage(&models.StakeResult{}))
}
