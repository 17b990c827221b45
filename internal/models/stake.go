package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Advisory classifies how attractive a stake is given the estimated edge
type Advisory string

const (
	AdvisoryNoEdge    Advisory = "no_edge"    // estimate does not beat the bookmaker
	AdvisorySmallEdge Advisory = "small_edge" // edge exists but is marginal
	AdvisoryGoodEdge  Advisory = "good_edge"  // edge meets the threshold
)

// StakeInputs holds the caller-owned values the calculator works from
type StakeInputs struct {
	Bankroll                decimal.Decimal `json:"bankroll"`
	DecimalOdds             decimal.Decimal `json:"decimal_odds"`
	EstimatedProbabilityPct decimal.Decimal `json:"estimated_probability_pct"` // 0-100
	RiskFractionPct         decimal.Decimal `json:"risk_fraction_pct"`         // fractional Kelly, (0, 100]
}

// StakeResult holds every number derived from a StakeInputs value
type StakeResult struct {
	ID                    uuid.UUID       `json:"id"`
	Inputs                StakeInputs     `json:"inputs"`
	ImpliedProbabilityPct decimal.Decimal `json:"implied_probability_pct"`
	FullKellyFraction     decimal.Decimal `json:"full_kelly_fraction"`
	AppliedKellyFraction  decimal.Decimal `json:"applied_kelly_fraction"`
	StakeAmount           decimal.Decimal `json:"stake_amount"`
	BankrollPct           decimal.Decimal `json:"bankroll_pct"` // stake as a share of bankroll
	HasEdge               bool            `json:"has_edge"`
	EdgePct               decimal.Decimal `json:"edge_pct"`
	ExpectedValue         decimal.Decimal `json:"expected_value"`
	ROIPct                decimal.Decimal `json:"roi_pct"`
	Advisory              Advisory        `json:"advisory"`
	ComputedAt            time.Time       `json:"computed_at"`
}

// CalculatorParams holds tunables for the stake calculator
type CalculatorParams struct {
	GoodEdgeThresholdPct decimal.Decimal // edge at or above this is a good edge (e.g., 5)
}

// KafkaStakeRequestMessage represents a batch of stake requests consumed from Kafka
type KafkaStakeRequestMessage struct {
	Requests  []StakeInputs `json:"requests"`
	Timestamp time.Time     `json:"timestamp"`
	BatchID   string        `json:"batch_id"`
}

// KafkaStakeResultMessage represents a batch of computed stakes published to Kafka
type KafkaStakeResultMessage struct {
	Results   []*StakeResult `json:"results"`
	Timestamp time.Time      `json:"timestamp"`
	BatchID   string         `json:"batch_id"`
}
