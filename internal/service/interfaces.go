package service

import (
	"context"

	"github.com/cypherlabdev/stake-calculator-service/internal/models"
)

//go:generate mockgen -destination=../mocks/mock_service.go -package=mocks . Calculator,Cache,ResultPublisher

// Calculator is an interface that abstracts stake computation
// This allows for easier testing and mocking
type Calculator interface {
	Compute(in models.StakeInputs) (*models.StakeResult, error)
	BatchCompute(inputs []models.StakeInputs) ([]*models.StakeResult, error)
}

// Cache is an interface that abstracts cache operations
type Cache interface {
	Set(ctx context.Context, result *models.StakeResult) error
	Get(ctx context.Context, in models.StakeInputs) (*models.StakeResult, error)
	SetBatch(ctx context.Context, results []*models.StakeResult) error
	Ping(ctx context.Context) error
	Close() error
}

// ResultPublisher publishes computed stake batches to downstream consumers
type ResultPublisher interface {
	Publish(ctx context.Context, msg *models.KafkaStakeResultMessage) error
	Close() error
}
