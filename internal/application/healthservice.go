package application

import (
	"context"

	"github.com/efisher/markreview/internal/domain/port/driven"
)

// HealthSummary is the liveness probe payload.
type HealthSummary struct {
	Status        string `json:"status"`
	DocumentCount int    `json:"documentCount"`
}

// HealthService reports service liveness for the probe endpoint. It depends
// only on port interfaces.
type HealthService struct {
	store driven.DocumentStore
}

// NewHealthService creates a new HealthService with the required dependencies.
func NewHealthService(store driven.DocumentStore) *HealthService {
	return &HealthService{store: store}
}

// Check verifies the store is reachable and reports the document count.
// An error means the service should be considered unhealthy.
func (s *HealthService) Check(ctx context.Context) (*HealthSummary, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	return &HealthSummary{
		Status:        "ok",
		DocumentCount: len(docs),
	}, nil
}
