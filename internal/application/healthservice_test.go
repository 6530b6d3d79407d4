package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efisher/markreview/internal/domain/model"
)

type failingStore struct {
	fakeStore
}

func (f *failingStore) List(_ context.Context) ([]model.Document, error) {
	return nil, errors.New("db gone")
}

func TestHealthService_Check(t *testing.T) {
	store := newFakeStore(
		model.Document{Path: "a.md", Content: "a"},
		model.Document{Path: "b.md", Content: "b"},
	)
	svc := NewHealthService(store)

	summary, err := svc.Check(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ok", summary.Status)
	assert.Equal(t, 2, summary.DocumentCount)
}

func TestHealthService_CheckStoreFailure(t *testing.T) {
	svc := NewHealthService(&failingStore{})

	_, err := svc.Check(context.Background())
	assert.Error(t, err)
}
