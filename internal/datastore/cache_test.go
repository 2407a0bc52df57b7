package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citia/citewatch/internal/model"
)

type stubEntityStore struct {
	Interface
	entities []model.Entity
	calls    int
}

func (s *stubEntityStore) GetActiveEntities(_ context.Context) ([]model.Entity, error) {
	s.calls++
	return s.entities, nil
}

func TestCachingEntityStore(t *testing.T) {
	t.Parallel()

	stub := &stubEntityStore{entities: []model.Entity{
		{EntityID: "ent-1", EntityName: "Acme", Status: model.EntityActive},
	}}
	store := NewCachingEntityStore(stub)

	first, err := store.GetActiveEntities(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := store.GetActiveEntities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, stub.calls, "second read comes from the cache")

	store.InvalidateEntities()
	_, err = store.GetActiveEntities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stub.calls, "invalidation forces a reload")
}
