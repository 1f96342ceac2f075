package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository"
)

func TestInventoryStore_ResolvesByIDThenName(t *testing.T) {
	s := NewInventoryStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, models.InventoryItem{ID: "id-1", Name: "lamp", Quantity: 1, OwnerID: "alice"}))

	byID, err := s.Get(ctx, "alice", "id-1")
	require.NoError(t, err)
	byName, err := s.Get(ctx, "alice", "lamp")
	require.NoError(t, err)
	assert.Equal(t, byID.ID, byName.ID)

	_, err = s.Get(ctx, "bob", "lamp")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInventoryStore_CreateRejectsDuplicates(t *testing.T) {
	s := NewInventoryStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, models.InventoryItem{ID: "id-1", Name: "lamp", Quantity: 1, OwnerID: "alice"}))
	assert.ErrorIs(t, s.Create(ctx, models.InventoryItem{ID: "id-1", Name: "desk", Quantity: 1, OwnerID: "alice"}), repository.ErrAlreadyExists)
	assert.ErrorIs(t, s.Create(ctx, models.InventoryItem{ID: "id-2", Name: "lamp", Quantity: 1, OwnerID: "alice"}), repository.ErrAlreadyExists)
	assert.NoError(t, s.Create(ctx, models.InventoryItem{ID: "id-3", Name: "lamp", Quantity: 1, OwnerID: "bob"}))
	assert.ErrorIs(t, s.Create(ctx, models.InventoryItem{ID: "id-4", Name: "", Quantity: 1, OwnerID: "bob"}), repository.ErrMalformedRecord)
}

func TestInventoryStore_DecrementOrDelete(t *testing.T) {
	s := NewInventoryStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, models.InventoryItem{ID: "id-1", Name: "lamp", Quantity: 1, OwnerID: "alice"}))
	_, err := s.Increment(ctx, "alice", "lamp")
	require.NoError(t, err)

	item, deleted, err := s.DecrementOrDelete(ctx, "alice", "lamp")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 1, item.Quantity)

	_, deleted, err = s.DecrementOrDelete(ctx, "alice", "lamp")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, _, err = s.DecrementOrDelete(ctx, "alice", "lamp")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestInventoryStore_ListKeepsInsertionOrder(t *testing.T) {
	s := NewInventoryStore()
	ctx := context.Background()

	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, s.Create(ctx, models.InventoryItem{ID: "id-" + name, Name: name, Quantity: 1, OwnerID: "alice"}))
	}

	items, err := s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{items[0].Name, items[1].Name, items[2].Name})
}

func TestRevocationStore_Expires(t *testing.T) {
	s := NewRevocationStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Revoke(ctx, "jti", time.Minute))

	revoked, err := s.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = s.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestUserStore_CaseInsensitiveEmail(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, models.User{ID: "u1", Email: "Alice@Example.com"}))
	assert.ErrorIs(t, s.CreateUser(ctx, models.User{ID: "u2", Email: "alice@example.com"}), repository.ErrAlreadyExists)

	user, err := s.GetUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = s.GetUserByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
