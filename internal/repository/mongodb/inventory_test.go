package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/stockroom/internal/config"
	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository"
)

func getRepository(t *testing.T) *MongoDBRepository {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	collection := "inventory_test_" + uuid.NewString()
	repo, err := NewMongoDBRepository(ctx, config.MongoDBConfig{URI: uri, DBName: "stockroom_test"}, collection, nil)
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}

	t.Cleanup(func() {
		_ = repo.items.Drop(context.Background())
		_ = repo.Close(context.Background())
	})
	return repo
}

func newItem(owner, name string) models.InventoryItem {
	return models.InventoryItem{ID: uuid.NewString(), Name: name, Category: models.CategoryBooks, Quantity: 1, OwnerID: owner}
}

func TestIncrementAndDecrement(t *testing.T) {
	repo := getRepository(t)
	ctx := context.Background()

	item := newItem("alice", "novel")
	require.NoError(t, repo.Create(ctx, item))

	got, err := repo.Increment(ctx, "alice", "novel")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)
	assert.Equal(t, models.CategoryBooks, got.Category)

	got, deleted, err := repo.DecrementOrDelete(ctx, "alice", item.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 1, got.Quantity)

	_, deleted, err = repo.DecrementOrDelete(ctx, "alice", item.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.Get(ctx, "alice", item.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreate_DuplicateName(t *testing.T) {
	repo := getRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newItem("alice", "lamp")))
	assert.ErrorIs(t, repo.Create(ctx, newItem("alice", "lamp")), repository.ErrAlreadyExists)
	assert.NoError(t, repo.Create(ctx, newItem("bob", "lamp")))
}

func TestOwnerScoping(t *testing.T) {
	repo := getRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newItem("alice", "chair")))

	items, err := repo.List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = repo.Increment(ctx, "bob", "chair")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestList_SkipsMalformed(t *testing.T) {
	repo := getRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newItem("alice", "desk")))
	_, err := repo.items.InsertOne(ctx, bson.M{"_id": "broken", "owner_id": "alice", "name": "ghost", "quantity": 0})
	require.NoError(t, err)

	items, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "desk", items[0].Name)
}
