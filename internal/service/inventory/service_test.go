package inventory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository"
	"github.com/mamadbah2/stockroom/internal/repository/memory"
)

var errShouldFail = errors.New("store should fail")

// flakyStore wraps the memory store; it can fail every call or make the
// first Create lose a race against a concurrent writer.
type flakyStore struct {
	*memory.InventoryStore
	fail      bool
	raceOnce  bool
	createdBy string
}

func (f *flakyStore) Increment(ctx context.Context, ownerID, identifier string) (*models.InventoryItem, error) {
	if f.fail {
		return nil, errShouldFail
	}
	return f.InventoryStore.Increment(ctx, ownerID, identifier)
}

func (f *flakyStore) Create(ctx context.Context, item models.InventoryItem) error {
	if f.fail {
		return errShouldFail
	}
	if f.raceOnce {
		f.raceOnce = false
		competitor := item
		competitor.ID = "competitor"
		if err := f.InventoryStore.Create(ctx, competitor); err != nil {
			return err
		}
		return fmt.Errorf("%s: %w", item.Name, repository.ErrAlreadyExists)
	}
	return f.InventoryStore.Create(ctx, item)
}

func (f *flakyStore) DecrementOrDelete(ctx context.Context, ownerID, identifier string) (*models.InventoryItem, bool, error) {
	if f.fail {
		return nil, false, errShouldFail
	}
	return f.InventoryStore.DecrementOrDelete(ctx, ownerID, identifier)
}

func (f *flakyStore) List(ctx context.Context, ownerID string) ([]models.InventoryItem, error) {
	if f.fail {
		return nil, errShouldFail
	}
	return f.InventoryStore.List(ctx, ownerID)
}

var (
	alice = &models.Principal{ID: "alice", Email: "alice@example.com"}
	bob   = &models.Principal{ID: "bob", Email: "bob@example.com"}
)

func newTestService() (*Service, *flakyStore) {
	store := &flakyStore{InventoryStore: memory.NewInventoryStore()}
	return NewService(store, 0, nil), store
}

func list(t *testing.T, svc *Service, p *models.Principal, filter models.Filter) []models.InventoryItem {
	t.Helper()
	items, err := svc.ListInventory(context.Background(), p, filter)
	require.NoError(t, err)
	return items
}

func TestLampScenario(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, models.AddItemRequest{Identifier: "lamp", Category: models.CategoryFurniture})
	require.NoError(t, err)
	items := list(t, svc, alice, models.Filter{})
	require.Len(t, items, 1)
	assert.Equal(t, "lamp", items[0].Name)
	assert.Equal(t, models.CategoryFurniture, items[0].Category)
	assert.Equal(t, 1, items[0].Quantity)

	_, err = svc.AddItem(ctx, alice, models.AddItemRequest{Identifier: "lamp"})
	require.NoError(t, err)
	items = list(t, svc, alice, models.Filter{})
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, models.CategoryFurniture, items[0].Category, "increment must not touch category")

	require.NoError(t, svc.RemoveItem(ctx, alice, "lamp"))
	items = list(t, svc, alice, models.Filter{})
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)

	require.NoError(t, svc.RemoveItem(ctx, alice, "lamp"))
	assert.Empty(t, list(t, svc, alice, models.Filter{}))
}

func TestAddItem_ByGeneratedID(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.AddItem(ctx, alice, models.AddItemRequest{Identifier: "desk"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.NotEqual(t, "desk", created.ID)

	updated, err := svc.AddItem(ctx, alice, models.AddItemRequest{Identifier: created.ID})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 2, updated.Quantity)
}

func TestRemoveItem_AbsentIsNoop(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, models.AddItemRequest{Identifier: "chair"})
	require.NoError(t, err)
	before, err := store.ListAll(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(ctx, alice, "sofa"))

	after, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestNetQuantityRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	ops := []struct {
		add  bool
		name string
	}{
		{true, "pen"}, {true, "pen"}, {true, "ink"}, {true, "pen"},
		{false, "pen"}, {false, "ink"}, {false, "ink"}, {true, "pad"},
	}
	want := map[string]int{}
	for _, op := range ops {
		if op.add {
			_, err := svc.AddItem(ctx, alice, models.AddItemRequest{Identifier: op.name})
			require.NoError(t, err)
			want[op.name]++
			continue
		}
		require.NoError(t, svc.RemoveItem(ctx, alice, op.name))
		if want[op.name] > 0 {
			want[op.name]--
		}
	}

	got := map[string]int{}
	for _, item := range list(t, svc, alice, models.Filter{}) {
		got[item.Name] = item.Quantity
	}
	for name, qty := range want {
		if qty == 0 {
			delete(want, name)
		}
	}
	assert.Equal(t, want, got)
}

func TestListInventory_Filters(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, req := range []models.AddItemRequest{
		{Identifier: "Notebook", Category: models.CategoryBooks},
		{Identifier: "boots", Category: models.CategoryClothing},
		{Identifier: "Cookbook", Category: models.CategoryBooks},
		{Identifier: "laptop", Category: models.CategoryElectronics},
	} {
		_, err := svc.AddItem(ctx, alice, req)
		require.NoError(t, err)
	}

	names := func(items []models.InventoryItem) []string {
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, item.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Notebook", "boots", "Cookbook"}, names(list(t, svc, alice, models.Filter{Name: "BOO"})))
	assert.Equal(t, []string{"Notebook", "Cookbook"}, names(list(t, svc, alice, models.Filter{Category: models.CategoryBooks})))
	assert.Equal(t, []string{"boots"}, names(list(t, svc, alice, models.Filter{Name: "boo", Category: models.CategoryClothing})))
	assert.Len(t, list(t, svc, alice, models.Filter{}), 4)
}

func TestOwnerIsolation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, models.AddItemRequest{Identifier: "camera", Category: models.CategoryElectronics})
	require.NoError(t, err)

	assert.Empty(t, list(t, svc, bob, models.Filter{}))

	require.NoError(t, svc.RemoveItem(ctx, bob, "camera"))
	_, err = svc.AddItem(ctx, bob, models.AddItemRequest{Identifier: "camera"})
	require.NoError(t, err)

	aliceItems := list(t, svc, alice, models.Filter{})
	require.Len(t, aliceItems, 1)
	assert.Equal(t, 1, aliceItems[0].Quantity)
	assert.Len(t, list(t, svc, bob, models.Filter{}), 1)
}

func TestNoSessionIsNoop(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	item, err := svc.AddItem(ctx, nil, models.AddItemRequest{Identifier: "lamp"})
	require.NoError(t, err)
	assert.Nil(t, item)
	require.NoError(t, svc.RemoveItem(ctx, nil, "lamp"))

	items, err := svc.ListInventory(ctx, nil, models.Filter{})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, models.AddItemRequest{Identifier: "  "})
	assert.ErrorIs(t, err, ErrIdentifierRequired)

	_, err = svc.AddItem(ctx, alice, models.AddItemRequest{Identifier: "toy", Category: "Toys"})
	assert.ErrorIs(t, err, ErrInvalidCategory)

	assert.ErrorIs(t, svc.RemoveItem(ctx, alice, ""), ErrIdentifierRequired)
}

func TestAddItem_RetriesAfterLostCreateRace(t *testing.T) {
	svc, store := newTestService()
	store.raceOnce = true

	item, err := svc.AddItem(context.Background(), alice, models.AddItemRequest{Identifier: "lamp"})
	require.NoError(t, err)
	assert.Equal(t, "competitor", item.ID)
	assert.Equal(t, 2, item.Quantity)
}

func TestStoreFailuresPropagate(t *testing.T) {
	svc, store := newTestService()
	store.fail = true
	ctx := context.Background()

	_, err := svc.AddItem(ctx, alice, models.AddItemRequest{Identifier: "lamp"})
	assert.ErrorIs(t, err, errShouldFail)
	assert.ErrorIs(t, svc.RemoveItem(ctx, alice, "lamp"), errShouldFail)
	_, err = svc.ListInventory(ctx, alice, models.Filter{})
	assert.ErrorIs(t, err, errShouldFail)
}

func TestAddItem_CreatedRecordCarriesTimestamps(t *testing.T) {
	svc, _ := newTestService()
	fixed := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	item, err := svc.AddItem(context.Background(), alice, models.AddItemRequest{Identifier: "kettle"})
	require.NoError(t, err)
	assert.Equal(t, fixed, item.CreatedAt)
	assert.Equal(t, fixed, item.UpdatedAt)

	stored, err := svc.GetItem(context.Background(), alice, "kettle")
	require.NoError(t, err)
	assert.Equal(t, fixed, stored.CreatedAt)
}

func TestGetItem(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.AddItem(ctx, alice, models.AddItemRequest{Identifier: "lamp"})
	require.NoError(t, err)

	byID, err := svc.GetItem(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "lamp", byID.Name)

	_, err = svc.GetItem(ctx, bob, "lamp")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.GetItem(ctx, nil, "lamp")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.GetItem(ctx, alice, " ")
	assert.ErrorIs(t, err, ErrIdentifierRequired)
}
