// Package memory provides mutex-guarded, non-persistent implementations of the
// repository ports. Used for local runs and by tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository"
)

// InventoryStore keeps records in insertion order, which is the iteration
// order reported by List.
type InventoryStore struct {
	mu    sync.Mutex
	order []string
	items map[string]models.InventoryItem
	now   func() time.Time
}

// NewInventoryStore returns an empty store.
func NewInventoryStore() *InventoryStore {
	return &InventoryStore{
		items: make(map[string]models.InventoryItem),
		now:   time.Now,
	}
}

// resolve must be called with mu held.
func (s *InventoryStore) resolve(ownerID, identifier string) (string, bool) {
	if item, ok := s.items[identifier]; ok && item.OwnerID == ownerID {
		return item.ID, true
	}
	for _, id := range s.order {
		item := s.items[id]
		if item.OwnerID == ownerID && item.Name == identifier {
			return id, true
		}
	}
	return "", false
}

// Get returns a copy of the record addressed by identifier.
func (s *InventoryStore) Get(_ context.Context, ownerID, identifier string) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.resolve(ownerID, identifier)
	if !ok {
		return nil, fmt.Errorf("%s: %w", identifier, repository.ErrNotFound)
	}
	item := s.items[id]
	return &item, nil
}

// Increment adds one unit to an existing record.
func (s *InventoryStore) Increment(_ context.Context, ownerID, identifier string) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.resolve(ownerID, identifier)
	if !ok {
		return nil, fmt.Errorf("%s: %w", identifier, repository.ErrNotFound)
	}
	item := s.items[id]
	item.Quantity++
	item.UpdatedAt = s.now().UTC()
	s.items[id] = item
	return &item, nil
}

// Create inserts item, rejecting id and (owner, name) collisions.
func (s *InventoryStore) Create(_ context.Context, item models.InventoryItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("create %s: %w: %v", item.ID, repository.ErrMalformedRecord, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; ok {
		return fmt.Errorf("%s: %w", item.ID, repository.ErrAlreadyExists)
	}
	if _, ok := s.resolve(item.OwnerID, item.Name); ok {
		return fmt.Errorf("%s: %w", item.Name, repository.ErrAlreadyExists)
	}

	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now().UTC()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}
	s.items[item.ID] = item
	s.order = append(s.order, item.ID)
	return nil
}

// DecrementOrDelete removes one unit or the whole record at quantity 1.
func (s *InventoryStore) DecrementOrDelete(_ context.Context, ownerID, identifier string) (*models.InventoryItem, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.resolve(ownerID, identifier)
	if !ok {
		return nil, false, fmt.Errorf("%s: %w", identifier, repository.ErrNotFound)
	}

	item := s.items[id]
	if item.Quantity <= 1 {
		delete(s.items, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		item.Quantity = 0
		return &item, true, nil
	}

	item.Quantity--
	item.UpdatedAt = s.now().UTC()
	s.items[id] = item
	return &item, false, nil
}

// List returns the records owned by ownerID.
func (s *InventoryStore) List(_ context.Context, ownerID string) ([]models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]models.InventoryItem, 0, len(s.order))
	for _, id := range s.order {
		if item := s.items[id]; item.OwnerID == ownerID {
			result = append(result, item)
		}
	}
	return result, nil
}

// ListAll returns every record.
func (s *InventoryStore) ListAll(_ context.Context) ([]models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]models.InventoryItem, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.items[id])
	}
	return result, nil
}

// Close is a no-op.
func (s *InventoryStore) Close(context.Context) error { return nil }
