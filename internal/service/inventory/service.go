// Package inventory implements the quantity mutation rules: add increments an
// existing record or creates it at quantity 1, remove decrements a record or
// deletes it when the last unit goes.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository"
)

var (
	// ErrIdentifierRequired indicates an empty item identifier.
	ErrIdentifierRequired = errors.New("item identifier is required")
	// ErrInvalidCategory indicates a category outside the closed set.
	ErrInvalidCategory = errors.New("invalid category")
)

// maxCreateAttempts bounds the increment-or-create loop when a concurrent
// create wins the race for the same name.
const maxCreateAttempts = 3

// Engine is the surface the HTTP layer and reporting depend on.
type Engine interface {
	AddItem(ctx context.Context, principal *models.Principal, req models.AddItemRequest) (*models.InventoryItem, error)
	GetItem(ctx context.Context, principal *models.Principal, identifier string) (*models.InventoryItem, error)
	RemoveItem(ctx context.Context, principal *models.Principal, identifier string) error
	ListInventory(ctx context.Context, principal *models.Principal, filter models.Filter) ([]models.InventoryItem, error)
}

// Service implements Engine on top of a repository.InventoryStore.
type Service struct {
	store   repository.InventoryStore
	timeout time.Duration
	logger  *zap.Logger
	newID   func() string
	now     func() time.Time
}

// NewService wires the mutation engine. A zero timeout leaves store calls
// bounded only by the caller's context.
func NewService(store repository.InventoryStore, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		timeout: timeout,
		logger:  logger,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// AddItem increments the record addressed by req.Identifier, or creates it
// with quantity 1 and req.Category when absent. Without a principal it is a no-op.
func (s *Service) AddItem(ctx context.Context, principal *models.Principal, req models.AddItemRequest) (*models.InventoryItem, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		return nil, ErrIdentifierRequired
	}
	if !req.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, req.Category)
	}
	if principal == nil {
		s.logger.Debug("add ignored without session", zap.String("identifier", identifier))
		return nil, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		item, err := s.store.Increment(ctx, principal.ID, identifier)
		if err == nil {
			s.logger.Info("item incremented",
				zap.String("owner", principal.ID), zap.String("id", item.ID), zap.Int("quantity", item.Quantity))
			return item, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("increment %s: %w", identifier, err)
		}

		now := s.now().UTC()
		created := models.InventoryItem{
			ID:        s.newID(),
			Name:      identifier,
			Category:  req.Category,
			Quantity:  1,
			OwnerID:   principal.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err = s.store.Create(ctx, created)
		if err == nil {
			s.logger.Info("item created",
				zap.String("owner", principal.ID), zap.String("id", created.ID), zap.String("category", string(created.Category)))
			return &created, nil
		}
		if !errors.Is(err, repository.ErrAlreadyExists) {
			return nil, fmt.Errorf("create %s: %w", identifier, err)
		}

		s.logger.Debug("create lost race, retrying increment", zap.String("identifier", identifier), zap.Int("attempt", attempt+1))
	}

	return nil, fmt.Errorf("add %s: %w", identifier, repository.ErrConflict)
}

// GetItem returns the record addressed by identifier. Without a principal
// nothing is visible and repository.ErrNotFound is returned.
func (s *Service) GetItem(ctx context.Context, principal *models.Principal, identifier string) (*models.InventoryItem, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrIdentifierRequired
	}
	if principal == nil {
		return nil, fmt.Errorf("%s: %w", identifier, repository.ErrNotFound)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	item, err := s.store.Get(ctx, principal.ID, identifier)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", identifier, err)
	}
	return item, nil
}

// RemoveItem takes one unit away, deleting the record at quantity 1. Absent
// records and missing sessions are no-ops.
func (s *Service) RemoveItem(ctx context.Context, principal *models.Principal, identifier string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return ErrIdentifierRequired
	}
	if principal == nil {
		s.logger.Debug("remove ignored without session", zap.String("identifier", identifier))
		return nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	item, deleted, err := s.store.DecrementOrDelete(ctx, principal.ID, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug("remove of absent item ignored", zap.String("owner", principal.ID), zap.String("identifier", identifier))
			return nil
		}
		return fmt.Errorf("remove %s: %w", identifier, err)
	}

	if deleted {
		s.logger.Info("item deleted", zap.String("owner", principal.ID), zap.String("id", item.ID))
	} else {
		s.logger.Info("item decremented",
			zap.String("owner", principal.ID), zap.String("id", item.ID), zap.Int("quantity", item.Quantity))
	}
	return nil
}

// ListInventory fetches the principal's whole collection and applies filter.
func (s *Service) ListInventory(ctx context.Context, principal *models.Principal, filter models.Filter) ([]models.InventoryItem, error) {
	if principal == nil {
		return []models.InventoryItem{}, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	items, err := s.store.List(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}

	return filter.Apply(items), nil
}
