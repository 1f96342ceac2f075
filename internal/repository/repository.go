// Package repository defines the storage ports shared by the document store
// adapters (mongodb, firestore, memory) and the token revocation stores.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

var (
	// ErrNotFound indicates the addressed record does not exist in the caller's scope.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a create collided with an existing id or name.
	ErrAlreadyExists = errors.New("already exists")
	// ErrMalformedRecord indicates a stored document failed schema validation.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrConflict indicates a compare-and-swap loop gave up after repeated interference.
	ErrConflict = errors.New("concurrent modification")
)

// InventoryStore is the document store contract consumed by the mutation engine.
// Every mutation is atomic at the storage boundary. Identifiers resolve first as
// a document id, then as an exact item name, always within ownerID's scope.
type InventoryStore interface {
	Get(ctx context.Context, ownerID, identifier string) (*models.InventoryItem, error)
	// Increment adds one to the quantity of an existing record, leaving the
	// other fields untouched. Returns ErrNotFound when absent.
	Increment(ctx context.Context, ownerID, identifier string) (*models.InventoryItem, error)
	// Create inserts a new record. Returns ErrAlreadyExists on id or
	// (owner, name) collision.
	Create(ctx context.Context, item models.InventoryItem) error
	// DecrementOrDelete removes one unit, deleting the record when the quantity
	// would reach zero. Returns ErrNotFound when absent.
	DecrementOrDelete(ctx context.Context, ownerID, identifier string) (item *models.InventoryItem, deleted bool, err error)
	// List returns every record owned by ownerID in store iteration order.
	List(ctx context.Context, ownerID string) ([]models.InventoryItem, error)
	// ListAll returns every record regardless of owner.
	ListAll(ctx context.Context) ([]models.InventoryItem, error)
	Close(ctx context.Context) error
}

// UserStore persists accounts of the local identity provider.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// RevocationStore remembers signed-out token ids until they would have expired.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
