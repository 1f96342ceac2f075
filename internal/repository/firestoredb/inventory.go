// Package firestoredb stores inventory records in Cloud Firestore, one document
// per item keyed by its generated id.
package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository"
)

type itemDocument struct {
	ID        string    `firestore:"id"`
	Name      string    `firestore:"name"`
	Category  string    `firestore:"category"`
	Quantity  int64     `firestore:"quantity"`
	OwnerID   string    `firestore:"owner_id"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func (d itemDocument) toItem() (*models.InventoryItem, error) {
	item := models.InventoryItem{
		ID:        d.ID,
		Name:      d.Name,
		Category:  models.Category(d.Category),
		Quantity:  int(d.Quantity),
		OwnerID:   d.OwnerID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if err := item.Validate(); err != nil {
		return nil, fmt.Errorf("item %s: %w: %v", d.ID, repository.ErrMalformedRecord, err)
	}
	return &item, nil
}

func decode(doc *firestore.DocumentSnapshot) (*models.InventoryItem, error) {
	var d itemDocument
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("item %s decode: %w: %v", doc.Ref.ID, repository.ErrMalformedRecord, err)
	}
	if d.ID == "" {
		d.ID = doc.Ref.ID
	}
	return d.toItem()
}

// Repository implements repository.InventoryStore on Firestore.
type Repository struct {
	fs     *firestore.Client
	data   *firestore.CollectionRef
	logger *zap.Logger
}

// NewRepository creates the Firestore client for project and binds collection.
func NewRepository(ctx context.Context, project, collection string, logger *zap.Logger) (*Repository, error) {
	if project == "" {
		return nil, errors.New("no projectID")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := firestore.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("failed to create FS client: %w", err)
	}

	return &Repository{
		fs:     client,
		data:   client.Collection(collection),
		logger: logger,
	}, nil
}

// Close releases the Firestore client.
func (r *Repository) Close(context.Context) error {
	return r.fs.Close()
}

// resolve finds the snapshot for identifier inside the transaction; by id
// first, then by exact name.
func (r *Repository) resolve(tx *firestore.Transaction, ownerID, identifier string) (*firestore.DocumentSnapshot, error) {
	doc, err := tx.Get(r.data.Doc(identifier)) // tx.Get, not ref.Get
	if err == nil {
		if owner, _ := doc.DataAt("owner_id"); owner == ownerID {
			return doc, nil
		}
	} else if status.Code(err) != codes.NotFound {
		return nil, err
	}

	query := r.data.Where("owner_id", "==", ownerID).Where("name", "==", identifier).Limit(1)
	docs, err := tx.Documents(query).GetAll()
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s: %w", identifier, repository.ErrNotFound)
	}
	return docs[0], nil
}

// Get reads the record addressed by identifier.
func (r *Repository) Get(ctx context.Context, ownerID, identifier string) (*models.InventoryItem, error) {
	var item *models.InventoryItem

	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := r.resolve(tx, ownerID, identifier)
		if err != nil {
			return err
		}
		item, err = decode(doc)
		return err
	}, firestore.ReadOnly)
	if err != nil {
		return nil, err
	}

	return item, nil
}

// Increment adds one unit inside a transaction; only quantity and
// updated_at are written.
func (r *Repository) Increment(ctx context.Context, ownerID, identifier string) (*models.InventoryItem, error) {
	var item *models.InventoryItem

	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := r.resolve(tx, ownerID, identifier)
		if err != nil {
			return err
		}
		current, err := decode(doc)
		if err != nil {
			return err
		}

		current.Quantity++
		current.UpdatedAt = time.Now().UTC()

		update := []firestore.Update{
			{Path: "quantity", Value: current.Quantity},
			{Path: "updated_at", Value: current.UpdatedAt},
		}
		if err := tx.Update(doc.Ref, update); err != nil {
			return err
		}

		item = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// Create inserts a new record unless the id or (owner, name) is taken.
func (r *Repository) Create(ctx context.Context, item models.InventoryItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("create %s: %w: %v", item.ID, repository.ErrMalformedRecord, err)
	}

	stampCreated(&item)
	doc := itemDocument{
		ID:        item.ID,
		Name:      item.Name,
		Category:  string(item.Category),
		Quantity:  int64(item.Quantity),
		OwnerID:   item.OwnerID,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}

	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		query := r.data.Where("owner_id", "==", item.OwnerID).Where("name", "==", item.Name).Limit(1)
		existing, err := tx.Documents(query).GetAll()
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("%s: %w", item.Name, repository.ErrAlreadyExists)
		}

		// Create refuses to overwrite a document with the same id
		return tx.Create(r.data.Doc(item.ID), doc)
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("%s: %w", item.ID, repository.ErrAlreadyExists)
		}
		return err
	}

	return nil
}

// DecrementOrDelete removes one unit, deleting the document at quantity 1.
func (r *Repository) DecrementOrDelete(ctx context.Context, ownerID, identifier string) (*models.InventoryItem, bool, error) {
	var (
		item    *models.InventoryItem
		deleted bool
	)

	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := r.resolve(tx, ownerID, identifier)
		if err != nil {
			return err
		}
		current, err := decode(doc)
		if err != nil {
			return err
		}

		if current.Quantity <= 1 {
			if err := tx.Delete(doc.Ref); err != nil {
				return err
			}
			current.Quantity = 0
			item, deleted = current, true
			return nil
		}

		current.Quantity--
		current.UpdatedAt = time.Now().UTC()

		update := []firestore.Update{
			{Path: "quantity", Value: current.Quantity},
			{Path: "updated_at", Value: current.UpdatedAt},
		}
		if err := tx.Update(doc.Ref, update); err != nil {
			return err
		}

		item, deleted = current, false
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return item, deleted, nil
}

// List returns ownerID's records in document id order.
func (r *Repository) List(ctx context.Context, ownerID string) ([]models.InventoryItem, error) {
	return r.collect(ctx, r.data.Where("owner_id", "==", ownerID))
}

// ListAll returns every record.
func (r *Repository) ListAll(ctx context.Context) ([]models.InventoryItem, error) {
	return r.collect(ctx, r.data.Query)
}

func (r *Repository) collect(ctx context.Context, query firestore.Query) ([]models.InventoryItem, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	result := make([]models.InventoryItem, 0)
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query inventory: %w", err)
		}

		item, err := decode(doc)
		if err != nil {
			r.logger.Warn("skip malformed inventory document", zap.String("id", doc.Ref.ID), zap.Error(err))
			continue
		}
		result = append(result, *item)
	}

	return result, nil
}

// stampCreated fills timestamps the caller left unset.
func stampCreated(item *models.InventoryItem) {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}
}
