package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository"
)

const (
	fieldID        = "_id"
	fieldName      = "name"
	fieldQuantity  = "quantity"
	fieldOwnerID   = "owner_id"
	fieldUpdatedAt = "updated_at"

	// maxSwapAttempts bounds the decrement compare-and-swap loop.
	maxSwapAttempts = 5
)

// itemDocument is the stored shape of an inventory record.
type itemDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Category  string    `bson:"category,omitempty"`
	Quantity  int       `bson:"quantity"`
	OwnerID   string    `bson:"owner_id"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func fromItem(item models.InventoryItem) itemDocument {
	return itemDocument{
		ID:        item.ID,
		Name:      item.Name,
		Category:  string(item.Category),
		Quantity:  item.Quantity,
		OwnerID:   item.OwnerID,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func (d itemDocument) toItem() (*models.InventoryItem, error) {
	item := models.InventoryItem{
		ID:        d.ID,
		Name:      d.Name,
		Category:  models.Category(d.Category),
		Quantity:  d.Quantity,
		OwnerID:   d.OwnerID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if err := item.Validate(); err != nil {
		return nil, fmt.Errorf("item %s: %w: %v", d.ID, repository.ErrMalformedRecord, err)
	}
	return &item, nil
}

// scope matches identifier as a document id or an exact name inside ownerID's records.
func scope(ownerID, identifier string) bson.M {
	return bson.M{
		fieldOwnerID: ownerID,
		"$or": bson.A{
			bson.M{fieldID: identifier},
			bson.M{fieldName: identifier},
		},
	}
}

func with(filter bson.M, key string, value interface{}) bson.M {
	out := make(bson.M, len(filter)+1)
	for k, v := range filter {
		out[k] = v
	}
	out[key] = value
	return out
}

func decodeSingle(res *mongo.SingleResult, identifier string) (*models.InventoryItem, error) {
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", identifier, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("item %s: %w", identifier, err)
	}

	var doc itemDocument
	if err := res.Decode(&doc); err != nil {
		return nil, fmt.Errorf("item %s decode: %w: %v", identifier, repository.ErrMalformedRecord, err)
	}
	return doc.toItem()
}

// Get reads the record addressed by identifier.
func (r *MongoDBRepository) Get(ctx context.Context, ownerID, identifier string) (*models.InventoryItem, error) {
	return decodeSingle(r.items.FindOne(ctx, scope(ownerID, identifier)), identifier)
}

// Increment atomically adds one unit with $inc; the category is never touched.
func (r *MongoDBRepository) Increment(ctx context.Context, ownerID, identifier string) (*models.InventoryItem, error) {
	update := bson.M{
		"$inc": bson.M{fieldQuantity: 1},
		"$set": bson.M{fieldUpdatedAt: time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	return decodeSingle(r.items.FindOneAndUpdate(ctx, scope(ownerID, identifier), update, opts), identifier)
}

// Create inserts a new record; the unique (owner_id, name) index rejects duplicates.
func (r *MongoDBRepository) Create(ctx context.Context, item models.InventoryItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("create %s: %w: %v", item.ID, repository.ErrMalformedRecord, err)
	}

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}

	if _, err := r.items.InsertOne(ctx, fromItem(item)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", item.Name, repository.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// DecrementOrDelete runs a compare-and-swap loop: delete when the stored
// quantity is 1, otherwise decrement when it is still above 1.
func (r *MongoDBRepository) DecrementOrDelete(ctx context.Context, ownerID, identifier string) (*models.InventoryItem, bool, error) {
	filter := scope(ownerID, identifier)

	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		deleted, err := decodeSingle(r.items.FindOneAndDelete(ctx, with(filter, fieldQuantity, bson.M{"$lte": 1})), identifier)
		if err == nil {
			deleted.Quantity = 0
			return deleted, true, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, err
		}

		update := bson.M{
			"$inc": bson.M{fieldQuantity: -1},
			"$set": bson.M{fieldUpdatedAt: time.Now().UTC()},
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		item, err := decodeSingle(r.items.FindOneAndUpdate(ctx, with(filter, fieldQuantity, bson.M{"$gt": 1}), update, opts), identifier)
		if err == nil {
			return item, false, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, err
		}

		count, err := r.items.CountDocuments(ctx, filter)
		if err != nil {
			return nil, false, fmt.Errorf("count item %s: %w", identifier, err)
		}
		if count == 0 {
			return nil, false, fmt.Errorf("%s: %w", identifier, repository.ErrNotFound)
		}

		r.logger.Debug("decrement raced with another writer, retrying",
			zap.String("identifier", identifier), zap.Int("attempt", attempt+1))
	}

	return nil, false, fmt.Errorf("decrement %s: %w", identifier, repository.ErrConflict)
}

// List returns ownerID's records in natural order.
func (r *MongoDBRepository) List(ctx context.Context, ownerID string) ([]models.InventoryItem, error) {
	return r.find(ctx, bson.M{fieldOwnerID: ownerID})
}

// ListAll returns every record in the collection.
func (r *MongoDBRepository) ListAll(ctx context.Context) ([]models.InventoryItem, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoDBRepository) find(ctx context.Context, filter bson.M) ([]models.InventoryItem, error) {
	cursor, err := r.items.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]models.InventoryItem, 0)
	for cursor.Next(ctx) {
		var doc itemDocument
		if err := cursor.Decode(&doc); err != nil {
			r.logger.Warn("skip undecodable inventory document", zap.String("id", cursor.Current.Lookup(fieldID).String()), zap.Error(err))
			continue
		}
		item, err := doc.toItem()
		if err != nil {
			r.logger.Warn("skip malformed inventory document", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		result = append(result, *item)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory: %w", err)
	}

	return result, nil
}
