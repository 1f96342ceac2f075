package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/config"
)

const usersCollection = "users"

// MongoDBRepository implements repository.InventoryStore and repository.UserStore.
type MongoDBRepository struct {
	client *mongo.Client
	items  *mongo.Collection
	users  *mongo.Collection
	logger *zap.Logger
}

// NewMongoDBRepository connects, verifies the connection and ensures indexes.
func NewMongoDBRepository(ctx context.Context, cfg config.MongoDBConfig, collection string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(cfg.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(cfg.DBName)
	r := &MongoDBRepository{
		client: client,
		items:  db.Collection(collection),
		users:  db.Collection(usersCollection),
		logger: logger,
	}

	if err := r.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return r, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	itemIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: fieldOwnerID, Value: 1}, {Key: fieldName, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("owner_name_unique"),
	}
	if _, err := r.items.Indexes().CreateOne(ctx, itemIndex); err != nil {
		return fmt.Errorf("failed to create inventory index: %w", err)
	}

	userIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	}
	if _, err := r.users.Indexes().CreateOne(ctx, userIndex); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
