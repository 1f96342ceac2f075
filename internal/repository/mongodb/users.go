package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository"
)

type userDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash []byte    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

// CreateUser stores a new account; emails are unique case-insensitively.
func (r *MongoDBRepository) CreateUser(ctx context.Context, user models.User) error {
	doc := userDocument{
		ID:           user.ID,
		Email:        strings.ToLower(user.Email),
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", user.Email, repository.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByEmail loads an account by email.
func (r *MongoDBRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc userDocument
	err := r.users.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", email, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user %s: %w", email, err)
	}

	return &models.User{
		ID:           doc.ID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, nil
}
