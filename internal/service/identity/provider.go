// Package identity verifies credentials and session tokens. Two providers are
// available: a self-hosted one backed by the user store, and one delegating to
// Firebase Authentication.
package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

var (
	// ErrCredentialsRequired indicates an empty email or password.
	ErrCredentialsRequired = errors.New("email and password are required")
	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken indicates a sign-up for an already registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidToken indicates a malformed, expired, or revoked session token.
	ErrInvalidToken = errors.New("invalid session token")
)

// Provider is the identity contract consumed by the HTTP layer.
type Provider interface {
	SignUp(ctx context.Context, creds models.Credentials) (*models.Session, error)
	SignIn(ctx context.Context, creds models.Credentials) (*models.Session, error)
	SignOut(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (*models.Principal, error)
}

func checkCredentials(creds models.Credentials) (models.Credentials, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return creds, ErrCredentialsRequired
	}
	return creds, nil
}

// tokenKey derives a stable revocation key for tokens without a jti claim.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
