package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository"
)

const localIssuer = "stockroom"

type sessionClaims struct {
	Email string `json:"email"`
	gojwt.RegisteredClaims
}

// LocalProvider keeps accounts in a repository.UserStore and issues HS256
// session tokens.
type LocalProvider struct {
	users       repository.UserStore
	revocations repository.RevocationStore
	secret      []byte
	ttl         time.Duration
	cost        int
	now         func() time.Time
	logger      *zap.Logger
}

// NewLocalProvider wires the self-hosted identity provider.
func NewLocalProvider(users repository.UserStore, revocations repository.RevocationStore, secret string, ttl time.Duration, logger *zap.Logger) *LocalProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalProvider{
		users:       users,
		revocations: revocations,
		secret:      []byte(secret),
		ttl:         ttl,
		cost:        bcrypt.DefaultCost,
		now:         time.Now,
		logger:      logger,
	}
}

// SignUp registers a new account and signs it in.
func (p *LocalProvider) SignUp(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	creds, err := checkCredentials(creds)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        creds.Email,
		PasswordHash: hash,
		CreatedAt:    p.now().UTC(),
	}
	if err := p.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	p.logger.Info("user signed up", zap.String("user_id", user.ID))
	return p.issue(models.Principal{ID: user.ID, Email: user.Email})
}

// SignIn checks the password against the stored bcrypt hash.
func (p *LocalProvider) SignIn(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	creds, err := checkCredentials(creds)
	if err != nil {
		return nil, err
	}

	user, err := p.users.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return p.issue(models.Principal{ID: user.ID, Email: user.Email})
}

// SignOut revokes the token until it would have expired.
func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		return err
	}

	ttl := claims.ExpiresAt.Time.Sub(p.now())
	if err := p.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return err
	}

	p.logger.Info("user signed out", zap.String("user_id", claims.Subject))
	return nil
}

// Verify returns the principal of a valid, unrevoked token.
func (p *LocalProvider) Verify(ctx context.Context, token string) (*models.Principal, error) {
	claims, err := p.parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := p.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	return &models.Principal{ID: claims.Subject, Email: claims.Email}, nil
}

func (p *LocalProvider) issue(principal models.Principal) (*models.Session, error) {
	now := p.now()
	expiresAt := now.Add(p.ttl)

	claims := sessionClaims{
		Email: principal.Email,
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    localIssuer,
			Subject:   principal.ID,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &models.Session{Principal: principal, Token: signed, ExpiresAt: expiresAt.UTC()}, nil
}

func (p *LocalProvider) parse(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	parser := gojwt.NewParser(
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithIssuer(localIssuer),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(p.now),
	)

	_, err := parser.ParseWithClaims(token, claims, func(*gojwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil {
		p.logger.Debug("token rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
