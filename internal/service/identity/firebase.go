package identity

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"sync"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository"
	"github.com/mamadbah2/stockroom/pkg/clients/identitytoolkit"
)

const firebaseIssuerPrefix = "https://securetoken.google.com/"

// ErrSigningKeysUnavailable indicates the Firebase signing certificates could
// not be fetched, so no token can be checked.
var ErrSigningKeysUnavailable = errors.New("firebase signing keys unavailable")

type firebaseClaims struct {
	Email string `json:"email"`
	gojwt.RegisteredClaims
}

// FirebaseProvider delegates credential checks to Firebase Authentication and
// verifies its RS256 ID tokens locally.
type FirebaseProvider struct {
	client      identitytoolkit.Client
	revocations repository.RevocationStore
	projectID   string
	now         func() time.Time
	logger      *zap.Logger

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	keysUntil time.Time
}

// NewFirebaseProvider wires the Firebase-backed identity provider.
func NewFirebaseProvider(client identitytoolkit.Client, revocations repository.RevocationStore, projectID string, logger *zap.Logger) *FirebaseProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirebaseProvider{
		client:      client,
		revocations: revocations,
		projectID:   projectID,
		now:         time.Now,
		logger:      logger,
	}
}

// SignUp creates a Firebase account.
func (p *FirebaseProvider) SignUp(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	creds, err := checkCredentials(creds)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.SignUp(ctx, creds.Email, creds.Password)
	if err != nil {
		var apiErr *identitytoolkit.APIError
		if errors.As(err, &apiErr) && apiErr.Message == "EMAIL_EXISTS" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("firebase sign up: %w", err)
	}

	return p.session(resp), nil
}

// SignIn verifies the password with Firebase.
func (p *FirebaseProvider) SignIn(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	creds, err := checkCredentials(creds)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.SignInWithPassword(ctx, creds.Email, creds.Password)
	if err != nil {
		var apiErr *identitytoolkit.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			p.logger.Debug("firebase rejected credentials", zap.String("reason", apiErr.Message))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("firebase sign in: %w", err)
	}

	return p.session(resp), nil
}

// SignOut revokes the ID token locally until it expires.
func (p *FirebaseProvider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(ctx, token)
	if err != nil {
		return err
	}
	return p.revocations.Revoke(ctx, tokenKey(token), claims.ExpiresAt.Time.Sub(p.now()))
}

// Verify validates signature, audience, issuer and expiry of a Firebase ID token.
func (p *FirebaseProvider) Verify(ctx context.Context, token string) (*models.Principal, error) {
	claims, err := p.parse(ctx, token)
	if err != nil {
		return nil, err
	}

	revoked, err := p.revocations.IsRevoked(ctx, tokenKey(token))
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	return &models.Principal{ID: claims.Subject, Email: claims.Email}, nil
}

func (p *FirebaseProvider) session(resp *identitytoolkit.AuthResponse) *models.Session {
	return &models.Session{
		Principal: models.Principal{ID: resp.LocalID, Email: resp.Email},
		Token:     resp.IDToken,
		ExpiresAt: p.now().Add(resp.ExpiresAfter()).UTC(),
	}
}

func (p *FirebaseProvider) parse(ctx context.Context, token string) (*firebaseClaims, error) {
	claims := &firebaseClaims{}
	parser := gojwt.NewParser(
		gojwt.WithValidMethods([]string{gojwt.SigningMethodRS256.Alg()}),
		gojwt.WithAudience(p.projectID),
		gojwt.WithIssuer(firebaseIssuerPrefix+p.projectID),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(p.now),
	)

	_, err := parser.ParseWithClaims(token, claims, func(t *gojwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return p.key(ctx, kid)
	})
	if errors.Is(err, ErrSigningKeysUnavailable) {
		return nil, ErrSigningKeysUnavailable
	}
	if err != nil {
		p.logger.Debug("firebase token rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// key returns the public key for kid. The certificate set is refetched only
// once it has expired; an unknown kid inside the cache window is rejected.
func (p *FirebaseProvider) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	p.mu.Lock()
	if p.keys != nil && p.now().Before(p.keysUntil) {
		key, ok := p.keys[kid]
		p.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("unknown signing key %q", kid)
		}
		return key, nil
	}
	p.mu.Unlock()

	certs, maxAge, err := p.client.PublicCertificates(ctx)
	if err != nil {
		p.logger.Error("fetch signing certificates failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSigningKeysUnavailable, err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for id, certPEM := range certs {
		key, err := parseCertificateKey(certPEM)
		if err != nil {
			p.logger.Warn("skip unparsable signing certificate", zap.String("kid", id), zap.Error(err))
			continue
		}
		keys[id] = key
	}

	p.mu.Lock()
	p.keys = keys
	p.keysUntil = p.now().Add(maxAge)
	p.mu.Unlock()

	key, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return key, nil
}

func parseCertificateKey(certPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, errors.New("no PEM block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("certificate key is not RSA")
	}
	return key, nil
}
