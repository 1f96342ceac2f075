package identitytoolkit

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultBaseURL is the Identity Toolkit REST endpoint used by Firebase Authentication.
	DefaultBaseURL = "https://identitytoolkit.googleapis.com/v1"
	// DefaultCertsURL publishes the x509 certificates signing Firebase ID tokens.
	DefaultCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"
)

// Client exposes the Identity Toolkit operations used by the application.
type Client interface {
	SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error)
	SignUp(ctx context.Context, email, password string) (*AuthResponse, error)
	PublicCertificates(ctx context.Context) (map[string]string, time.Duration, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	certsURL   string
}

// Config carries the API key and optional endpoint overrides.
type Config struct {
	APIKey   string
	BaseURL  string
	CertsURL string
}

// NewClient builds an Identity Toolkit client.
func NewClient(cfg Config) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	certsURL := cfg.CertsURL
	if certsURL == "" {
		certsURL = DefaultCertsURL
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(base).
		SetQueryParam("key", cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{
		httpClient: restyClient,
		certsURL:   certsURL,
	}
}

// AuthResponse mirrors the successful signIn/signUp payload.
type AuthResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// ExpiresAfter converts the string-encoded lifetime into a duration.
func (r AuthResponse) ExpiresAfter() time.Duration {
	seconds, err := strconv.Atoi(r.ExpiresIn)
	if err != nil || seconds <= 0 {
		return time.Hour
	}
	return time.Duration(seconds) * time.Second
}

// APIError represents an Identity Toolkit error payload; Message carries codes
// such as EMAIL_EXISTS or INVALID_LOGIN_CREDENTIALS.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity toolkit error: code=%d, message=%s", e.StatusCode, e.Message)
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// SignInWithPassword verifies an email/password pair.
func (c *APIClient) SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.post(ctx, "/accounts:signInWithPassword", passwordRequest{Email: email, Password: password, ReturnSecureToken: true})
}

// SignUp registers a new email/password account.
func (c *APIClient) SignUp(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.post(ctx, "/accounts:signUp", passwordRequest{Email: email, Password: password, ReturnSecureToken: true})
}

func (c *APIClient) post(ctx context.Context, path string, payload any) (*AuthResponse, error) {
	result := new(AuthResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(result).
		SetError(apiErr).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("identity toolkit %s: %w", path, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		e := &APIError{StatusCode: resp.StatusCode(), Message: apiErr.Error.Message}
		if apiErr.Error.Code != 0 {
			e.StatusCode = apiErr.Error.Code
		}
		return nil, e
	}

	return result, nil
}

var maxAgePattern = regexp.MustCompile(`max-age=(\d+)`)

// PublicCertificates fetches the PEM certificates keyed by key id, along with
// how long they may be cached.
func (c *APIClient) PublicCertificates(ctx context.Context) (map[string]string, time.Duration, error) {
	certs := map[string]string{}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&certs).
		Get(c.certsURL)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch signing certificates: %w", err)
	}
	if resp.IsError() {
		return nil, 0, fmt.Errorf("fetch signing certificates: status %d", resp.StatusCode())
	}

	maxAge := time.Hour
	if m := maxAgePattern.FindStringSubmatch(resp.Header().Get("Cache-Control")); m != nil {
		if seconds, err := strconv.Atoi(m[1]); err == nil {
			maxAge = time.Duration(seconds) * time.Second
		}
	}

	return certs, maxAge, nil
}
