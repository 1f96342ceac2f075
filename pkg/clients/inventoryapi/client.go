// Package inventoryapi is a client of the stockroom HTTP API.
package inventoryapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

// ErrUnauthorized is returned when the server rejects the credentials or the session token.
var ErrUnauthorized = errors.New("unauthorized")

// Config holds the connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// APIError represents a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stockroom api error: status=%d, message=%s", e.StatusCode, e.Message)
}

// Is lets errors.Is match 401 answers against ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Client talks to the HTTP API on behalf of one session.
type Client struct {
	httpClient *resty.Client

	mu    sync.RWMutex
	token string
}

// NewClient builds an API client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Client{httpClient: restyClient}
}

// SetToken replaces the bearer token sent with item requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SignUp creates an account and adopts its session token.
func (c *Client) SignUp(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	return c.authenticate(ctx, "/auth/signup", creds)
}

// SignIn starts a session and adopts its token.
func (c *Client) SignIn(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	return c.authenticate(ctx, "/auth/signin", creds)
}

// SignOut revokes the current token server-side and forgets it.
func (c *Client) SignOut(ctx context.Context) error {
	if c.Token() == "" {
		return nil
	}
	if _, err := c.do(ctx, http.MethodPost, "/auth/signout", nil, nil); err != nil && !errors.Is(err, ErrUnauthorized) {
		return err
	}
	c.SetToken("")
	return nil
}

// List fetches the caller's items matching filter.
func (c *Client) List(ctx context.Context, filter models.Filter) ([]models.InventoryItem, error) {
	query := url.Values{}
	if filter.Name != "" {
		query.Set("name", filter.Name)
	}
	if filter.Category != models.CategoryNone {
		query.Set("category", string(filter.Category))
	}

	path := "/items"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	items := []models.InventoryItem{}
	if _, err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Add increments or creates an item.
func (c *Client) Add(ctx context.Context, req models.AddItemRequest) (*models.InventoryItem, error) {
	item := new(models.InventoryItem)
	if _, err := c.do(ctx, http.MethodPost, "/items", req, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Get fetches one item by id or exact name.
func (c *Client) Get(ctx context.Context, identifier string) (*models.InventoryItem, error) {
	item := new(models.InventoryItem)
	path := "/items/lookup?" + url.Values{"identifier": {identifier}}.Encode()
	if _, err := c.do(ctx, http.MethodGet, path, nil, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Remove takes one unit of an item away.
func (c *Client) Remove(ctx context.Context, identifier string) error {
	_, err := c.do(ctx, http.MethodPost, "/items/remove", models.ItemRequest{Identifier: identifier}, nil)
	return err
}

// Summary fetches per-category totals.
func (c *Client) Summary(ctx context.Context) (*models.InventorySummary, error) {
	summary := new(models.InventorySummary)
	if _, err := c.do(ctx, http.MethodGet, "/items/summary", nil, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (c *Client) authenticate(ctx context.Context, path string, creds models.Credentials) (*models.Session, error) {
	session := new(models.Session)
	if _, err := c.do(ctx, http.MethodPost, path, creds, session); err != nil {
		return nil, err
	}
	c.SetToken(session.Token)
	return session, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) (*resty.Response, error) {
	apiErr := new(models.ErrorResponse)

	req := c.httpClient.R().
		SetContext(ctx).
		SetError(apiErr)
	if token := c.Token(); token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("stockroom api %s %s: %w", method, path, err)
	}

	if resp.IsError() {
		message := apiErr.Error
		if message == "" {
			message = http.StatusText(resp.StatusCode())
		}
		return resp, &APIError{StatusCode: resp.StatusCode(), Message: message}
	}

	return resp, nil
}
