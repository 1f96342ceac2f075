package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository/memory"
	"github.com/mamadbah2/stockroom/internal/server/handlers"
	"github.com/mamadbah2/stockroom/internal/service/identity"
	"github.com/mamadbah2/stockroom/internal/service/inventory"
	"github.com/mamadbah2/stockroom/internal/service/reporting"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewInventoryStore()
	provider := identity.NewLocalProvider(memory.NewUserStore(), memory.NewRevocationStore(), "test-secret", time.Hour, nil)
	engine := inventory.NewService(store, time.Second, nil)
	reporter := reporting.NewService(store, nil, "", nil)

	return New(handlers.NewAuthHandler(provider, nil), handlers.NewInventoryHandler(engine, reporter, nil), nil)
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signUp(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	w := do(t, r, http.MethodPost, "/auth/signup", "", models.Credentials{Email: email, Password: "hunter2"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var session models.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	return session.Token
}

func list(t *testing.T, r http.Handler, token, query string) []models.InventoryItem {
	t.Helper()
	w := do(t, r, http.MethodGet, "/items"+query, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var items []models.InventoryItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	return items
}

func TestHealthz(t *testing.T) {
	w := do(t, newTestEngine(t), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestItemsLifecycle(t *testing.T) {
	r := newTestEngine(t)
	token := signUp(t, r, "alice@example.com")

	w := do(t, r, http.MethodPost, "/items", token, models.AddItemRequest{Identifier: "lamp", Category: "furniture"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, r, http.MethodPost, "/items", token, models.AddItemRequest{Identifier: "lamp"})
	require.Equal(t, http.StatusOK, w.Code)
	do(t, r, http.MethodPost, "/items", token, models.AddItemRequest{Identifier: "novel", Category: models.CategoryBooks})

	items := list(t, r, token, "")
	require.Len(t, items, 2)
	assert.Equal(t, "lamp", items[0].Name)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, models.CategoryFurniture, items[0].Category)

	assert.Len(t, list(t, r, token, "?name=LA"), 1)
	assert.Len(t, list(t, r, token, "?category=Books"), 1)
	assert.Empty(t, list(t, r, token, "?name=lamp&category=Books"))

	w = do(t, r, http.MethodPost, "/items/"+items[0].ID+"/remove", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, r, http.MethodPost, "/items/lamp/remove", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, r, http.MethodPost, "/items/lamp/remove", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code, "removing an absent item is a no-op")

	items = list(t, r, token, "")
	require.Len(t, items, 1)
	assert.Equal(t, "novel", items[0].Name)

	w = do(t, r, http.MethodGet, "/items/summary", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary models.InventorySummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TotalQuantity)
}

func TestItemsAreScopedToOwner(t *testing.T) {
	r := newTestEngine(t)
	alice := signUp(t, r, "alice@example.com")
	bob := signUp(t, r, "bob@example.com")

	do(t, r, http.MethodPost, "/items", alice, models.AddItemRequest{Identifier: "lamp"})

	assert.Empty(t, list(t, r, bob, ""))
	do(t, r, http.MethodPost, "/items/lamp/remove", bob, nil)
	assert.Len(t, list(t, r, alice, ""), 1)
}

func TestItemsValidation(t *testing.T) {
	r := newTestEngine(t)
	token := signUp(t, r, "alice@example.com")

	w := do(t, r, http.MethodPost, "/items", token, models.AddItemRequest{Identifier: "lamp", Category: "Garden"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/items", token, map[string]string{"category": "Books"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/items?category=Garden", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthFailures(t *testing.T) {
	r := newTestEngine(t)
	token := signUp(t, r, "alice@example.com")

	w := do(t, r, http.MethodGet, "/items", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodGet, "/items", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/auth/signin", "", models.Credentials{Email: "alice@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"authentication failed"}`, w.Body.String())

	w = do(t, r, http.MethodPost, "/auth/signup", "", models.Credentials{Email: "alice@example.com", Password: "other"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"authentication failed"}`, w.Body.String())

	w = do(t, r, http.MethodPost, "/auth/signin", "", map[string]string{"email": "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/auth/signout", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, "/items", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRemoveByNameWithSlash(t *testing.T) {
	r := newTestEngine(t)
	token := signUp(t, r, "alice@example.com")

	name := "USB-C/HDMI cable"
	w := do(t, r, http.MethodPost, "/items", token, models.AddItemRequest{Identifier: name, Category: models.CategoryElectronics})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/items/lookup?identifier=USB-C%2FHDMI+cable", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var found models.InventoryItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	assert.Equal(t, name, found.Name)
	assert.False(t, found.CreatedAt.IsZero())

	w = do(t, r, http.MethodPost, "/items/remove", token, models.ItemRequest{Identifier: name})
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Empty(t, list(t, r, token, ""))

	w = do(t, r, http.MethodGet, "/items/lookup?identifier=USB-C%2FHDMI+cable", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/items/remove", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
