package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/inventory-service/internal/clock"
	"github.com/iliyamo/inventory-service/internal/config"
	"github.com/iliyamo/inventory-service/internal/database"
	"github.com/iliyamo/inventory-service/internal/logger"
	"github.com/iliyamo/inventory-service/internal/model"
	"github.com/iliyamo/inventory-service/internal/queue"
	"github.com/iliyamo/inventory-service/internal/repository"
	"github.com/iliyamo/inventory-service/internal/service"
)

var testEpoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type testServer struct {
	e      *echo.Echo
	clock  *clock.Manual
	events *service.RecordingPublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, database.DialectSQLite))
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Env:        "test",
		BcryptCost: bcrypt.MinCost,
		JWT:        config.JWTConfig{Secret: "router-test-secret", TTL: time.Hour},
	}
	clk := clock.NewManual(testEpoch)
	tokens, err := service.NewTokenService(cfg.JWT, repository.NewRevocationRepo(db, clk), clk)
	require.NoError(t, err)

	events := &service.RecordingPublisher{}
	e := New(Deps{
		Config: cfg,
		DB:     db,
		Clock:  clk,
		Log:    logger.Nop(),
		Tokens: tokens,
		Events: events,
	})
	return &testServer{e: e, clock: clk, events: events}
}

type response struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
	Meta    *model.PageInfo     `json:"meta"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var out response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

type authData struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

func (s *testServer) register(t *testing.T, name, email, role string) authData {
	t.Helper()
	status, res := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "password", "role": role,
	})
	require.Equal(t, http.StatusCreated, status, res.Message)
	var a authData
	require.NoError(t, json.Unmarshal(res.Data, &a))
	return a
}

type productData struct {
	ID         uint64            `json:"id"`
	Name       string            `json:"name"`
	Price      string            `json:"price"`
	Quantity   int               `json:"quantity"`
	CategoryID uint64            `json:"categoryId"`
	Category   model.CategoryRef `json:"category"`
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/healthz", "/api/health"} {
		status, res := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.True(t, res.Success)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	status, res := s.do(t, http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, res.Success)
	assert.Equal(t, "Route not found", res.Message)
}

func TestRegisterLoginMe(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "Jane", "Jane@Example.com", "")
	assert.Equal(t, "jane@example.com", reg.User.Email)
	assert.Equal(t, model.RoleUser, reg.User.Role)
	assert.NotEmpty(t, reg.Token)

	status, res := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "jane@example.com", "password": "password",
	})
	require.Equal(t, http.StatusOK, status)
	login := decode[authData](t, res.Data)

	status, res = s.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[map[string]any](t, res.Data)
	assert.Equal(t, "jane@example.com", me["email"])
	assert.NotContains(t, me, "passwordHash")
	assert.NotContains(t, me, "PasswordHash")
}

func TestProductWriteRejectsOutOfRangeValues(t *testing.T) {
	s := newTestServer(t)
	admin := s.register(t, "Admin", "admin@inventory.test", model.RoleAdmin)

	status, res := s.do(t, http.MethodPost, "/api/categories", admin.Token, map[string]string{"name": "Electronics"})
	require.Equal(t, http.StatusCreated, status)
	cat := decode[model.Category](t, res.Data)

	status, res = s.do(t, http.MethodPost, "/api/products", admin.Token, map[string]any{
		"name": "Server Rack", "quantity": 3000000000, "price": 1e9, "categoryId": cat.ID,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, []string{"Quantity must not exceed 2147483647"}, res.Errors["quantity"])
	assert.Equal(t, []string{"Price must not exceed 99999999.99"}, res.Errors["price"])

	status, res = s.do(t, http.MethodPost, "/api/products", admin.Token, map[string]any{
		"name": "Server Rack", "quantity": 2147483647, "price": 99999999.99, "categoryId": cat.ID,
	})
	require.Equal(t, http.StatusCreated, status, res.Message)
	rack := decode[productData](t, res.Data)
	assert.Equal(t, "99999999.99", rack.Price)

	path := fmt.Sprintf("/api/products/%d", rack.ID)
	status, res = s.do(t, http.MethodPatch, path, admin.Token, map[string]any{"price": 100000000})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, []string{"Price must not exceed 99999999.99"}, res.Errors["price"])

	status, res = s.do(t, http.MethodPatch, path, admin.Token, map[string]any{"quantity": 2147483648})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, []string{"Quantity must not exceed 2147483647"}, res.Errors["quantity"])
}

func TestLoginAfterLogoutIssuesFreshToken(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "Jane", "jane@example.com", "")

	status, _ := s.do(t, http.MethodPost, "/api/auth/logout", reg.Token, nil)
	require.Equal(t, http.StatusOK, status)

	// Same clock instant as the revoked token.
	status, res := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "jane@example.com", "password": "password",
	})
	require.Equal(t, http.StatusOK, status, res.Message)
	login := decode[authData](t, res.Data)
	require.NotEqual(t, reg.Token, login.Token)

	status, res = s.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	assert.Equal(t, http.StatusOK, status, res.Message)

	status, _ = s.do(t, http.MethodGet, "/api/auth/me", reg.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRegisterErrors(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Jane", "jane@example.com", "")

	status, res := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Other", "email": "JANE@example.com", "password": "password",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Email already in use", res.Message)

	status, res = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "X", "email": "not-an-email", "password": "123", "role": "root",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, res.Errors, "name")
	assert.Equal(t, []string{"Please provide a valid email"}, res.Errors["email"])
	assert.Equal(t, []string{"Password must be at least 6 characters"}, res.Errors["password"])
	assert.Contains(t, res.Errors, "role")

	status, _ = s.do(t, http.MethodPost, "/api/auth/register", "", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Jane", "jane@example.com", "")

	for name, body := range map[string]map[string]string{
		"wrong password": {"email": "jane@example.com", "password": "nope-nope"},
		"unknown email":  {"email": "ghost@example.com", "password": "password"},
	} {
		t.Run(name, func(t *testing.T) {
			status, res := s.do(t, http.MethodPost, "/api/auth/login", "", body)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, "Invalid credentials", res.Message)
		})
	}
}

func TestAuthenticationRequired(t *testing.T) {
	s := newTestServer(t)

	status, res := s.do(t, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "No token provided", res.Message)

	status, _ = s.do(t, http.MethodGet, "/api/products", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "Jane", "jane@example.com", "")

	status, res := s.do(t, http.MethodPost, "/api/auth/logout", reg.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out successfully", res.Message)

	status, res = s.do(t, http.MethodGet, "/api/auth/me", reg.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has been invalidated", res.Message)

	status, _ = s.do(t, http.MethodPost, "/api/auth/logout", reg.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestExpiredToken(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "Jane", "jane@example.com", "")

	s.clock.Advance(time.Hour)
	status, res := s.do(t, http.MethodGet, "/api/auth/me", reg.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has expired", res.Message)
}

func TestNonAdminCannotMutate(t *testing.T) {
	s := newTestServer(t)
	user := s.register(t, "Jane", "jane@example.com", "")

	tests := []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/api/categories", map[string]string{"name": "Books"}},
		{http.MethodPost, "/api/categories", `{"name":`},
		{http.MethodPost, "/api/products", map[string]any{"name": "Laptop", "quantity": 1, "price": 1, "categoryId": 1}},
		{http.MethodPost, "/api/products", map[string]any{"quantity": -5}},
		{http.MethodPut, "/api/products/1", map[string]any{"name": "X"}},
		{http.MethodPatch, "/api/products/999", nil},
		{http.MethodDelete, "/api/products/1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			status, res := s.do(t, tt.method, tt.path, user.Token, tt.body)
			assert.Equal(t, http.StatusForbidden, status)
			assert.False(t, res.Success)
		})
	}
	assert.Empty(t, s.events.Events())
}

func TestCategoryLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.register(t, "Admin", "admin@inventory.test", model.RoleAdmin)

	status, res := s.do(t, http.MethodPost, "/api/categories", admin.Token, map[string]string{"name": "  Food & Beverages "})
	require.Equal(t, http.StatusCreated, status)
	cat := decode[model.Category](t, res.Data)
	assert.Equal(t, "Food & Beverages", cat.Name)
	assert.Equal(t, "food-beverages", cat.Slug)

	status, res = s.do(t, http.MethodPost, "/api/categories", admin.Token, map[string]string{"name": "Food & Beverages"})
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, res.Success)

	status, res = s.do(t, http.MethodPost, "/api/categories", admin.Token, map[string]string{"name": " a "})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, []string{"Category name must be at least 2 characters"}, res.Errors["name"])

	for _, key := range []string{"food-beverages", fmt.Sprint(cat.ID)} {
		status, res = s.do(t, http.MethodGet, "/api/categories/"+key, admin.Token, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, cat.ID, decode[model.Category](t, res.Data).ID)
	}
	status, _ = s.do(t, http.MethodGet, "/api/categories/missing", admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, res = s.do(t, http.MethodGet, "/api/categories", admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]model.Category](t, res.Data), 1)

	evs := s.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, queue.CategoryCreated, evs[0].Type)
	assert.Equal(t, cat.ID, evs[0].EntityID)
	assert.Equal(t, admin.User.ID, evs[0].ActorID)
}

func TestProductLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.register(t, "Admin", "admin@inventory.test", model.RoleAdmin)
	user := s.register(t, "Jane", "jane@example.com", "")

	status, res := s.do(t, http.MethodPost, "/api/categories", admin.Token, map[string]string{"name": "Electronics"})
	require.Equal(t, http.StatusCreated, status)
	cat := decode[model.Category](t, res.Data)

	status, res = s.do(t, http.MethodPost, "/api/products", admin.Token, map[string]any{
		"name": "Laptop", "description": "High-performance laptop", "quantity": 15, "price": 1999.99, "categoryId": cat.ID,
	})
	require.Equal(t, http.StatusCreated, status, res.Message)
	laptop := decode[productData](t, res.Data)
	assert.Equal(t, "1999.99", laptop.Price)
	assert.Equal(t, cat.ID, laptop.CategoryID)
	assert.Equal(t, "electronics", laptop.Category.Slug)

	// category_id is accepted as an alias.
	status, res = s.do(t, http.MethodPost, "/api/products", admin.Token, map[string]any{
		"name": "Wireless Mouse", "quantity": 0, "price": 30, "category_id": cat.ID,
	})
	require.Equal(t, http.StatusCreated, status, res.Message)
	mouse := decode[productData](t, res.Data)
	assert.Equal(t, "30.00", mouse.Price)
	assert.Zero(t, mouse.Quantity)

	status, res = s.do(t, http.MethodPost, "/api/products", admin.Token, map[string]any{
		"name": "Bad", "quantity": -1, "price": 1.999,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, []string{"Quantity must be a non-negative integer"}, res.Errors["quantity"])
	assert.Equal(t, []string{"Price must have at most 2 decimal places"}, res.Errors["price"])
	assert.Equal(t, []string{"Category ID is required"}, res.Errors["categoryId"])

	status, res = s.do(t, http.MethodPost, "/api/products", admin.Token, map[string]any{
		"name": "Bad", "quantity": "many", "price": 1, "categoryId": cat.ID,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, res.Errors, "quantity")

	status, _ = s.do(t, http.MethodPost, "/api/products", admin.Token, map[string]any{
		"name": "Orphan", "quantity": 1, "price": 1, "categoryId": 999,
	})
	assert.Equal(t, http.StatusNotFound, status)

	// Reads are open to any authenticated role.
	status, res = s.do(t, http.MethodGet, "/api/products?search=LAPTOP", user.Token, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[[]productData](t, res.Data)
	require.Len(t, list, 1)
	assert.Equal(t, "Laptop", list[0].Name)
	require.NotNil(t, res.Meta)
	assert.Equal(t, int64(1), res.Meta.Total)

	status, res = s.do(t, http.MethodPatch, fmt.Sprintf("/api/products/%d", laptop.ID), admin.Token, map[string]any{"price": 1899.5})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1899.50", decode[productData](t, res.Data).Price)

	status, res = s.do(t, http.MethodPut, fmt.Sprintf("/api/products/%d", laptop.ID), admin.Token, map[string]any{"name": "L"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, res.Errors, "name")

	status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", laptop.ID), admin.Token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d", laptop.ID), user.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", laptop.ID), admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(t, http.MethodGet, "/api/products/abc", user.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, res = s.do(t, http.MethodGet, "/api/products", user.Token, nil)
	require.Equal(t, http.StatusOK, status)
	list = decode[[]productData](t, res.Data)
	require.Len(t, list, 1)
	assert.Equal(t, "Wireless Mouse", list[0].Name)

	var types []string
	for _, ev := range s.events.Events() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{
		queue.CategoryCreated,
		queue.ProductCreated,
		queue.ProductCreated,
		queue.ProductUpdated,
		queue.ProductDeleted,
	}, types)
}

func TestProductListQueryParams(t *testing.T) {
	s := newTestServer(t)
	admin := s.register(t, "Admin", "admin@inventory.test", model.RoleAdmin)

	var catIDs []uint64
	for _, name := range []string{"Books", "Sports Equipment"} {
		status, res := s.do(t, http.MethodPost, "/api/categories", admin.Token, map[string]string{"name": name})
		require.Equal(t, http.StatusCreated, status)
		catIDs = append(catIDs, decode[model.Category](t, res.Data).ID)
	}
	for i := 0; i < 5; i++ {
		s.clock.Advance(time.Second)
		status, res := s.do(t, http.MethodPost, "/api/products", admin.Token, map[string]any{
			"name": fmt.Sprintf("Item %d", i), "quantity": i, "price": float64(10 - i), "categoryId": catIDs[i%2],
		})
		require.Equal(t, http.StatusCreated, status, res.Message)
	}

	status, res := s.do(t, http.MethodGet, "/api/products?per_page=2&page=2&sort=price&order=ASC", admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[[]productData](t, res.Data)
	require.Len(t, list, 2)
	assert.Equal(t, "8.00", list[0].Price)
	assert.Equal(t, "9.00", list[1].Price)
	require.NotNil(t, res.Meta)
	assert.Equal(t, 2, res.Meta.CurrentPage)
	assert.Equal(t, 3, res.Meta.LastPage)
	require.NotNil(t, res.Meta.From)
	assert.Equal(t, 3, *res.Meta.From)
	assert.Equal(t, 4, *res.Meta.To)

	status, res = s.do(t, http.MethodGet, "/api/products?category=sports-equipment&perPage=500&sort=bogus&page=x", admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	list = decode[[]productData](t, res.Data)
	require.Len(t, list, 2)
	assert.Equal(t, "Item 3", list[0].Name)
	assert.Equal(t, 100, res.Meta.PerPage)

	status, res = s.do(t, http.MethodGet, fmt.Sprintf("/api/products?category=%d", catIDs[0]), admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	for _, p := range decode[[]productData](t, res.Data) {
		assert.Equal(t, catIDs[0], p.CategoryID)
		assert.Equal(t, "books", p.Category.Slug)
	}

	status, res = s.do(t, http.MethodGet, "/api/products?search=nothing-matches", admin.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(res.Data))
	assert.Nil(t, res.Meta.From)
	assert.Nil(t, res.Meta.To)
	assert.Zero(t, res.Meta.LastPage)
}
