package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/inventory-service/internal/apperr"
	"github.com/iliyamo/inventory-service/internal/config"
	"github.com/iliyamo/inventory-service/internal/logger"
	"github.com/iliyamo/inventory-service/internal/model"
)

type stubVerifier struct {
	id  model.Identity
	err error
	got string
}

func (s *stubVerifier) Verify(_ context.Context, raw string) (model.Identity, error) {
	s.got = raw
	return s.id, s.err
}

type stubUsers map[uint64]*model.User

func (s stubUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, apperr.New(apperr.NotFound, "User not found")
}

func newContext(method, target, auth string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestParseBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"BEARER   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Bearer    ", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"", "", false},
		{"abc.def.ghi", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := parseBearer(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJWTAuth(t *testing.T) {
	admin := &model.User{ID: 1, Email: "admin@inventory.test", Role: model.RoleAdmin}
	users := stubUsers{1: admin}

	t.Run("missing header never reaches verifier", func(t *testing.T) {
		v := &stubVerifier{}
		err := JWTAuth(v, users)(okHandler)(newContext(http.MethodGet, "/", ""))
		assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
		assert.Empty(t, v.got)
	})

	t.Run("verifier error is returned", func(t *testing.T) {
		v := &stubVerifier{err: apperr.New(apperr.Unauthenticated, "Token has been revoked")}
		err := JWTAuth(v, users)(okHandler)(newContext(http.MethodGet, "/", "Bearer tok"))
		assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
		assert.Equal(t, "tok", v.got)
	})

	t.Run("deleted user", func(t *testing.T) {
		v := &stubVerifier{id: model.Identity{UserID: 99, Role: model.RoleUser}}
		err := JWTAuth(v, users)(okHandler)(newContext(http.MethodGet, "/", "Bearer tok"))
		require.Error(t, err)
		assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
		assert.Contains(t, err.Error(), "User not found")
	})

	t.Run("sets identity", func(t *testing.T) {
		v := &stubVerifier{id: model.Identity{UserID: 1, Email: "admin@inventory.test", Role: model.RoleAdmin}}
		c := newContext(http.MethodGet, "/", "bearer tok")
		require.NoError(t, JWTAuth(v, users)(okHandler)(c))

		id, ok := IdentityFrom(c)
		require.True(t, ok)
		assert.Equal(t, uint64(1), id.UserID)
		u, ok := CurrentUser(c)
		require.True(t, ok)
		assert.Same(t, admin, u)
		assert.Equal(t, "tok", BearerToken(c))
		assert.Equal(t, "1", userID(c))
	})
}

func TestRequireCatalogMutation(t *testing.T) {
	h := RequireCatalogMutation()(okHandler)

	c := newContext(http.MethodPost, "/", "")
	assert.Equal(t, apperr.Unauthenticated, apperr.KindOf(h(c)))

	c = newContext(http.MethodPost, "/", "")
	SetIdentity(c, model.Identity{UserID: 2, Role: model.RoleUser}, &model.User{ID: 2}, "t")
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(h(c)))

	c = newContext(http.MethodPost, "/", "")
	SetIdentity(c, model.Identity{UserID: 1, Role: model.RoleAdmin}, &model.User{ID: 1}, "t")
	assert.NoError(t, h(c))
}

func TestUserIDGuest(t *testing.T) {
	assert.Equal(t, "guest", userID(newContext(http.MethodGet, "/", "")))
}

func TestCacheKey(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}, nil, logger.Nop())

	key := func(target string) string {
		c := newContext(http.MethodGet, target, "")
		c.SetPath("/api/products")
		return rc.cacheKey(c)
	}

	a := key("/api/products?page=2&sort=name")
	assert.Equal(t, a, key("/api/products?sort=name&page=2"))
	assert.NotEqual(t, a, key("/api/products?page=3&sort=name"))
	assert.Regexp(t, `^cache:[0-9a-f]{40}$`, a)
}

func TestCacheKeyDistinguishesPathParams(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{KeyStrategy: "route"}, nil, logger.Nop())

	key := func(target string) string {
		c := newContext(http.MethodGet, target, "")
		c.SetPath("/api/products/:id")
		return rc.cacheKey(c)
	}
	assert.NotEqual(t, key("/api/products/1"), key("/api/products/2"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"success":true}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.JSONEq(t, `{"success":true}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0})
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok)
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil, logger.Nop())

	for name, mw := range map[string]echo.MiddlewareFunc{
		"cache":      rc.Middleware(),
		"invalidate": rc.InvalidateOnWrite(),
		"ratelimit":  NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, logger.Nop()),
	} {
		t.Run(name, func(t *testing.T) {
			c := newContext(http.MethodGet, "/", "")
			require.NoError(t, mw(okHandler)(c))
			assert.Equal(t, http.StatusOK, c.Response().Status)
			assert.Empty(t, c.Response().Header().Get("X-Cache"))
		})
	}
	assert.NoError(t, rc.Invalidate(context.Background()))
}

func TestBuildRateKey(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl"}
	c := newContext(http.MethodGet, "/api/products", "")
	c.SetPath("/api/products")
	c.Request().Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	SetIdentity(c, model.Identity{UserID: 7}, &model.User{ID: 7}, "t")

	assert.Equal(t, "rl:ip:10.0.0.1:user:7:route:GET /api/products", buildRateKey(cfg, c))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:7", buildRateKey(cfg, c))
}

func TestCaptureWriterLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("defg"))

	assert.Equal(t, "abcd", cw.buf.String())
	assert.Equal(t, int64(7), cw.size)
	assert.Equal(t, "abcdefg", rec.Body.String())
}
