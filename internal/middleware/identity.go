package middleware

// identity.go holds the context helpers shared by the auth, policy, rate
// limit and logging middleware. Handlers read the authenticated caller
// through these functions only.

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/inventory-service/internal/model"
)

const (
	identityKey = "identity"
	userKey     = "user"
	tokenKey    = "token"
)

// SetIdentity stores the verified caller, their user row and the raw bearer
// token on the request context.
func SetIdentity(c echo.Context, id model.Identity, u *model.User, raw string) {
	c.Set(identityKey, id)
	c.Set(userKey, u)
	c.Set(tokenKey, raw)
}

// IdentityFrom returns the caller set by JWTAuth.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	return id, ok
}

// CurrentUser returns the user row loaded by JWTAuth.
func CurrentUser(c echo.Context) (*model.User, bool) {
	u, ok := c.Get(userKey).(*model.User)
	return u, ok && u != nil
}

// BearerToken returns the raw token the request authenticated with.
func BearerToken(c echo.Context) string {
	s, _ := c.Get(tokenKey).(string)
	return s
}

// parseBearer extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func parseBearer(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

// userID returns the caller's id as a string, or "guest" before
// authentication has run.
func userID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok && id.UserID != 0 {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "guest"
}
