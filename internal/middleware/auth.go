package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/inventory-service/internal/apperr"
	"github.com/iliyamo/inventory-service/internal/model"
)

// TokenVerifier checks a raw bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (model.Identity, error)
}

// UserLoader fetches the user a token was issued to.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

var (
	errMissingToken = apperr.New(apperr.Unauthenticated, "No token provided")
	errUserGone     = apperr.New(apperr.Unauthenticated, "User not found")
)

// JWTAuth validates the Bearer token, confirms its user still exists and
// stores the identity on the context. Every failure is returned as an
// *apperr.Error for the central error handler to render.
func JWTAuth(tokens TokenVerifier, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := parseBearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return errMissingToken
			}

			ctx := c.Request().Context()
			id, err := tokens.Verify(ctx, raw)
			if err != nil {
				return err
			}

			u, err := users.GetByID(ctx, id.UserID)
			if err != nil {
				if apperr.IsKind(err, apperr.NotFound) {
					return errUserGone
				}
				return err
			}
			// The stored role wins over the one baked into the token.
			id.Role = u.Role
			id.Email = u.Email

			SetIdentity(c, id, u, raw)
			return next(c)
		}
	}
}
