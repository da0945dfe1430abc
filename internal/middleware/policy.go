package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/inventory-service/internal/apperr"
	"github.com/iliyamo/inventory-service/internal/policy"
)

var errForbidden = apperr.New(apperr.Forbidden, "Forbidden. Admin access required.")

// RequireCatalogMutation rejects callers whose role may not change the
// catalog. It must run after JWTAuth and before the handler binds the body,
// so a non-admin gets 403 whatever the payload.
func RequireCatalogMutation() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return errMissingToken
			}
			if !policy.CanMutateCatalog(id.Role) {
				return errForbidden
			}
			return next(c)
		}
	}
}
