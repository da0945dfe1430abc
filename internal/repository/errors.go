// Package repository defines error values that are reused across the
// repositories. Each is an *apperr.Error so the HTTP layer can map it to a
// status code, and each is a stable sentinel so callers can compare with
// errors.Is.
package repository

import (
	"time"

	"github.com/iliyamo/inventory-service/internal/apperr"
)

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = apperr.New(apperr.Conflict, "Email already in use")

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = apperr.New(apperr.NotFound, "User not found")

// ErrCategoryNotFound is returned when a category id or slug is unknown.
var ErrCategoryNotFound = apperr.New(apperr.NotFound, "Category not found")

// ErrCategoryExists is returned when a new category's name or slug
// collides with an existing one.
var ErrCategoryExists = apperr.New(apperr.Conflict, "Category with this name or slug already exists")

// ErrProductNotFound is returned for unknown or soft-deleted products.
var ErrProductNotFound = apperr.New(apperr.NotFound, "Product not found")

// dbTime normalises timestamps before they reach the store. Both schemas
// keep second precision in UTC, which also keeps SQLite's text timestamps
// comparable.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
