package model

import "time"

// Category represents a row in the `categories` table. Slug is derived
// from Name once at creation and never changes.
type Category struct {
	ID        uint64    `json:"id"`        // categories.id
	Name      string    `json:"name"`      // categories.name
	Slug      string    `json:"slug"`      // categories.slug
	CreatedAt time.Time `json:"createdAt"` // categories.created_at
	UpdatedAt time.Time `json:"updatedAt"` // categories.updated_at
}

// CategoryRef is the category summary embedded in product results.
type CategoryRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
