package model

import "time"

// Product represents a row in the `products` table together with its
// owning category, which is always loaded in the same query.
//
// Fields:
//
//	ID          – primary key identifier.
//	Name        – product name, searched case-insensitively.
//	Description – optional free text.
//	Quantity    – units in stock, never negative.
//	Price       – unit price with two decimal places, never negative.
//	CategoryID  – owning category.
//	Category    – summary of the owning category.
//	CreatedAt   – creation timestamp.
//	UpdatedAt   – last update timestamp.
//	DeletedAt   – soft-delete marker; non-nil rows are hidden from reads.
type Product struct {
	ID          uint64
	Name        string
	Description string
	Quantity    int
	Price       float64
	CategoryID  uint64
	Category    CategoryRef
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// PageInfo summarises one page of a listing.
type PageInfo struct {
	CurrentPage int   `json:"currentPage"`
	From        *int  `json:"from"`
	LastPage    int   `json:"lastPage"`
	PerPage     int   `json:"perPage"`
	To          *int  `json:"to"`
	Total       int64 `json:"total"`
}
