package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/inventory-service/internal/apperr"
	"github.com/iliyamo/inventory-service/internal/clock"
	"github.com/iliyamo/inventory-service/internal/model"
)

// ProductRepo provides CRUD and soft delete for products. Reads never
// return rows whose deleted_at is set.
type ProductRepo struct {
	db    *sql.DB
	clock clock.Clock
}

func NewProductRepo(db *sql.DB, clk clock.Clock) *ProductRepo {
	return &ProductRepo{db: db, clock: clk}
}

// ProductInput carries the fields of a new product.
type ProductInput struct {
	Name        string
	Description string
	Quantity    int
	Price       float64
	CategoryID  uint64
}

// ProductPatch carries a partial update; nil fields are left unchanged.
type ProductPatch struct {
	Name        *string
	Description *string
	Quantity    *int
	Price       *float64
	CategoryID  *uint64
}

const productSelect = `SELECT
			p.id,
			p.name,
			p.description,
			p.quantity,
			p.price,
			p.category_id,
			p.created_at,
			p.updated_at,
			c.id,
			c.name,
			c.slug
		FROM products p
		JOIN categories c ON c.id = p.category_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (model.Product, error) {
	var (
		p    model.Product
		desc sql.NullString
	)
	err := s.Scan(
		&p.ID,
		&p.Name,
		&desc,
		&p.Quantity,
		&p.Price,
		&p.CategoryID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Category.ID,
		&p.Category.Name,
		&p.Category.Slug,
	)
	p.Description = desc.String
	return p, err
}

// FindByID returns a live product with its category, or ErrProductNotFound
// when the product is missing or soft-deleted.
func (r *ProductRepo) FindByID(ctx context.Context, id uint64) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx, productSelect+" WHERE p.id = ? AND p.deleted_at IS NULL", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, apperr.Store(err)
	}
	return &p, nil
}

// Create checks the category and inserts the product in one transaction.
func (r *ProductRepo) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := categoryExists(ctx, tx, in.CategoryID); err != nil {
		return nil, err
	}

	now := dbTime(r.clock.Now())
	res, err := tx.ExecContext(ctx,
		`INSERT INTO products (name, description, quantity, price, category_id, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?)`,
		in.Name, nullableString(in.Description), in.Quantity, in.Price, in.CategoryID, now, now)
	if err != nil {
		return nil, apperr.Store(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperr.Store(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Store(err)
	}
	return r.FindByID(ctx, uint64(id))
}

// Update applies the non-nil fields of patch to a live product.
func (r *ProductRepo) Update(ctx context.Context, id uint64, patch ProductPatch) (*model.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer func() { _ = tx.Rollback() }()

	var found uint64
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM products WHERE id = ? AND deleted_at IS NULL", id).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, apperr.Store(err)
	}

	sets := []string{}
	args := []any{}
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullableString(*patch.Description))
	}
	if patch.Quantity != nil {
		sets = append(sets, "quantity = ?")
		args = append(args, *patch.Quantity)
	}
	if patch.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *patch.Price)
	}
	if patch.CategoryID != nil {
		if err := categoryExists(ctx, tx, *patch.CategoryID); err != nil {
			return nil, err
		}
		sets = append(sets, "category_id = ?")
		args = append(args, *patch.CategoryID)
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, dbTime(r.clock.Now()), id)
		q := "UPDATE products SET " + strings.Join(sets, ", ") + " WHERE id = ? AND deleted_at IS NULL"
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return nil, apperr.Store(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Store(err)
	}
	return r.FindByID(ctx, id)
}

// SoftDelete marks a live product as deleted. Deleting an unknown or
// already deleted product returns ErrProductNotFound.
func (r *ProductRepo) SoftDelete(ctx context.Context, id uint64) error {
	now := dbTime(r.clock.Now())
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		now, now, id)
	if err != nil {
		return apperr.Store(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Store(err)
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// CountLive returns the number of products that are not soft-deleted.
func (r *ProductRepo) CountLive(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products WHERE deleted_at IS NULL").Scan(&n); err != nil {
		return 0, apperr.Store(err)
	}
	return n, nil
}

func categoryExists(ctx context.Context, tx *sql.Tx, id uint64) error {
	var found uint64
	err := tx.QueryRowContext(ctx, "SELECT id FROM categories WHERE id = ?", id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCategoryNotFound
	}
	return apperr.Store(err)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
