// Category directory: categories are listed alphabetically, looked up by
// id or slug, and created with a slug derived from the name. Both name and
// slug must be unused at creation time.

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/inventory-service/internal/apperr"
	"github.com/iliyamo/inventory-service/internal/clock"
	"github.com/iliyamo/inventory-service/internal/database"
	"github.com/iliyamo/inventory-service/internal/model"
	"github.com/iliyamo/inventory-service/internal/utils"
)

// CategoryRepo encapsulates all queries related to categories.
type CategoryRepo struct {
	db    *sql.DB
	clock clock.Clock
}

func NewCategoryRepo(db *sql.DB, clk clock.Clock) *CategoryRepo {
	return &CategoryRepo{db: db, clock: clk}
}

const categoryColumns = "id, name, slug, created_at, updated_at"

// ListAll returns every category ordered by name.
func (r *CategoryRepo) ListAll(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+categoryColumns+" FROM categories ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

// Create computes the slug for name and inserts the category. It returns
// ErrCategoryExists when the name or the slug is already taken.
func (r *CategoryRepo) Create(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	slug := utils.Slugify(name)
	if slug == "" {
		return nil, apperr.Invalid(map[string][]string{
			"name": {"The name must contain at least one letter or digit."},
		})
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM categories WHERE name = ? OR slug = ?", name, slug).Scan(&n); err != nil {
		return nil, apperr.Store(err)
	}
	if n > 0 {
		return nil, ErrCategoryExists
	}

	now := dbTime(r.clock.Now())
	res, err := tx.ExecContext(ctx,
		"INSERT INTO categories (name, slug, created_at, updated_at) VALUES (?,?,?,?)",
		name, slug, now, now)
	if err != nil {
		// A concurrent insert can pass the check above.
		if database.IsUniqueViolation(err) {
			return nil, ErrCategoryExists
		}
		return nil, apperr.Store(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperr.Store(err)
	}
	if err := tx.Commit(); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrCategoryExists
		}
		return nil, apperr.Store(err)
	}
	return &model.Category{ID: uint64(id), Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}, nil
}

// FindByID returns the category with id or ErrCategoryNotFound.
func (r *CategoryRepo) FindByID(ctx context.Context, id uint64) (*model.Category, error) {
	return r.findOne(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id)
}

// FindBySlug returns the category with slug or ErrCategoryNotFound.
func (r *CategoryRepo) FindBySlug(ctx context.Context, slug string) (*model.Category, error) {
	return r.findOne(ctx, "SELECT "+categoryColumns+" FROM categories WHERE slug = ?", strings.ToLower(strings.TrimSpace(slug)))
}

func (r *CategoryRepo) findOne(ctx context.Context, q string, arg any) (*model.Category, error) {
	var c model.Category
	if err := r.db.QueryRowContext(ctx, q, arg).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, apperr.Store(err)
	}
	return &c, nil
}
