package repository

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/iliyamo/inventory-service/internal/apperr"
	"github.com/iliyamo/inventory-service/internal/model"
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
	maxPage        = math.MaxInt32
)

// sortColumns is the allow-list of sortable fields. Anything else sorts by
// creation time.
var sortColumns = map[string]string{
	"name":      "p.name",
	"price":     "p.price",
	"quantity":  "p.quantity",
	"createdAt": "p.created_at",
}

// ProductQuery defines filters and pagination for listing products. Every
// field is optional and malformed values fall back to defaults instead of
// failing.
type ProductQuery struct {
	Search   string // case-insensitive substring of the name
	Category string // numeric id or slug
	Sort     string // name | price | quantity | createdAt
	Order    string // asc | desc
	PerPage  *int   // nil means DefaultPerPage
	Page     int
}

// NormalizedQuery is a ProductQuery after defaults and clamping.
type NormalizedQuery struct {
	Search       string
	CategoryID   *uint64
	CategorySlug string
	SortColumn   string
	Order        string // "ASC" or "DESC"
	PerPage      int
	Page         int
}

// Normalize applies the allow-lists, defaults and clamps.
func (q ProductQuery) Normalize() NormalizedQuery {
	n := NormalizedQuery{
		Search:     strings.TrimSpace(q.Search),
		SortColumn: sortColumns["createdAt"],
		Order:      "DESC",
		PerPage:    DefaultPerPage,
		Page:       q.Page,
	}

	if cat := strings.TrimSpace(q.Category); cat != "" {
		if id, err := strconv.ParseInt(cat, 10, 64); err == nil {
			if id > 0 {
				u := uint64(id)
				n.CategoryID = &u
			} else {
				// No category has a non-positive id.
				zero := uint64(0)
				n.CategoryID = &zero
			}
		} else {
			n.CategorySlug = strings.ToLower(cat)
		}
	}

	if col, ok := sortColumns[q.Sort]; ok {
		n.SortColumn = col
	}
	if strings.EqualFold(strings.TrimSpace(q.Order), "asc") {
		n.Order = "ASC"
	}

	if q.PerPage != nil {
		switch pp := *q.PerPage; {
		case pp > MaxPerPage:
			n.PerPage = MaxPerPage
		case pp < 1:
			n.PerPage = 1
		default:
			n.PerPage = pp
		}
	}

	if n.Page < 1 {
		n.Page = 1
	}
	if n.Page > maxPage {
		n.Page = maxPage
	}
	return n
}

// where builds the shared WHERE clause. The soft-delete predicate is
// always present.
func (n NormalizedQuery) where() (string, []any) {
	where := []string{"p.deleted_at IS NULL"}
	args := []any{}

	if n.Search != "" {
		where = append(where, "LOWER(p.name) LIKE ? ESCAPE '!'")
		args = append(args, "%"+escapeLike(strings.ToLower(n.Search))+"%")
	}
	if n.CategoryID != nil {
		where = append(where, "p.category_id = ?")
		args = append(args, *n.CategoryID)
	} else if n.CategorySlug != "" {
		where = append(where, "p.category_id IN (SELECT c2.id FROM categories c2 WHERE c2.slug = ?)")
		args = append(args, n.CategorySlug)
	}
	return strings.Join(where, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

// Query runs a filtered, sorted, paginated read over live products. Each
// product carries its category.
func (r *ProductRepo) Query(ctx context.Context, q ProductQuery) ([]model.Product, model.PageInfo, error) {
	n := q.Normalize()
	cond, args := n.where()

	var total int64
	countSQL := "SELECT COUNT(*) FROM products p WHERE " + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, model.PageInfo{}, apperr.Store(err)
	}

	limit := n.PerPage
	offset := int64(n.Page-1) * int64(n.PerPage)

	dataSQL := productSelect + `
		WHERE ` + cond + `
		ORDER BY ` + n.SortColumn + ` ` + n.Order + `, p.id ASC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, model.PageInfo{}, apperr.Store(err)
	}
	defer rows.Close()

	out := make([]model.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, model.PageInfo{}, apperr.Store(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, model.PageInfo{}, apperr.Store(err)
	}
	return out, BuildPageInfo(n.Page, n.PerPage, total, len(out)), nil
}

// BuildPageInfo computes listing metadata. from and to are 1-based and nil
// when the page is empty.
func BuildPageInfo(page, perPage int, total int64, count int) model.PageInfo {
	meta := model.PageInfo{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
	}
	if perPage > 0 {
		meta.LastPage = int((total + int64(perPage) - 1) / int64(perPage))
	}
	if count > 0 {
		from := (page-1)*perPage + 1
		to := from + count - 1
		meta.From = &from
		meta.To = &to
	}
	return meta
}
