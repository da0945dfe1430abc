// Package seed loads the demo dataset: an admin, a regular user, six
// categories and fifteen products. Running it twice changes nothing.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/inventory-service/internal/apperr"
	"github.com/iliyamo/inventory-service/internal/model"
	"github.com/iliyamo/inventory-service/internal/repository"
	"github.com/iliyamo/inventory-service/internal/utils"
)

// DefaultPassword is the password of both seeded accounts.
const DefaultPassword = "password"

type userSeed struct {
	name, email, role string
}

var users = []userSeed{
	{"Admin User", "admin@inventory.test", model.RoleAdmin},
	{"Regular User", "user@inventory.test", model.RoleUser},
}

var categories = []string{
	"Electronics",
	"Furniture",
	"Clothing",
	"Food & Beverages",
	"Books",
	"Sports Equipment",
}

type productSeed struct {
	name, description string
	quantity          int
	price             float64
	category          string
}

var products = []productSeed{
	{"Laptop", "High-performance gaming laptop with RTX 4070", 15, 1999.99, "Electronics"},
	{"Wireless Mouse", "Ergonomic wireless mouse with precision tracking", 50, 29.99, "Electronics"},
	{"Office Chair", "Comfortable ergonomic office chair with lumbar support", 20, 299.99, "Furniture"},
	{"Standing Desk", "Adjustable height standing desk", 10, 499.99, "Furniture"},
	{"T-Shirt", "Cotton casual t-shirt, multiple colors available", 100, 19.99, "Clothing"},
	{"Jeans", "Classic blue denim jeans", 75, 59.99, "Clothing"},
	{"Coffee Beans", "Premium arabica coffee beans, 1kg pack", 200, 24.99, "Food & Beverages"},
	{"Energy Drink", "Sugar-free energy drink, 24-pack", 150, 39.99, "Food & Beverages"},
	{"Programming Book", "Clean Code: A Handbook of Agile Software Craftsmanship", 30, 44.99, "Books"},
	{"Fiction Novel", "Bestselling fiction novel", 45, 14.99, "Books"},
	{"Basketball", "Official size basketball", 25, 34.99, "Sports Equipment"},
	{"Yoga Mat", "Non-slip yoga mat with carrying strap", 40, 29.99, "Sports Equipment"},
	{"Smartphone", "Latest flagship smartphone with 5G", 30, 899.99, "Electronics"},
	{"Bookshelf", "5-tier wooden bookshelf", 12, 149.99, "Furniture"},
	{"Running Shoes", "Lightweight running shoes with cushioning", 60, 89.99, "Sports Equipment"},
}

// Seeder writes the demo dataset through the repositories.
type Seeder struct {
	Users      *repository.UserRepo
	Categories *repository.CategoryRepo
	Products   *repository.ProductRepo
	BcryptCost int
	Log        *zap.Logger
}

// Result counts what a run inserted.
type Result struct {
	Users      int
	Categories int
	Products   int
}

// Run inserts whatever is missing. Existing users and categories are kept;
// products are only seeded into an empty catalog.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result

	for _, u := range users {
		if _, err := s.Users.GetByEmail(ctx, u.email); err == nil {
			continue
		} else if !apperr.IsKind(err, apperr.NotFound) {
			return res, err
		}
		hash, err := utils.HashPassword(DefaultPassword, s.BcryptCost)
		if err != nil {
			return res, err
		}
		if _, err := s.Users.Create(ctx, u.name, u.email, hash, u.role); err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.email, err)
		}
		res.Users++
	}

	catIDs := make(map[string]uint64, len(categories))
	for _, name := range categories {
		c, err := s.Categories.Create(ctx, name)
		switch {
		case err == nil:
			res.Categories++
		case apperr.IsKind(err, apperr.Conflict):
			c, err = s.Categories.FindBySlug(ctx, utils.Slugify(name))
			if err != nil {
				return res, fmt.Errorf("seed category %s: %w", name, err)
			}
		default:
			return res, fmt.Errorf("seed category %s: %w", name, err)
		}
		catIDs[name] = c.ID
	}

	live, err := s.Products.CountLive(ctx)
	if err != nil {
		return res, err
	}
	if live > 0 {
		s.Log.Info("catalog already has products, skipping product seed", zap.Int64("live", live))
		return res, nil
	}
	for _, p := range products {
		if _, err := s.Products.Create(ctx, repository.ProductInput{
			Name:        p.name,
			Description: p.description,
			Quantity:    p.quantity,
			Price:       p.price,
			CategoryID:  catIDs[p.category],
		}); err != nil {
			return res, fmt.Errorf("seed product %s: %w", p.name, err)
		}
		res.Products++
	}
	return res, nil
}
