package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/inventory-service/internal/clock"
	"github.com/iliyamo/inventory-service/internal/database"
	"github.com/iliyamo/inventory-service/internal/model"
)

var testEpoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type testRepos struct {
	db         *sql.DB
	clock      *clock.Manual
	users      *UserRepo
	categories *CategoryRepo
	products   *ProductRepo
	revoked    *RevocationRepo
}

// setupTestDB opens a migrated in-memory SQLite database.
func setupTestDB(t *testing.T) *testRepos {
	t.Helper()

	db, err := database.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, database.DialectSQLite))
	t.Cleanup(func() { db.Close() })

	clk := clock.NewManual(testEpoch)
	return &testRepos{
		db:         db,
		clock:      clk,
		users:      NewUserRepo(db, clk),
		categories: NewCategoryRepo(db, clk),
		products:   NewProductRepo(db, clk),
		revoked:    NewRevocationRepo(db, clk),
	}
}

func createTestCategory(t *testing.T, r *testRepos, name string) *model.Category {
	t.Helper()
	c, err := r.categories.Create(context.Background(), name)
	require.NoError(t, err)
	return c
}

// createTestProduct inserts a product and advances the clock one second so
// creation times are distinct.
func createTestProduct(t *testing.T, r *testRepos, name string, price float64, qty int, categoryID uint64) *model.Product {
	t.Helper()
	p, err := r.products.Create(context.Background(), ProductInput{
		Name:       name,
		Quantity:   qty,
		Price:      price,
		CategoryID: categoryID,
	})
	require.NoError(t, err)
	r.clock.Advance(time.Second)
	return p
}

func intPtr(i int) *int { return &i }
