//go:build integration
// +build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
)

// setupMySQL starts a MySQL container and returns a migrated handle.
func setupMySQL(t *testing.T) (*tcmysql.MySQLContainer, func()) {
	ctx := context.Background()

	c, err := tcmysql.Run(ctx,
		"mysql:8.0",
		tcmysql.WithDatabase("inventory"),
		tcmysql.WithUsername("inventory"),
		tcmysql.WithPassword("inventory"),
	)
	if err != nil {
		t.Fatalf("Failed to start MySQL container: %v", err)
	}

	cleanup := func() {
		if err := testcontainers.TerminateContainer(c); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}
	return c, cleanup
}

func TestMySQL_MigrateAndUniqueViolation(t *testing.T) {
	c, cleanup := setupMySQL(t)
	defer cleanup()

	ctx := context.Background()
	dsn, err := c.ConnectionString(ctx, "parseTime=true", "loc=UTC")
	require.NoError(t, err)

	db, err := openMySQLDSN(dsn)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db, DialectMySQL))

	now := time.Now().UTC().Truncate(time.Second)
	insert := "INSERT INTO categories (name, slug, created_at, updated_at) VALUES (?, ?, ?, ?)"
	_, err = db.ExecContext(ctx, insert, "Books", "books", now, now)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "Books", "books-2", now, now)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	// CHECK constraints are enforced by MySQL 8.0.16+.
	_, err = db.ExecContext(ctx,
		"INSERT INTO products (name, quantity, price, category_id, created_at, updated_at) VALUES ('x', -1, 1.00, 1, ?, ?)",
		now, now)
	assert.Error(t, err)

	v, err := Version(db, DialectMySQL)
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)
}
