package database

import (
	"database/sql"
	"embed"
	"fmt"
	"path"

	"github.com/pressly/goose/v3"
)

const (
	DialectMySQL  = "mysql"
	DialectSQLite = "sqlite3"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var embedMigrations embed.FS

func migrationsDir(dialect string) (string, error) {
	switch dialect {
	case DialectMySQL:
		return path.Join("migrations", "mysql"), nil
	case DialectSQLite:
		return path.Join("migrations", "sqlite"), nil
	}
	return "", fmt.Errorf("unknown migration dialect %q", dialect)
}

func prepare(dialect string) (string, error) {
	dir, err := migrationsDir(dialect)
	if err != nil {
		return "", err
	}
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("set dialect: %w", err)
	}
	return dir, nil
}

// Migrate applies all pending migrations for dialect.
func Migrate(db *sql.DB, dialect string) error {
	dir, err := prepare(dialect)
	if err != nil {
		return err
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Rollback reverts the most recent migration.
func Rollback(db *sql.DB, dialect string) error {
	dir, err := prepare(dialect)
	if err != nil {
		return err
	}
	if err := goose.Down(db, dir); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Version returns the current schema version.
func Version(db *sql.DB, dialect string) (int64, error) {
	if _, err := prepare(dialect); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db)
}

// DialectFor maps a configured driver name to its goose dialect.
func DialectFor(driver string) string {
	if driver == "sqlite" {
		return DialectSQLite
	}
	return DialectMySQL
}
