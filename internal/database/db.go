package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/inventory-service/internal/config"
)

// Open connects to the store selected by cfg.Driver, verifies the
// connection and applies pending migrations when migrate is true.
func Open(ctx context.Context, cfg config.DBConfig, migrate bool) (*sql.DB, error) {
	var (
		db      *sql.DB
		err     error
		dialect string
	)
	switch cfg.Driver {
	case "sqlite":
		db, err = OpenSQLite(ctx, cfg.SQLitePath)
		dialect = DialectSQLite
	default:
		db, err = OpenMySQL(cfg.User, cfg.Pass, cfg.Host, cfg.Port, cfg.Name)
		dialect = DialectMySQL
	}
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := Migrate(db, dialect); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

// OpenMySQL connects to MySQL and verifies the connection.
func OpenMySQL(user, pass, host, port, name string) (*sql.DB, error) {
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	mc := mysql.NewConfig()
	mc.User = user
	mc.Passwd = pass
	mc.Net = "tcp"
	mc.Addr = host + ":" + port
	mc.DBName = name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}

	return openMySQLDSN(mc.FormatDSN())
}

func openMySQLDSN(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}
