package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/inventory-service/internal/apperr"
	"github.com/iliyamo/inventory-service/internal/clock"
	"github.com/iliyamo/inventory-service/internal/database"
	"github.com/iliyamo/inventory-service/internal/utils"
)

// RevocationRepo is the durable revocation ledger. Tokens are keyed by
// their SHA-256 digest (single 'token_hash' column).
type RevocationRepo struct {
	db    *sql.DB
	clock clock.Clock
}

func NewRevocationRepo(db *sql.DB, clk clock.Clock) *RevocationRepo {
	return &RevocationRepo{db: db, clock: clk}
}

// Revoke records token as revoked until expiresAt. Revoking a token twice
// is a no-op; the first expiry wins.
func (r *RevocationRepo) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO revoked_tokens (token_hash, expires_at, created_at) VALUES (?,?,?)",
		utils.HashToken(token), dbTime(expiresAt), dbTime(r.clock.Now()))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil
		}
		return apperr.Store(err)
	}
	return nil
}

// IsRevoked reports whether token is in the ledger.
func (r *RevocationRepo) IsRevoked(ctx context.Context, token string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM revoked_tokens WHERE token_hash = ?", utils.HashToken(token)).Scan(&n)
	if err != nil {
		return false, apperr.Store(err)
	}
	return n > 0, nil
}

// PurgeExpired deletes records whose expiry is before now and returns how
// many were removed. Safe to retry.
func (r *RevocationRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM revoked_tokens WHERE expires_at < ?", dbTime(now))
	if err != nil {
		return 0, apperr.Store(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Store(err)
	}
	return n, nil
}
