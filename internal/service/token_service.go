package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/inventory-service/internal/apperr"
	"github.com/iliyamo/inventory-service/internal/clock"
	"github.com/iliyamo/inventory-service/internal/config"
	"github.com/iliyamo/inventory-service/internal/model"
)

// Token verification failures. All three are Unauthenticated to callers.
var (
	ErrTokenInvalid = apperr.New(apperr.Unauthenticated, "Invalid or expired token")
	ErrTokenExpired = apperr.New(apperr.Unauthenticated, "Token has expired")
	ErrTokenRevoked = apperr.New(apperr.Unauthenticated, "Token has been invalidated")
)

// Claims is the payload of a session token.
type Claims struct {
	UserID uint64 `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RevocationLedger records tokens invalidated before expiry.
type RevocationLedger interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenService issues and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	ledger RevocationLedger
	clock  clock.Clock
	parser *jwt.Parser
}

// NewTokenService fails with a Misconfiguration error when no signing key
// is configured.
func NewTokenService(cfg config.JWTConfig, ledger RevocationLedger, clk clock.Clock) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, apperr.New(apperr.Misconfiguration, "JWT secret is not configured")
	}
	if cfg.TTL <= 0 {
		return nil, apperr.New(apperr.Misconfiguration, "JWT TTL must be positive")
	}
	return &TokenService{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		ledger: ledger,
		clock:  clk,
		// Expiry is checked against the injected clock in Verify.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Issue signs a token for the subject valid for the configured TTL.
func (s *TokenService) Issue(userID uint64, email, role string) (string, time.Time, error) {
	now := s.clock.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps tokens issued in the same second distinct.
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, apperr.Wrap(apperr.Internal, "Could not issue token", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks the signature, then expiry, then the revocation ledger.
func (s *TokenService) Verify(ctx context.Context, raw string) (model.Identity, error) {
	claims := &Claims{}
	tok, err := s.parser.ParseWithClaims(raw, claims, s.keyFunc)
	if err != nil || !tok.Valid {
		return model.Identity{}, ErrTokenInvalid
	}
	if claims.UserID == 0 || claims.Role == "" || claims.ExpiresAt == nil {
		return model.Identity{}, ErrTokenInvalid
	}
	if !s.clock.Now().Before(claims.ExpiresAt.Time) {
		return model.Identity{}, ErrTokenExpired
	}

	revoked, err := s.ledger.IsRevoked(ctx, raw)
	if err != nil {
		return model.Identity{}, apperr.Store(err)
	}
	if revoked {
		return model.Identity{}, ErrTokenRevoked
	}
	return model.Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}

// DecodeUnchecked extracts claims without checking signature or expiry.
// Only use it on a token that has already passed Verify.
func (s *TokenService) DecodeUnchecked(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := s.parser.ParseUnverified(raw, claims); err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Revoke adds raw to the ledger until its own expiry. Tokens without an
// exp claim are kept for a full TTL.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	claims, err := s.DecodeUnchecked(raw)
	if err != nil {
		return err
	}
	exp := s.clock.Now().Add(s.ttl)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return s.ledger.Revoke(ctx, raw, exp)
}

// PurgeExpired drops ledger entries for tokens that have expired anyway.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.ledger.PurgeExpired(ctx, s.clock.Now())
}

// RunPurgeLoop calls PurgeExpired every interval until ctx is done.
func (s *TokenService) RunPurgeLoop(ctx context.Context, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Warn("revocation purge failed", zap.Error(err))
				}
				continue
			}
			if n > 0 {
				log.Info("purged expired revocations", zap.Int64("removed", n))
			}
		}
	}
}

func (s *TokenService) keyFunc(*jwt.Token) (interface{}, error) {
	return s.secret, nil
}
