package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/common"
	"github.com/dmitrijs2005/assetorigin/internal/server/models"
	"github.com/dmitrijs2005/assetorigin/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/assetorigin/internal/shared"
	"golang.org/x/crypto/blake2b"
)

// TokenIssuer issues and validates short-lived capability tokens for private
// assets. Tokens may be used any number of times until they expire.
type TokenIssuer struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	defaultTTL  time.Duration
	maxTTL      time.Duration
	now         func() time.Time
	newToken    func() (string, error)
}

func NewTokenIssuer(db *sql.DB, rm repomanager.RepositoryManager, defaultTTL, maxTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		db:          db,
		repomanager: rm,
		defaultTTL:  defaultTTL,
		maxTTL:      maxTTL,
		now:         time.Now,
		newToken: func() (string, error) {
			return shared.MakeRandHexString(common.MaxTokenBytes)
		},
	}
}

// Issue mints a token for assetID. A zero ttl means the configured default;
// negative values and values above the maximum are rejected.
func (s *TokenIssuer) Issue(ctx context.Context, assetID string, ttl time.Duration) (*models.AccessToken, error) {
	if ttl == 0 {
		ttl = s.defaultTTL
	}
	if ttl < 0 || ttl > s.maxTTL {
		return nil, fmt.Errorf("%w: ttl must be positive and at most %s", common.ErrorValidation, s.maxTTL)
	}

	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	// timestamptz keeps microseconds
	expiresAt := s.now().Add(ttl).UTC().Truncate(time.Microsecond)
	digest := tokenDigest(token)
	if err := s.repomanager.AccessTokens(s.db).Create(ctx, digest[:], assetID, expiresAt); err != nil {
		return nil, fmt.Errorf("error storing token: %w", err)
	}

	return &models.AccessToken{Token: token, AssetID: assetID, ExpiresAt: expiresAt}, nil
}

// Validate resolves token to a grant. Unknown, expired, malformed and
// orphaned tokens all yield common.ErrInvalidToken.
func (s *TokenIssuer) Validate(ctx context.Context, token string) (*models.AccessGrant, error) {
	if !wellFormedToken(token) {
		return nil, common.ErrInvalidToken
	}

	digest := tokenDigest(token)
	rec, err := s.repomanager.AccessTokens(s.db).Find(ctx, digest[:])
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error looking up token: %w", err)
	}

	if subtle.ConstantTimeCompare(rec.Digest, digest[:]) != 1 {
		return nil, common.ErrInvalidToken
	}
	if !s.now().Before(rec.ExpiresAt) {
		return nil, common.ErrInvalidToken
	}

	grant := rec.Grant
	return &grant, nil
}

// Sweep deletes expired tokens. Validation never depends on it.
func (s *TokenIssuer) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repomanager.AccessTokens(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("error sweeping tokens: %w", err)
	}
	return n, nil
}

func tokenDigest(token string) [blake2b.Size256]byte {
	return blake2b.Sum256([]byte(token))
}

func wellFormedToken(token string) bool {
	if len(token) != 2*common.MaxTokenBytes {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
