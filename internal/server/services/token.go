package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dockeeper/internal/common"
	"github.com/dmitrijs2005/dockeeper/internal/dbx"
	"github.com/dmitrijs2005/dockeeper/internal/server/config"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
	"github.com/dmitrijs2005/dockeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// HashToken returns the hex-encoded sha256 of a raw token string. Only this
// hash is ever stored or looked up; the raw value lives in the emailed link.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// TokenService manages the single-use action token lifecycle: minting,
// inspection, and atomic consumption.
type TokenService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validity    time.Duration
}

// NewTokenService constructs a TokenService using server config.
func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *TokenService {
	return &TokenService{
		db:          db,
		repomanager: m,
		validity:    cfg.ActionTokenValidityDuration,
	}
}

// Issue mints a raw token for one document and one action and stores its
// hash. The raw value is returned exactly once, for embedding in the action
// link, and is never persisted or logged.
func (s *TokenService) Issue(ctx context.Context, db dbx.DBTX, documentID, action string, now time.Time) (string, error) {
	raw, err := common.MakeRandHexString(16)
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}

	token := &models.ActionToken{
		ID:         uuid.NewString(),
		TokenHash:  HashToken(raw),
		DocumentID: documentID,
		Action:     action,
		ExpiresAt:  now.Add(s.validity),
		CreatedAt:  now,
	}
	if err := s.repomanager.Tokens(db).Create(ctx, token); err != nil {
		return "", fmt.Errorf("error storing token: %w", err)
	}
	return raw, nil
}

// Inspect resolves a raw token to its stored row and reports its lifecycle
// state. Checks run in fixed order: existence, then single-use, then expiry,
// so a token that is both used and expired reports ErrTokenUsed.
func (s *TokenService) Inspect(ctx context.Context, raw string, now time.Time) (*models.ActionToken, error) {
	if raw == "" {
		return nil, common.ErrInvalidToken
	}

	token, err := s.repomanager.Tokens(s.db).FindByHash(ctx, HashToken(raw))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTokenNotFound
		}
		return nil, fmt.Errorf("error searching token: %w", err)
	}
	if token.UsedAt != nil {
		return nil, common.ErrTokenUsed
	}
	if token.ExpiresAt.Before(now) {
		return nil, common.ErrTokenExpired
	}
	return token, nil
}

// Consume validates the token against the expected action and then, in one
// transaction, marks it used and runs apply. The conditional used_at update
// guarantees at most one concurrent caller reaches apply; losers get
// common.ErrTokenUsed and the transaction rolls back.
func (s *TokenService) Consume(ctx context.Context, raw, action string, now time.Time,
	apply func(ctx context.Context, tx dbx.DBTX, token *models.ActionToken) error) error {

	token, err := s.Inspect(ctx, raw, now)
	if err != nil {
		return err
	}
	if token.Action != action {
		return common.ErrActionMismatch
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Tokens(tx).ConsumeByHash(ctx, token.TokenHash, now); err != nil {
			return err
		}
		return apply(ctx, tx, token)
	})
}
