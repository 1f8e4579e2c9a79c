package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
)

// Ensure CodeStore implements the interface.
var _ driven.AuthorizationCodeStore = (*CodeStore)(nil)

// CodeStore implements driven.AuthorizationCodeStore using PostgreSQL.
type CodeStore struct {
	db *sql.DB
}

// NewCodeStore creates a new PostgreSQL-backed authorization code store.
func NewCodeStore(db *sql.DB) *CodeStore {
	return &CodeStore{db: db}
}

// Save stores a newly issued code.
func (s *CodeStore) Save(ctx context.Context, code *domain.AuthorizationCode) error {
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO authorization_codes (code, client_id, redirect_uri, scope, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		code.Code,
		code.ClientID,
		code.RedirectURI,
		code.Scope,
		code.CreatedAt,
		code.ExpiresAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("save authorization code: %w: code already issued", domain.ErrInvalidInput)
	}
	if err != nil {
		return fmt.Errorf("save authorization code: %w", err)
	}

	return nil
}

// Consume atomically retrieves and deletes the code.
// Uses DELETE ... RETURNING for atomic single-use semantics.
func (s *CodeStore) Consume(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	query := `
		DELETE FROM authorization_codes
		WHERE code = $1 AND expires_at > NOW()
		RETURNING code, client_id, redirect_uri, scope, created_at, expires_at
	`

	var c domain.AuthorizationCode
	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&c.Code,
		&c.ClientID,
		&c.RedirectURI,
		&c.Scope,
		&c.CreatedAt,
		&c.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Code not found or expired
	}
	if err != nil {
		return nil, fmt.Errorf("consume authorization code: %w", err)
	}

	return &c, nil
}

// Cleanup removes expired codes.
func (s *CodeStore) Cleanup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM authorization_codes WHERE expires_at < NOW()`); err != nil {
		return fmt.Errorf("cleanup authorization codes: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *CodeStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
