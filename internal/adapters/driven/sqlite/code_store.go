// Package sqlite keeps development server authorization codes in a local
// SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
)

// Ensure CodeStore implements the interface.
var _ driven.AuthorizationCodeStore = (*CodeStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS authorization_codes (
    code          TEXT PRIMARY KEY,
    client_id     TEXT NOT NULL,
    redirect_uri  TEXT NOT NULL,
    scope         TEXT NOT NULL DEFAULT '',
    created_at    INTEGER NOT NULL,
    expires_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_authorization_codes_expires_at ON authorization_codes (expires_at);
`

// CodeStore implements driven.AuthorizationCodeStore on SQLite. Times are
// stored as unix nanoseconds.
type CodeStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
// path may be a plain file path, a file: URI, or ":memory:".
func Open(ctx context.Context, path string) (*CodeStore, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=10000&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serializes writers; a single connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &CodeStore{db: db}, nil
}

// IsPath reports whether a database URL names a SQLite database rather than
// a network server.
func IsPath(databaseURL string) bool {
	u := strings.ToLower(databaseURL)
	switch {
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return false
	case strings.HasPrefix(u, "file:"), u == ":memory:":
		return true
	case isKeywordDSN(u):
		return false
	case strings.HasSuffix(u, ".db"):
		return true
	default:
		return !strings.Contains(u, "://")
	}
}

// isKeywordDSN reports a libpq keyword/value string such as
// "dbname=imagefeed user=dev". SQLite DSN parameters only follow a '?'.
func isKeywordDSN(dsn string) bool {
	eq := strings.IndexByte(dsn, '=')
	if eq < 0 {
		return false
	}
	q := strings.IndexByte(dsn, '?')
	return q < 0 || eq < q
}

func (s *CodeStore) Save(ctx context.Context, code *domain.AuthorizationCode) error {
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO authorization_codes (code, client_id, redirect_uri, scope, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		code.Code,
		code.ClientID,
		code.RedirectURI,
		code.Scope,
		code.CreatedAt.UnixNano(),
		code.ExpiresAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save authorization code: %w", err)
	}
	return nil
}

// Consume deletes the code and returns it, or nil when it is unknown or expired.
func (s *CodeStore) Consume(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	var (
		c                  domain.AuthorizationCode
		created, expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM authorization_codes
		WHERE code = ? AND expires_at > ?
		RETURNING code, client_id, redirect_uri, scope, created_at, expires_at`,
		code, time.Now().UnixNano(),
	).Scan(&c.Code, &c.ClientID, &c.RedirectURI, &c.Scope, &created, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consume authorization code: %w", err)
	}

	c.CreatedAt = time.Unix(0, created)
	c.ExpiresAt = time.Unix(0, expiresAt)
	return &c, nil
}

func (s *CodeStore) Cleanup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM authorization_codes WHERE expires_at <= ?`, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("cleanup authorization codes: %w", err)
	}
	return nil
}

func (s *CodeStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *CodeStore) Close() error {
	return s.db.Close()
}
