// Package tokenstore persists OAuth tokens in a local SQLite database so
// applications skip the interactive flow on later runs. Persistence is
// opt-in; nothing in the library touches the store unless asked.
package tokenstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"golang.org/x/oauth2"
)

// ErrNotFound is returned by Load when no token is stored under the key.
var ErrNotFound = errors.New("tokenstore: no token stored")

const schema = `
CREATE TABLE IF NOT EXISTS tokens (
	key           TEXT PRIMARY KEY,
	access_token  TEXT NOT NULL,
	token_type    TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	expiry        TIMESTAMP,
	updated_at    TIMESTAMP NOT NULL
);`

// Store is a SQLite-backed token store. Tokens are keyed by an arbitrary
// string, usually the service name.
type Store struct {
	db *sql.DB
}

// Open creates or opens the store at dataDir; "" means ~/.godata/data.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".godata", "data")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "tokens.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening token database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Save stores token under key, replacing any previous token.
func (s *Store) Save(key string, token *oauth2.Token) error {
	_, err := s.db.Exec(`
		INSERT INTO tokens (key, access_token, token_type, refresh_token, expiry, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			access_token = excluded.access_token,
			token_type = excluded.token_type,
			refresh_token = excluded.refresh_token,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at`,
		key, token.AccessToken, token.TokenType, token.RefreshToken, token.Expiry, time.Now())
	if err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

// Load returns the token stored under key, or ErrNotFound.
func (s *Store) Load(key string) (*oauth2.Token, error) {
	var token oauth2.Token
	err := s.db.QueryRow(`
		SELECT access_token, token_type, refresh_token, expiry
		FROM tokens WHERE key = ?`, key).
		Scan(&token.AccessToken, &token.TokenType, &token.RefreshToken, &token.Expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading token: %w", err)
	}
	return &token, nil
}

// Delete removes the token stored under key. Deleting a missing token is
// not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM tokens WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}
