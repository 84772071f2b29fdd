package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sitebot/chatgate/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS requesters (
			phone_number TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL,
			first_name TEXT NOT NULL,
			hub_id TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requesters_subject ON requesters(subject_id)`,
		`CREATE TABLE IF NOT EXISTS tenant_configs (
			hub_id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			client_secret TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS credentials (
			subject_id TEXT PRIMARY KEY,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetRequesterByPhone retrieves a requester profile by phone number.
func (s *SQLiteStore) GetRequesterByPhone(ctx context.Context, phone string) (*domain.Requester, error) {
	var r domain.Requester
	err := s.db.QueryRowContext(ctx,
		`SELECT phone_number, subject_id, first_name, hub_id FROM requesters WHERE phone_number = ?`,
		phone).Scan(&r.PhoneNumber, &r.SubjectID, &r.FirstName, &r.HubID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpsertRequester creates or replaces a requester profile.
func (s *SQLiteStore) UpsertRequester(ctx context.Context, r *domain.Requester) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO requesters (phone_number, subject_id, first_name, hub_id) VALUES (?, ?, ?, ?)`,
		r.PhoneNumber, r.SubjectID, r.FirstName, r.HubID)
	return err
}

// GetTenantConfig retrieves a tenant configuration by hub id.
func (s *SQLiteStore) GetTenantConfig(ctx context.Context, hubID string) (*domain.TenantConfig, error) {
	var t domain.TenantConfig
	err := s.db.QueryRowContext(ctx,
		`SELECT hub_id, client_id, client_secret FROM tenant_configs WHERE hub_id = ?`,
		hubID).Scan(&t.HubID, &t.ClientID, &t.ClientSecret)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpsertTenantConfig creates or replaces a tenant configuration.
func (s *SQLiteStore) UpsertTenantConfig(ctx context.Context, t *domain.TenantConfig) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tenant_configs (hub_id, client_id, client_secret) VALUES (?, ?, ?)`,
		t.HubID, t.ClientID, t.ClientSecret)
	return err
}

// GetCredential retrieves the delegated credential record for a subject.
func (s *SQLiteStore) GetCredential(ctx context.Context, subjectID string) (*domain.DelegatedCredential, error) {
	var c domain.DelegatedCredential
	var createdAt, expiresAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT subject_id, access_token, refresh_token, status, created_at, expires_at FROM credentials WHERE subject_id = ?`,
		subjectID).Scan(&c.SubjectID, &c.AccessToken, &c.RefreshToken, &c.Status, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt = createdAt
	c.ExpiresAt = expiresAt
	return &c, nil
}

// UpsertCredential creates or replaces the credential record for a subject.
// Keyed by subject id so concurrent refreshes settle on a single row.
func (s *SQLiteStore) UpsertCredential(ctx context.Context, c *domain.DelegatedCredential) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO credentials (subject_id, access_token, refresh_token, status, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.SubjectID, c.AccessToken, c.RefreshToken, c.Status, c.CreatedAt, c.ExpiresAt)
	return err
}
