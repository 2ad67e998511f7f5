package store

import (
	"context"
	"database/sql"
	"sync"
)

// TokenStore is the durable slot holding the bearer token between runs.
// It holds a single value; the last write wins.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// SQLiteTokenStore keeps the token in the settings table.
type SQLiteTokenStore struct {
	db *sql.DB
}

// NewSQLiteTokenStore returns a TokenStore backed by db.
func NewSQLiteTokenStore(db *sql.DB) *SQLiteTokenStore {
	return &SQLiteTokenStore{db: db}
}

// LoadToken returns the stored token, or "" if there is none.
func (s *SQLiteTokenStore) LoadToken(ctx context.Context) (string, error) {
	return GetSetting(ctx, s.db, KeyAuthToken)
}

// SaveToken replaces the stored token.
func (s *SQLiteTokenStore) SaveToken(ctx context.Context, token string) error {
	return SetSetting(ctx, s.db, KeyAuthToken, token)
}

// ClearToken removes the stored token.
func (s *SQLiteTokenStore) ClearToken(ctx context.Context) error {
	return DeleteSetting(ctx, s.db, KeyAuthToken)
}

// MemoryTokenStore is a TokenStore that lives only as long as the process.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokenStore) LoadToken(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) SaveToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) ClearToken(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
