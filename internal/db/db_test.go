package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestMigrateIsIdempotent(t *testing.T) {
	database := NewTestDB(t)

	if err := Migrate(context.Background(), database); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	var n int
	if err := database.QueryRow(`SELECT COUNT(*) FROM settings`).Scan(&n); err != nil {
		t.Fatalf("querying settings: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty settings table, got %d rows", n)
	}
}

func TestOpenStateCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.sqlite3")

	database, err := OpenState(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenState: %v", err)
	}
	defer database.Close()

	if _, err := database.Exec(`INSERT INTO settings (key, value) VALUES ('k', 'v')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
}
