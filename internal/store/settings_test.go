package store

import (
	"context"
	"testing"

	"github.com/erazemk/scannerlog/internal/db"
)

func TestSettings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// Missing key returns empty value and no error.
	v, err := GetSetting(ctx, database, "missing")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != "" {
		t.Fatalf("expected empty value, got %q", v)
	}

	if err := SetSetting(ctx, database, KeyLastUsername, "alice"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := SetSetting(ctx, database, KeyLastUsername, "bob"); err != nil {
		t.Fatalf("SetSetting overwrite: %v", err)
	}

	v, err = GetSetting(ctx, database, KeyLastUsername)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != "bob" {
		t.Errorf("expected 'bob', got %q", v)
	}

	if err := DeleteSetting(ctx, database, KeyLastUsername); err != nil {
		t.Fatalf("DeleteSetting: %v", err)
	}
	if err := DeleteSetting(ctx, database, KeyLastUsername); err != nil {
		t.Fatalf("DeleteSetting twice: %v", err)
	}

	v, _ = GetSetting(ctx, database, KeyLastUsername)
	if v != "" {
		t.Errorf("expected deleted value, got %q", v)
	}
}
