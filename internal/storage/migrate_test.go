package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/dayplan/internal/model"
)

func TestMigrateRoundTripCompatibility(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate-roundtrip.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("first migrate up failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Fatalf("repeated migrate up failed: %v", err)
	}

	if err := MigrateDown(db); err != nil {
		t.Fatalf("migrate down failed: %v", err)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("second migrate up failed: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}

	def := sampleDefinition("def-rt-1")
	def.CreatedAt = time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	if err := repo.CreateDefinition(t.Context(), def); err != nil {
		t.Fatalf("insert after roundtrip failed: %v", err)
	}

	got, err := repo.GetDefinition(t.Context(), "def-rt-1")
	if err != nil {
		t.Fatalf("get after roundtrip failed: %v", err)
	}
	if got.Title != def.Title || got.Recurrence.Frequency != model.FrequencyDaily {
		t.Fatalf("unexpected definition after roundtrip: %#v", got)
	}
}
