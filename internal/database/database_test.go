package database

import (
	"path/filepath"
	"testing"
)

func TestNewManagerSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsfeed.db")
	m, err := NewManager(Config{Driver: DriverSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer m.Close()

	for _, table := range []string{"users", "sources", "items", "comments"} {
		var name string
		err := m.GetDB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	var fk int
	if err := m.GetDB().QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign keys should be enabled, got %d", fk)
	}
}

func TestNewManagerMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsfeed.db")
	first, err := NewManager(Config{Driver: DriverSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("first NewManager failed: %v", err)
	}
	first.Close()

	second, err := NewManager(Config{Driver: DriverSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("second NewManager failed: %v", err)
	}
	second.Close()
}

func TestSourceValidatorCheckConstraint(t *testing.T) {
	m, err := NewManager(Config{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "c.db")})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer m.Close()

	db := m.GetDB()
	if _, err := db.Exec("INSERT INTO users (username, password_hash) VALUES ('u', 'h')"); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	_, err = db.Exec("INSERT INTO sources (user_id, name, url, validator_kind) VALUES (1, 'n', 'http://x', 'ETag')")
	if err == nil {
		t.Fatal("expected CHECK constraint violation for half-set validator")
	}
}

func TestNewManagerUnknownDriver(t *testing.T) {
	if _, err := NewManager(Config{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
