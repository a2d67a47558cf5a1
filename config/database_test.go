package config

import (
	"path/filepath"
	"testing"
)

// TestSqliteDSN appends options after an existing query.
func TestSqliteDSN(t *testing.T) {
	cases := [][2]string{
		{"attendance.db", "attendance.db?_busy_timeout=5000&_journal_mode=WAL"},
		{"data/attendance.db?_foreign_keys=1", "data/attendance.db?_foreign_keys=1&_busy_timeout=5000&_journal_mode=WAL"},
	}
	for _, tc := range cases {
		if got := sqliteDSN(tc[0]); got != tc[1] {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tc[0], got, tc[1])
		}
	}
}

// TestOpenDatabase_SqliteURIWithQuery opens a database whose URI already carries options.
func TestOpenDatabase_SqliteURIWithQuery(t *testing.T) {
	uri := filepath.Join(t.TempDir(), "nested", "attendance.db") + "?_foreign_keys=1"
	db, err := OpenDatabase(AppConfig{DBDriver: "sqlite", DatabaseURI: uri, LogLevel: "silent"})
	if err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("DB: %v", err)
	}
	defer sqlDB.Close()

	var mode string
	if err := db.Raw("PRAGMA journal_mode").Scan(&mode).Error; err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal_mode = %q, want wal", mode)
	}
}
