package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/NIN31/hdattendance/config"
	"github.com/NIN31/hdattendance/models"
)

func newTestStore(t *testing.T) *RecordStore {
	t.Helper()
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "attendance.db"),
		LogLevel: "silent",
	}, &models.Attendance{}, &models.Restriction{})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewRecordStore(db)
}

func seed(t *testing.T, s *RecordStore, name string, action models.Action, at time.Time) models.Attendance {
	t.Helper()
	rec := models.Attendance{Name: name, Action: action, Timestamp: at}
	if err := s.Create(context.Background(), &rec); err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return rec
}

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}
