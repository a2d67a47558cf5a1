package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/NIN31/hdattendance/models"
)

const dateLayout = "2006-01-02"

// Filter narrows record queries. Name is a case-insensitive substring; From is
// inclusive and Before is exclusive.
type Filter struct {
	Name   string
	From   *time.Time
	Before *time.Time
}

// ParseFilter builds a Filter from admin query parameters. Dates are calendar
// days in loc; dateTo covers its whole day.
func ParseFilter(name, dateFrom, dateTo string, loc *time.Location) (Filter, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := Filter{Name: strings.TrimSpace(name)}
	if s := strings.TrimSpace(dateFrom); s != "" {
		from, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: date_from %q", ErrInvalidDate, s)
		}
		f.From = &from
	}
	if s := strings.TrimSpace(dateTo); s != "" {
		to, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: date_to %q", ErrInvalidDate, s)
		}
		before := to.AddDate(0, 0, 1)
		f.Before = &before
	}
	return f, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	return f.where(q).Order("timestamp DESC").Order("id DESC")
}

func (f Filter) where(q *gorm.DB) *gorm.DB {
	if f.Name != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(f.Name)) + "%"
		q = q.Where("LOWER(name) LIKE ? ESCAPE '!'", pattern)
	}
	if f.From != nil {
		q = q.Where("timestamp >= ?", f.From.UTC())
	}
	if f.Before != nil {
		q = q.Where("timestamp < ?", f.Before.UTC())
	}
	return q
}

// RecordStore persists attendance records and browser restrictions.
type RecordStore struct {
	db       *gorm.DB
	pageSize int
}

const defaultStreamPageSize = 500

// NewRecordStore wraps an open database handle.
func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db, pageSize: defaultStreamPageSize}
}

// Create inserts rec, normalising its timestamp to UTC.
func (s *RecordStore) Create(ctx context.Context, rec *models.Attendance) error {
	rec.Timestamp = rec.Timestamp.UTC()
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// CreateSubmission inserts rec and, when touch is set and rec carries a
// browser id, records the sign-in on that browser's restriction in the same
// transaction.
func (s *RecordStore) CreateSubmission(ctx context.Context, rec *models.Attendance, touch bool) error {
	rec.Timestamp = rec.Timestamp.UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("create attendance: %w", err)
		}
		if !touch || rec.BrowserID == "" {
			return nil
		}
		return touchRestriction(tx, rec.BrowserID, rec.Timestamp)
	})
	if err != nil {
		rec.ID = 0
		return err
	}
	return nil
}

// Get loads one record.
func (s *RecordStore) Get(ctx context.Context, id uint) (models.Attendance, error) {
	var rec models.Attendance
	err := s.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Attendance{}, ErrRecordNotFound
	}
	if err != nil {
		return models.Attendance{}, fmt.Errorf("get attendance %d: %w", id, err)
	}
	return rec, nil
}

// List returns matching records, newest first.
func (s *RecordStore) List(ctx context.Context, f Filter) ([]models.Attendance, error) {
	var recs []models.Attendance
	if err := f.apply(s.db.WithContext(ctx).Model(&models.Attendance{})).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return recs, nil
}

// Stream walks matching records newest first, one page at a time, so the
// connection goes back to the pool between pages and while fn runs.
// Iteration stops at the first error returned by fn.
func (s *RecordStore) Stream(ctx context.Context, f Filter, fn func(models.Attendance) error) error {
	var last *models.Attendance
	for {
		q := f.apply(s.db.WithContext(ctx).Model(&models.Attendance{}))
		if last != nil {
			at := last.Timestamp.UTC()
			q = q.Where("(timestamp < ? OR (timestamp = ? AND id < ?))", at, at, last.ID)
		}
		var page []models.Attendance
		if err := q.Limit(s.pageSize).Find(&page).Error; err != nil {
			return fmt.Errorf("stream attendance: %w", err)
		}
		for _, rec := range page {
			if err := fn(rec); err != nil {
				return err
			}
		}
		if len(page) < s.pageSize {
			return nil
		}
		last = &page[len(page)-1]
	}
}

// DeleteOne removes one record and returns what was deleted.
func (s *RecordStore) DeleteOne(ctx context.Context, id uint) (models.Attendance, error) {
	var rec models.Attendance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, id).Error; err != nil {
			return err
		}
		return tx.Delete(&rec).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Attendance{}, ErrRecordNotFound
	}
	if err != nil {
		return models.Attendance{}, fmt.Errorf("delete attendance %d: %w", id, err)
	}
	return rec, nil
}

// DeleteSelected removes every record whose id is in ids and reports how many rows went.
// Ids that do not exist are ignored.
func (s *RecordStore) DeleteSelected(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoRecordsSelected
	}
	var n int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id IN ?", ids).Delete(&models.Attendance{})
		n = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("delete selected attendance: %w", err)
	}
	return n, nil
}

// DeleteAll empties the attendance table.
func (s *RecordStore) DeleteAll(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("1 = 1").Delete(&models.Attendance{})
		n = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("delete all attendance: %w", err)
	}
	return n, nil
}

// Restriction loads the server-side cooldown state of a browser.
func (s *RecordStore) Restriction(ctx context.Context, browserID string) (models.Restriction, error) {
	var r models.Restriction
	err := s.db.WithContext(ctx).Where("browser_id = ?", browserID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Restriction{}, ErrRestrictionNotFound
	}
	if err != nil {
		return models.Restriction{}, fmt.Errorf("get restriction: %w", err)
	}
	return r, nil
}

// TouchRestriction records an accepted sign-in for browserID.
func (s *RecordStore) TouchRestriction(ctx context.Context, browserID string, at time.Time) error {
	return touchRestriction(s.db.WithContext(ctx), browserID, at)
}

func touchRestriction(tx *gorm.DB, browserID string, at time.Time) error {
	now := time.Now().UTC()
	r := models.Restriction{BrowserID: browserID, LastSigninAt: at.UTC(), CreatedAt: now, UpdatedAt: now}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "browser_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_signin_at", "updated_at"}),
	}).Create(&r).Error
	if err != nil {
		return fmt.Errorf("touch restriction: %w", err)
	}
	return nil
}

// OverrideRestriction voids every cooldown token browserID received at or before at.
func (s *RecordStore) OverrideRestriction(ctx context.Context, browserID string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.Restriction{}).
		Where("browser_id = ?", browserID).
		Update("overridden_at", at.UTC())
	if res.Error != nil {
		return fmt.Errorf("override restriction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRestrictionNotFound
	}
	return nil
}

// Summary is a per-action tally of records.
type Summary struct {
	SignIns  int64
	SignOuts int64
}

// Total is the number of records counted.
func (s Summary) Total() int64 {
	return s.SignIns + s.SignOuts
}

// Summarize counts matching records per action.
func (s *RecordStore) Summarize(ctx context.Context, f Filter) (Summary, error) {
	var rows []struct {
		Action models.Action
		N      int64
	}
	q := f.where(s.db.WithContext(ctx).Model(&models.Attendance{}))
	if err := q.Select("action, COUNT(*) AS n").Group("action").Scan(&rows).Error; err != nil {
		return Summary{}, fmt.Errorf("summarize attendance: %w", err)
	}
	var sum Summary
	for _, r := range rows {
		switch r.Action {
		case models.ActionSignIn:
			sum.SignIns = r.N
		case models.ActionSignOut:
			sum.SignOuts = r.N
		}
	}
	return sum, nil
}
