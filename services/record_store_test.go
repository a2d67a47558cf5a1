package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NIN31/hdattendance/models"
)

// TestRecordStore_DeleteSelectedCountsExisting deletes only ids that exist and reports the real count.
func TestRecordStore_DeleteSelectedCountsExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 10, 1, 0, 0, 0, time.UTC)
	var ids []uint
	for i := 0; i < 9; i++ {
		ids = append(ids, seed(t, s, "Worker", models.ActionSignIn, base.Add(time.Duration(i)*time.Hour)).ID)
	}
	// keep 2 and 9, drop 5 so the selection contains one missing id
	if _, err := s.DeleteOne(ctx, ids[4]); err != nil {
		t.Fatalf("DeleteOne: %v", err)
	}

	n, err := s.DeleteSelected(ctx, []uint{ids[1], ids[4], ids[8]})
	if err != nil {
		t.Fatalf("DeleteSelected: %v", err)
	}
	if n != 2 {
		t.Fatalf("deleted = %d, want 2", n)
	}
	for _, id := range []uint{ids[1], ids[8]} {
		if _, err := s.Get(ctx, id); !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("Get(%d) error = %v, want ErrRecordNotFound", id, err)
		}
	}
	left, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(left) != 6 {
		t.Fatalf("remaining = %d, want 6", len(left))
	}
}

// TestRecordStore_DeleteSelectedEmpty reports nothing selected.
func TestRecordStore_DeleteSelectedEmpty(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.DeleteSelected(context.Background(), nil); !errors.Is(err, ErrNoRecordsSelected) {
		t.Fatalf("error = %v, want ErrNoRecordsSelected", err)
	}
}

// TestRecordStore_DeleteAll empties the table.
func TestRecordStore_DeleteAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	seed(t, s, "Ali", models.ActionSignIn, now)
	seed(t, s, "Ali", models.ActionSignOut, now.Add(time.Hour))
	seed(t, s, "Mei", models.ActionSignIn, now)

	n, err := s.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted = %d, want 3", n)
	}
	recs, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("List after DeleteAll = %d records, want 0", len(recs))
	}
}

// TestRecordStore_DeleteOneMissing reports not found.
func TestRecordStore_DeleteOneMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.DeleteOne(context.Background(), 42); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("error = %v, want ErrRecordNotFound", err)
	}
}

// TestRecordStore_FilterAndOrder applies name and whole-day date filters, newest first.
func TestRecordStore_FilterAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	loc := mustLocation(t, "Asia/Kuala_Lumpur")

	early := seed(t, s, "Tan Ah Kow", models.ActionSignIn, time.Date(2024, 1, 1, 0, 30, 0, 0, loc))
	mid := seed(t, s, "tan mei", models.ActionSignOut, time.Date(2024, 1, 15, 18, 0, 0, 0, loc))
	late := seed(t, s, "Stanley", models.ActionSignIn, time.Date(2024, 1, 31, 23, 59, 0, 0, loc))
	seed(t, s, "Tan Ah Kow", models.ActionSignIn, time.Date(2023, 12, 31, 23, 59, 0, 0, loc))
	seed(t, s, "Tan Ah Kow", models.ActionSignIn, time.Date(2024, 2, 1, 0, 0, 0, 0, loc))
	seed(t, s, "Lim", models.ActionSignIn, time.Date(2024, 1, 20, 9, 0, 0, 0, loc))

	f, err := ParseFilter("Tan", "2024-01-01", "2024-01-31", loc)
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	recs, err := s.List(ctx, f)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []uint{late.ID, mid.ID, early.ID}
	if len(recs) != len(want) {
		t.Fatalf("got %d records, want %d: %+v", len(recs), len(want), recs)
	}
	for i, id := range want {
		if recs[i].ID != id {
			t.Errorf("recs[%d].ID = %d, want %d", i, recs[i].ID, id)
		}
	}

	var streamed []uint
	err = s.Stream(ctx, f, func(r models.Attendance) error {
		streamed = append(streamed, r.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(streamed) != len(want) || streamed[0] != want[0] || streamed[2] != want[2] {
		t.Fatalf("streamed = %v, want %v", streamed, want)
	}
}

// TestRecordStore_NameFilterEscapesWildcards treats % and _ literally.
func TestRecordStore_NameFilterEscapesWildcards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	seed(t, s, "100% Tan", models.ActionSignIn, now)
	seed(t, s, "Tan", models.ActionSignIn, now)

	recs, err := s.List(ctx, Filter{Name: "%"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 1 || recs[0].Name != "100% Tan" {
		t.Fatalf("recs = %+v, want only the literal match", recs)
	}
}

// TestRecordStore_StreamStopsOnError propagates the callback error.
func TestRecordStore_StreamStopsOnError(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "A", models.ActionSignIn, time.Now())
	seed(t, s, "B", models.ActionSignIn, time.Now())

	stop := errors.New("stop")
	calls := 0
	err := s.Stream(context.Background(), Filter{}, func(models.Attendance) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("err = %v calls = %d, want stop after 1", err, calls)
	}
}

// TestParseFilter_InvalidDate rejects anything but YYYY-MM-DD.
func TestParseFilter_InvalidDate(t *testing.T) {
	for _, tc := range [][2]string{{"2024-13-01", ""}, {"", "01/02/2024"}, {"yesterday", ""}} {
		if _, err := ParseFilter("", tc[0], tc[1], time.UTC); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseFilter(%q, %q) error = %v, want ErrInvalidDate", tc[0], tc[1], err)
		}
	}
	f, err := ParseFilter(" Tan ", "", "", nil)
	if err != nil || f.Name != "Tan" || f.From != nil || f.Before != nil {
		t.Fatalf("ParseFilter blank dates = %+v, %v", f, err)
	}
}

// TestRecordStore_Restrictions covers upsert and override.
func TestRecordStore_Restrictions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	first := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	if err := s.OverrideRestriction(ctx, "browser-1", first); !errors.Is(err, ErrRestrictionNotFound) {
		t.Fatalf("override unknown error = %v", err)
	}
	if err := s.TouchRestriction(ctx, "browser-1", first); err != nil {
		t.Fatalf("TouchRestriction: %v", err)
	}
	if err := s.TouchRestriction(ctx, "browser-1", first.Add(9*time.Hour)); err != nil {
		t.Fatalf("TouchRestriction again: %v", err)
	}
	r, err := s.Restriction(ctx, "browser-1")
	if err != nil {
		t.Fatalf("Restriction: %v", err)
	}
	if !r.LastSigninAt.Equal(first.Add(9 * time.Hour)) {
		t.Errorf("LastSigninAt = %v", r.LastSigninAt)
	}
	if r.OverriddenAt != nil {
		t.Errorf("OverriddenAt = %v, want nil", r.OverriddenAt)
	}

	clearedAt := first.Add(10 * time.Hour)
	if err := s.OverrideRestriction(ctx, "browser-1", clearedAt); err != nil {
		t.Fatalf("OverrideRestriction: %v", err)
	}
	r, err = s.Restriction(ctx, "browser-1")
	if err != nil {
		t.Fatalf("Restriction: %v", err)
	}
	if !r.Overrides(first.Add(9 * time.Hour)) {
		t.Error("token issued before the override should be void")
	}
	if r.Overrides(clearedAt.Add(time.Second)) {
		t.Error("token issued after the override should stand")
	}
}

// TestRecordStore_Summarize counts per action inside the filter.
func TestRecordStore_Summarize(t *testing.T) {
	s := newTestStore(t)
	day := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	seed(t, s, "A", models.ActionSignIn, day)
	seed(t, s, "B", models.ActionSignIn, day.Add(time.Hour))
	seed(t, s, "A", models.ActionSignOut, day.Add(8*time.Hour))
	seed(t, s, "C", models.ActionSignIn, day.AddDate(0, 0, 1))

	f, err := ParseFilter("", "2024-03-04", "2024-03-04", time.UTC)
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	sum, err := s.Summarize(context.Background(), f)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.SignIns != 2 || sum.SignOuts != 1 || sum.Total() != 3 {
		t.Fatalf("summary = %+v", sum)
	}
}

// TestRecordStore_StreamPagesKeepOrder walks several pages, ties on timestamp included.
func TestRecordStore_StreamPagesKeepOrder(t *testing.T) {
	s := newTestStore(t)
	s.pageSize = 2
	ctx := context.Background()
	base := time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)
	seed(t, s, "A", models.ActionSignIn, base)
	seed(t, s, "B", models.ActionSignIn, base.Add(time.Minute))
	seed(t, s, "C", models.ActionSignIn, base.Add(time.Minute))
	seed(t, s, "D", models.ActionSignIn, base.Add(time.Minute))
	seed(t, s, "E", models.ActionSignOut, base.Add(2*time.Hour))

	want, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var got []uint
	if err := s.Stream(ctx, Filter{}, func(r models.Attendance) error {
		got = append(got, r.ID)
		return nil
	}); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("streamed %v, want %d records", got, len(want))
	}
	for i := range want {
		if got[i] != want[i].ID {
			t.Fatalf("streamed %v, want order of List", got)
		}
	}
}

// TestRecordStore_StreamDoesNotHoldConnection lets writes through while a consumer is stalled.
func TestRecordStore_StreamDoesNotHoldConnection(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "A", models.ActionSignIn, time.Now())
	seed(t, s, "B", models.ActionSignIn, time.Now())

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		first := true
		done <- s.Stream(context.Background(), Filter{}, func(models.Attendance) error {
			if first {
				first = false
				close(entered)
				<-release
			}
			return nil
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rec := models.Attendance{Name: "C", Action: models.ActionSignIn, Timestamp: time.Now()}
	err := s.Create(ctx, &rec)
	close(release)
	if err != nil {
		t.Fatalf("Create during export: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Stream: %v", err)
	}
}

// TestRecordStore_CreateSubmissionTouchesRestriction writes both rows together.
func TestRecordStore_CreateSubmissionTouchesRestriction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 6, 1, 1, 0, 0, 0, time.UTC)
	rec := models.Attendance{Name: "Ali", Action: models.ActionSignIn, Timestamp: at, BrowserID: "browser-7"}
	if err := s.CreateSubmission(ctx, &rec, true); err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}
	r, err := s.Restriction(ctx, "browser-7")
	if err != nil {
		t.Fatalf("Restriction: %v", err)
	}
	if !r.LastSigninAt.Equal(at) {
		t.Errorf("LastSigninAt = %v, want %v", r.LastSigninAt, at)
	}
}

// TestRecordStore_CreateSubmissionRollsBack keeps no record when the restriction write fails.
func TestRecordStore_CreateSubmissionRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.db.Migrator().DropTable(&models.Restriction{}); err != nil {
		t.Fatalf("DropTable: %v", err)
	}
	rec := models.Attendance{Name: "Ali", Action: models.ActionSignIn, Timestamp: time.Now(), BrowserID: "browser-7"}
	if err := s.CreateSubmission(ctx, &rec, true); err == nil {
		t.Fatal("CreateSubmission succeeded without a restriction table")
	}
	recs, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 0 || rec.ID != 0 {
		t.Fatalf("records = %d id = %d, want rollback", len(recs), rec.ID)
	}
}
