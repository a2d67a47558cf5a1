package controllers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/NIN31/hdattendance/middleware"
	"github.com/NIN31/hdattendance/models"
	"github.com/NIN31/hdattendance/services"
	"github.com/NIN31/hdattendance/utils"
)

const exportFlushEvery = 200

var exportHeader = []string{"ID", "Name", "Action", "Timestamp"}

// AdminController serves the record management panel. Every route is behind
// middleware.AdminRequired.
type AdminController struct {
	store *services.RecordStore
	auth  *services.AdminAuth
	loc   *time.Location
}

// NewAdminController creates a new controller instance.
func NewAdminController(store *services.RecordStore, auth *services.AdminAuth, loc *time.Location) *AdminController {
	return &AdminController{store: store, auth: auth, loc: loc}
}

type recordRow struct {
	ID        uint
	Name      string
	Action    string
	Timestamp string
	BrowserID string
}

// List renders the records matching the name and date filters.
func (a *AdminController) List(ctx *gin.Context) {
	name, dateFrom, dateTo := ctx.Query("name"), ctx.Query("date_from"), ctx.Query("date_to")
	filter, err := services.ParseFilter(name, dateFrom, dateTo, a.loc)
	if err != nil {
		utils.AddFlash(ctx, "Invalid date filter. Dates must look like 2024-01-31.")
		filter = services.Filter{Name: strings.TrimSpace(name)}
	}

	records, err := a.store.List(ctx.Request.Context(), filter)
	if err != nil {
		utils.Logger.Error("list records failed", zap.Error(err))
		utils.AddFlash(ctx, "An error occurred while loading records.")
	}
	rows := make([]recordRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, recordRow{
			ID:        r.ID,
			Name:      r.Name,
			Action:    string(r.Action),
			Timestamp: a.formatTime(r.Timestamp),
			BrowserID: r.BrowserID,
		})
	}

	session := middleware.CurrentAdmin(ctx)
	utils.Page(ctx, http.StatusOK, "admin.html", gin.H{
		"Records":    rows,
		"Name":       name,
		"DateFrom":   dateFrom,
		"DateTo":     dateTo,
		"Admin":      session.Username,
		"ResetArmed": a.auth.PeekRestrictionReset(ctx.Request.Context(), session),
	})
}

// DeleteEntry removes one record and clears this browser's cooldown cookie.
func (a *AdminController) DeleteEntry(ctx *gin.Context) {
	id, ok := parseRecordID(ctx.PostForm("record_id"))
	if !ok {
		utils.AddFlash(ctx, "Record not found. Unable to delete entry.")
		a.backToPanel(ctx)
		return
	}

	rec, err := a.store.DeleteOne(ctx.Request.Context(), id)
	recordOp("delete_entry", err)
	switch {
	case errors.Is(err, services.ErrRecordNotFound):
		utils.AddFlash(ctx, "Record not found. Unable to delete entry.")
	case err != nil:
		utils.Logger.Error("delete entry failed", zap.Uint("id", id), zap.Error(err))
		utils.AddFlash(ctx, "An error occurred while trying to delete the entry.")
	default:
		utils.AddFlash(ctx, fmt.Sprintf("Entry for %s has been deleted, and the restriction has been cleared.", rec.Name))
		ctx.SetSameSite(http.SameSiteLaxMode)
		ctx.SetCookie(CooldownCookieName, "", -1, "/", "", false, true)
	}
	a.backToPanel(ctx)
}

// DeleteSelected removes the checked records in one transaction.
func (a *AdminController) DeleteSelected(ctx *gin.Context) {
	ids, err := utils.ParseUintList(ctx.PostFormArray("record_ids"))
	if err != nil {
		utils.AddFlash(ctx, "Invalid record selection.")
		a.backToPanel(ctx)
		return
	}

	n, err := a.store.DeleteSelected(ctx.Request.Context(), ids)
	switch {
	case errors.Is(err, services.ErrNoRecordsSelected):
		utils.AddFlash(ctx, "No records selected for deletion.")
	case err != nil:
		recordOp("delete_selected", err)
		utils.Logger.Error("delete selected failed", zap.Uints("ids", ids), zap.Error(err))
		utils.AddFlash(ctx, "An error occurred while trying to delete records.")
	default:
		recordOp("delete_selected", nil)
		utils.AddFlash(ctx, fmt.Sprintf("Successfully deleted %d records.", n))
	}
	a.backToPanel(ctx)
}

// Reset deletes every record.
func (a *AdminController) Reset(ctx *gin.Context) {
	n, err := a.store.DeleteAll(ctx.Request.Context())
	recordOp("reset", err)
	if err != nil {
		utils.Logger.Error("delete all failed", zap.Error(err))
		utils.AddFlash(ctx, "An error occurred while trying to delete records.")
	} else {
		utils.Logger.Info("all records deleted", zap.Int64("count", n))
		utils.AddFlash(ctx, "All attendance records have been successfully deleted.")
	}
	a.backToPanel(ctx)
}

// ResetRestriction arms a one-shot cooldown bypass on the admin's own session.
// The next sign-in submitted from this browser while logged in skips the cooldown.
func (a *AdminController) ResetRestriction(ctx *gin.Context) {
	id, ok := parseRecordID(ctx.PostForm("record_id"))
	if !ok {
		utils.AddFlash(ctx, "Record not found. Unable to reset restriction.")
		a.backToPanel(ctx)
		return
	}

	rec, err := a.store.Get(ctx.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrRecordNotFound):
		utils.AddFlash(ctx, "Record not found. Unable to reset restriction.")
	case err != nil:
		recordOp("reset_restriction", err)
		utils.Logger.Error("reset restriction lookup failed", zap.Uint("id", id), zap.Error(err))
		utils.AddFlash(ctx, "An error occurred while trying to reset the restriction.")
	default:
		recordOp("reset_restriction", nil)
		a.auth.SetRestrictionReset(ctx.Request.Context(), middleware.CurrentAdmin(ctx))
		utils.AddFlash(ctx, fmt.Sprintf("Restriction for %s has been reset.", rec.Name))
	}
	a.backToPanel(ctx)
}

// ClearRestriction voids the cooldown token currently held by a browser.
func (a *AdminController) ClearRestriction(ctx *gin.Context) {
	browserID := strings.TrimSpace(ctx.PostForm("browser_id"))
	if browserID == "" {
		utils.AddFlash(ctx, "Invalid Browser ID.")
		a.backToPanel(ctx)
		return
	}

	err := a.store.OverrideRestriction(ctx.Request.Context(), browserID, time.Now())
	switch {
	case errors.Is(err, services.ErrRestrictionNotFound):
		utils.AddFlash(ctx, "No restriction found for the given Browser ID.")
	case err != nil:
		recordOp("clear_restriction", err)
		utils.Logger.Error("clear restriction failed", zap.String("browser_id", browserID), zap.Error(err))
		utils.AddFlash(ctx, "An error occurred while trying to clear the restriction.")
	default:
		recordOp("clear_restriction", nil)
		utils.AddFlash(ctx, fmt.Sprintf("Restrictions for Browser ID %s cleared successfully.", browserID))
	}
	a.backToPanel(ctx)
}

// Export streams the filtered records as CSV.
func (a *AdminController) Export(ctx *gin.Context) {
	filter, err := services.ParseFilter(ctx.Query("name"), ctx.Query("date_from"), ctx.Query("date_to"), a.loc)
	if err != nil {
		utils.Page(ctx, http.StatusBadRequest, "error.html", gin.H{"Message": "Invalid date filter. Dates must look like 2024-01-31."})
		return
	}

	ctx.Header("Content-Type", "text/csv; charset=utf-8")
	ctx.Header("Content-Disposition", "attachment;filename=attendance.csv")
	ctx.Status(http.StatusOK)

	w := csv.NewWriter(ctx.Writer)
	if err := w.Write(exportHeader); err != nil {
		return
	}
	rows := 0
	err = a.store.Stream(ctx.Request.Context(), filter, func(r models.Attendance) error {
		if err := w.Write([]string{
			strconv.FormatUint(uint64(r.ID), 10),
			csvCell(r.Name),
			string(r.Action),
			a.formatTime(r.Timestamp),
		}); err != nil {
			return err
		}
		rows++
		if rows%exportFlushEvery == 0 {
			w.Flush()
			ctx.Writer.Flush()
		}
		return w.Error()
	})
	w.Flush()
	recordOp("export", err)
	if err != nil {
		// headers are gone; the client sees a truncated file
		utils.Logger.Error("export interrupted", zap.Int("rows", rows), zap.Error(err))
		return
	}
	utils.Logger.Info("export finished", zap.Int("rows", rows))
}

// csvCell quotes values a spreadsheet would evaluate as a formula.
func csvCell(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}

func (a *AdminController) formatTime(t time.Time) string {
	return t.In(a.loc).Format(timestampLayout)
}

func (a *AdminController) backToPanel(ctx *gin.Context) {
	ctx.Redirect(http.StatusFound, "/admin")
}

func parseRecordID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func recordOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if errors.Is(err, services.ErrRecordNotFound) {
			result = "not_found"
		}
	}
	utils.AdminOperationsTotal.WithLabelValues(op, result).Inc()
}
