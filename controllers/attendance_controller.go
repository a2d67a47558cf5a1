package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NIN31/hdattendance/middleware"
	"github.com/NIN31/hdattendance/services"
	"github.com/NIN31/hdattendance/utils"
)

const (
	// CooldownCookieName holds the sign-in cooldown token.
	CooldownCookieName = "last_signin"
	// BrowserCookieName identifies a browser across sign-ins.
	BrowserCookieName = "browser_id"

	browserCookieMaxAge = 365 * 24 * 60 * 60
	timestampLayout     = "2006-01-02 15:04:05"
)

// AttendanceController serves the sign-in form and both submission endpoints.
type AttendanceController struct {
	submissions *services.SubmissionService
	gate        *services.AccessGate
	auth        *services.AdminAuth
	cooldown    time.Duration
	loc         *time.Location
}

// NewAttendanceController creates a new controller instance.
func NewAttendanceController(submissions *services.SubmissionService, gate *services.AccessGate, auth *services.AdminAuth, cooldown time.Duration, loc *time.Location) *AttendanceController {
	return &AttendanceController{
		submissions: submissions,
		gate:        gate,
		auth:        auth,
		cooldown:    cooldown,
		loc:         loc,
	}
}

// Index is the liveness text.
func (a *AttendanceController) Index(ctx *gin.Context) {
	ctx.String(http.StatusOK, "Welcome to the HD Attendance System!")
}

// ScanForm renders the form for allow-listed clients only.
func (a *AttendanceController) ScanForm(ctx *gin.Context) {
	ip := middleware.ClientIP(ctx)
	if !a.gate.IsAllowed(ip) {
		a.renderDenied(ctx, ip)
		return
	}
	utils.Page(ctx, http.StatusOK, "scan.html", nil)
}

// Scan handles the allow-listed submission endpoint.
func (a *AttendanceController) Scan(ctx *gin.Context) {
	a.handle(ctx, true)
}

// Submit handles the open submission endpoint.
func (a *AttendanceController) Submit(ctx *gin.Context) {
	a.handle(ctx, false)
}

func (a *AttendanceController) handle(ctx *gin.Context, gated bool) {
	reqCtx := ctx.Request.Context()
	ip := middleware.ClientIP(ctx)
	session := middleware.CurrentAdmin(ctx)
	token, _ := ctx.Cookie(CooldownCookieName)

	out, err := a.submissions.Submit(reqCtx, services.SubmitRequest{
		Name:      ctx.PostForm("name"),
		Action:    ctx.PostForm("action"),
		ClientIP:  ip,
		Token:     token,
		BrowserID: a.browserID(ctx),
		Bypass:    a.auth.PeekRestrictionReset(reqCtx, session),
		Gated:     gated,
	})
	if errors.Is(err, services.ErrInvalidName) {
		utils.Page(ctx, http.StatusBadRequest, "error.html", gin.H{"Message": "Please enter your name (up to 100 characters)."})
		return
	}
	if err != nil {
		utils.Logger.Error("submission failed", zap.Error(err))
		utils.Page(ctx, http.StatusInternalServerError, "error.html", gin.H{"Message": "Your attendance could not be saved. Please try again."})
		return
	}

	if out.Status == services.StatusDenied {
		if out.Reason == services.ReasonIPNotAllowed {
			a.renderDenied(ctx, ip)
			return
		}
		utils.Page(ctx, http.StatusForbidden, "deny_signin.html", gin.H{
			"Reason":        string(out.Reason),
			"CooldownHours": a.cooldown.Hours(),
		})
		return
	}

	if out.BypassConsumed {
		a.auth.ClearRestrictionReset(reqCtx, session)
	}
	if !out.NewToken.IsZero() {
		ctx.SetSameSite(http.SameSiteLaxMode)
		ctx.SetCookie(CooldownCookieName, out.NewToken.String(), int(a.cooldown/time.Second), "/", "", false, true)
	}
	utils.Page(ctx, http.StatusOK, "thank_you.html", gin.H{
		"Name":      out.Record.Name,
		"Action":    string(out.Record.Action),
		"Timestamp": out.Record.Timestamp.In(a.loc).Format(timestampLayout),
	})
}

// browserID returns the browser's id cookie, issuing a new one when missing or malformed.
func (a *AttendanceController) browserID(ctx *gin.Context) string {
	if v, err := ctx.Cookie(BrowserCookieName); err == nil {
		if id, err := uuid.Parse(v); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(BrowserCookieName, id, browserCookieMaxAge, "/", "", false, true)
	return id
}

func (a *AttendanceController) renderDenied(ctx *gin.Context, ip string) {
	utils.Page(ctx, http.StatusForbidden, "denied.html", gin.H{"ClientIP": ip})
}
