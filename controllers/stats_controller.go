package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/NIN31/hdattendance/services"
	"github.com/NIN31/hdattendance/utils"
)

// StatsController provides attendance counts for dashboards.
type StatsController struct {
	store *services.RecordStore
	loc   *time.Location
	now   func() time.Time
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(store *services.RecordStore, loc *time.Location) *StatsController {
	return &StatsController{store: store, loc: loc, now: time.Now}
}

// GetStats returns all-time and today's sign-in / sign-out counts.
// Today is the current calendar day in the configured zone.
func (s *StatsController) GetStats(ctx *gin.Context) {
	reqCtx := ctx.Request.Context()
	all, err := s.store.Summarize(reqCtx, services.Filter{})
	if err != nil {
		utils.Logger.Error("stats failed", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50001, "stats unavailable")
		return
	}

	now := s.now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1)
	today, err := s.store.Summarize(reqCtx, services.Filter{From: &start, Before: &end})
	if err != nil {
		utils.Logger.Error("stats failed", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50001, "stats unavailable")
		return
	}

	utils.Success(ctx, gin.H{
		"date":            start.Format("2006-01-02"),
		"total_count":     all.Total(),
		"sign_in_count":   all.SignIns,
		"sign_out_count":  all.SignOuts,
		"today_sign_ins":  today.SignIns,
		"today_sign_outs": today.SignOuts,
		"today_total":     today.Total(),
	})
}
