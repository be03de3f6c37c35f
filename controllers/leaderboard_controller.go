package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poorspot/spotd/leaderboard"
	"github.com/poorspot/spotd/models"
	"github.com/poorspot/spotd/occupancy"
	"github.com/poorspot/spotd/utils"
)

// LeaderboardController ranks users by time spent or points.
type LeaderboardController struct {
	reg      *occupancy.Registry
	cacheTTL time.Duration
	now      func() time.Time
}

// NewLeaderboardController creates a LeaderboardController. A zero ttl
// disables caching.
func NewLeaderboardController(reg *occupancy.Registry, cacheTTL time.Duration) *LeaderboardController {
	return &LeaderboardController{reg: reg, cacheTTL: cacheTTL, now: time.Now}
}

// Top returns the top users for ?period= and ?sort_by=.
func (l *LeaderboardController) Top(ctx *gin.Context) {
	period, err := leaderboard.ParsePeriod(ctx.Query("period"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40008, err.Error())
		return
	}
	sortBy := ctx.DefaultQuery("sort_by", leaderboard.ByTime)
	if sortBy != leaderboard.ByTime && sortBy != leaderboard.ByPoints {
		utils.Error(ctx, http.StatusBadRequest, 40009, "sort_by must be time or points")
		return
	}

	key := utils.LeaderboardCachePrefix + string(period) + ":" + sortBy
	if l.cacheTTL > 0 {
		var cached []leaderboard.Entry
		if utils.CacheGetJSON(key, &cached) {
			utils.Success(ctx, cached)
			return
		}
	}

	var entries []leaderboard.Entry
	err = l.reg.View(ctx.Request.Context(), func(ds *models.Dataset) error {
		if sortBy == leaderboard.ByPoints {
			entries = leaderboard.Points(ds.Users)
		} else {
			entries = leaderboard.Time(ds.Users, period, l.now())
		}
		return nil
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	if l.cacheTTL > 0 {
		utils.CacheSetJSON(key, entries, l.cacheTTL)
	}
	utils.Success(ctx, entries)
}
