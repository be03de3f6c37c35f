package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/poorspot/spotd/middleware"
	"github.com/poorspot/spotd/models"
	"github.com/poorspot/spotd/occupancy"
	"github.com/poorspot/spotd/utils"
)

// SpotController exposes the spot catalog and reviews.
type SpotController struct {
	reg *occupancy.Registry
	now func() time.Time
}

// NewSpotController creates a SpotController.
func NewSpotController(reg *occupancy.Registry) *SpotController {
	return &SpotController{reg: reg, now: time.Now}
}

type spotRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude" binding:"required"`
	Longitude   *float64 `json:"longitude" binding:"required"`
	Category    string   `json:"category"`
}

type reviewRequest struct {
	RatingRevenue  float64 `json:"ratingRevenue"`
	RatingSecurity float64 `json:"ratingSecurity"`
	RatingTraffic  float64 `json:"ratingTraffic"`
	Attribute      string  `json:"attribute"`
	Comment        string  `json:"comment"`
}

type contributionResponse struct {
	Spot            models.Spot                    `json:"spot"`
	NewAchievements []models.AchievementDefinition `json:"new_achievements"`
	TotalPoints     int                            `json:"total_points"`
}

// withActiveCounts fills CurrentActiveUsers from the live occupation map.
func withActiveCounts(spots []models.Spot, occupations map[string]occupancy.Occupant) []models.Spot {
	out := make([]models.Spot, len(spots))
	for i, s := range spots {
		s.Normalize()
		s.CurrentActiveUsers = 0
		if _, held := occupations[s.ID]; held {
			s.CurrentActiveUsers = 1
		}
		out[i] = s
	}
	return out
}

// List returns every spot with its live occupancy.
func (s *SpotController) List(ctx *gin.Context) {
	var spots []models.Spot
	err := s.reg.View(ctx.Request.Context(), func(ds *models.Dataset) error {
		spots = append(spots, ds.Spots...)
		return nil
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	if category := strings.TrimSpace(ctx.Query("category")); category != "" {
		filtered := spots[:0]
		for _, sp := range spots {
			if strings.EqualFold(sp.Category, category) {
				filtered = append(filtered, sp)
			}
		}
		spots = filtered
	}
	utils.Success(ctx, withActiveCounts(spots, s.reg.Occupations()))
}

// Get returns a single spot.
func (s *SpotController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	var spot models.Spot
	err := s.reg.View(ctx.Request.Context(), func(ds *models.Dataset) error {
		found := ds.FindSpot(id)
		if found == nil {
			return errSpotNotFound
		}
		spot = *found
		return nil
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, withActiveCounts([]models.Spot{spot}, s.reg.Occupations())[0])
}

// Create adds a spot credited to the caller and evaluates the caller's
// contribution achievements.
func (s *SpotController) Create(ctx *gin.Context) {
	callerID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	var req spotRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	name := utils.SanitizeText(req.Name)
	if name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40005, "name is required")
		return
	}
	if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
		utils.Error(ctx, http.StatusBadRequest, 40006, "coordinates out of range")
		return
	}

	var resp contributionResponse
	err := s.reg.Update(ctx.Request.Context(), func(ds *models.Dataset) error {
		creator := ds.FindUser(callerID)
		if creator == nil {
			return errUserNotFound
		}
		spot := models.Spot{
			ID:          uuid.NewString(),
			Name:        name,
			Description: utils.Sanitize(req.Description),
			Latitude:    *req.Latitude,
			Longitude:   *req.Longitude,
			Category:    utils.SanitizeText(req.Category),
			CreatedAt:   models.FormatTimestamp(s.now()),
			CreatedBy:   creator.ID,
			Reviews:     []models.Review{},
		}
		ds.Spots = append(ds.Spots, spot)
		resp.Spot = spot
		resp.NewAchievements = s.reg.Engine().Evaluate(creator, ds)
		resp.TotalPoints = creator.Points
		return nil
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	if len(resp.NewAchievements) > 0 {
		go utils.InvalidateByPrefix(utils.LeaderboardCachePrefix)
	}
	utils.Created(ctx, resp)
}

// AddReview records the caller's review of a spot.
func (s *SpotController) AddReview(ctx *gin.Context) {
	callerID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	var req reviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	for _, r := range []float64{req.RatingRevenue, req.RatingSecurity, req.RatingTraffic} {
		if r < 0 || r > 5 {
			utils.Error(ctx, http.StatusBadRequest, 40007, "ratings must be between 0 and 5")
			return
		}
	}

	spotID := ctx.Param("id")
	var resp contributionResponse
	err := s.reg.Update(ctx.Request.Context(), func(ds *models.Dataset) error {
		author := ds.FindUser(callerID)
		if author == nil {
			return errUserNotFound
		}
		spot := ds.FindSpot(spotID)
		if spot == nil {
			return errSpotNotFound
		}
		spot.AddReview(models.Review{
			ID:             uuid.NewString(),
			AuthorName:     author.Name,
			RatingRevenue:  req.RatingRevenue,
			RatingSecurity: req.RatingSecurity,
			RatingTraffic:  req.RatingTraffic,
			Attribute:      utils.SanitizeText(req.Attribute),
			Comment:        utils.SanitizeText(req.Comment),
			CreatedAt:      models.FormatTimestamp(s.now()),
		})
		resp.Spot = *spot
		resp.NewAchievements = s.reg.Engine().Evaluate(author, ds)
		resp.TotalPoints = author.Points
		return nil
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	if len(resp.NewAchievements) > 0 {
		go utils.InvalidateByPrefix(utils.LeaderboardCachePrefix)
	}
	utils.Created(ctx, resp)
}
