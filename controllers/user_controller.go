package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/poorspot/spotd/config"
	"github.com/poorspot/spotd/middleware"
	"github.com/poorspot/spotd/models"
	"github.com/poorspot/spotd/occupancy"
	"github.com/poorspot/spotd/utils"
)

// UserController handles accounts, attributes and favorites.
type UserController struct {
	reg *occupancy.Registry
	now func() time.Time
}

// NewUserController creates a UserController.
func NewUserController(reg *occupancy.Registry) *UserController {
	return &UserController{reg: reg, now: time.Now}
}

type userResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Attributes   []string            `json:"attributes"`
	Favorites    []string            `json:"favorites"`
	History      []models.CheckInLog `json:"history"`
	CreatedAt    string              `json:"createdAt"`
	Points       int                 `json:"points"`
	Achievements []string            `json:"achievements"`
}

func sanitizeUserResponse(u models.User) userResponse {
	u.Normalize()
	return userResponse{
		ID:           u.ID,
		Name:         u.Name,
		Attributes:   u.Attributes,
		Favorites:    u.Favorites,
		History:      u.History,
		CreatedAt:    u.CreatedAt,
		Points:       u.Points,
		Achievements: u.Achievements,
	}
}

type credentials struct {
	Username   string   `json:"username" binding:"required"`
	Password   string   `json:"password" binding:"required"`
	Attributes []string `json:"attributes"`
}

func issueToken(u models.User) (string, error) {
	ttl := time.Duration(config.Get().TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return utils.GenerateToken(u.ID, u.Name, ttl)
}

// Register creates an account. Every new account starts with the welcome
// achievement.
func (u *UserController) Register(ctx *gin.Context) {
	var req credentials
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	// login matches the raw name, so the stored one must need no cleaning
	name := strings.TrimSpace(req.Username)
	if utils.SanitizeText(name) != name {
		utils.Error(ctx, http.StatusBadRequest, 40010, "username contains markup or reserved characters")
		return
	}
	if l := len([]rune(name)); l < 2 || l > 32 {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username must be 2-32 characters")
		return
	}
	if len(req.Password) < 4 || len(req.Password) > 72 {
		utils.Error(ctx, http.StatusBadRequest, 40003, "password must be 4-72 characters")
		return
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	var created models.User
	err = u.reg.Update(ctx.Request.Context(), func(ds *models.Dataset) error {
		if ds.FindUserByName(name) != nil {
			return errNameTaken
		}
		user := models.User{
			ID:           uuid.NewString(),
			Name:         name,
			PasswordHash: hash,
			Attributes:   utils.UniqueStrings(req.Attributes),
			Favorites:    []string{},
			History:      []models.CheckInLog{},
			CreatedAt:    models.FormatTimestamp(u.now()),
			Achievements: []string{},
		}
		u.reg.Engine().Grant(&user, "welcome")
		ds.Users = append(ds.Users, user)
		created = user
		return nil
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	go utils.InvalidateByPrefix(utils.LeaderboardCachePrefix)

	token, err := issueToken(created)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to issue token")
		return
	}
	utils.Sugar.Infow("user registered", "user_id", created.ID)
	utils.Created(ctx, gin.H{"user": sanitizeUserResponse(created), "token": token})
}

// Login verifies credentials and returns the user with a fresh token.
func (u *UserController) Login(ctx *gin.Context) {
	var req credentials
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	var found models.User
	ok := false
	err := u.reg.View(ctx.Request.Context(), func(ds *models.Dataset) error {
		if user := ds.FindUserByName(req.Username); user != nil && utils.CheckPassword(user.PasswordHash, req.Password) {
			found, ok = *user, true
		}
		return nil
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid credentials")
		return
	}

	if utils.NeedsRehash(found.PasswordHash) {
		if hash, err := utils.HashPassword(req.Password); err == nil {
			err = u.reg.Update(ctx.Request.Context(), func(ds *models.Dataset) error {
				if user := ds.FindUser(found.ID); user != nil {
					user.PasswordHash = hash
				}
				return nil
			})
			if err != nil {
				utils.Sugar.Warnw("password rehash not saved", "user_id", found.ID, "error", err)
			}
		}
	}

	token, err := issueToken(found)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to issue token")
		return
	}
	utils.Success(ctx, gin.H{"user": sanitizeUserResponse(found), "token": token})
}

// Logout revokes the bearer token until it expires.
func (u *UserController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	if c, ok := ctx.Get(middleware.ContextClaimsKey); ok {
		if claims, ok := c.(*utils.Claims); ok && claims.ExpiresAt != nil {
			utils.BlacklistToken(token, claims.ExpiresAt.Time)
		}
	}
	utils.Success(ctx, gin.H{"status": "ok"})
}

// GetUser returns a user's public profile and history.
func (u *UserController) GetUser(ctx *gin.Context) {
	id := strings.TrimSpace(ctx.Param("id"))
	var found models.User
	err := u.reg.View(ctx.Request.Context(), func(ds *models.Dataset) error {
		user := ds.FindUser(id)
		if user == nil {
			return errUserNotFound
		}
		found = *user
		return nil
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, sanitizeUserResponse(found))
}

// UpdateAttributes replaces the caller's attribute list.
func (u *UserController) UpdateAttributes(ctx *gin.Context) {
	id := ctx.Param("id")
	if caller, _ := middleware.CurrentUserID(ctx); caller != id {
		utils.Error(ctx, http.StatusForbidden, 40301, "cannot edit another user")
		return
	}
	var attrs []string
	if err := ctx.ShouldBindJSON(&attrs); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "expected a JSON array of attributes")
		return
	}
	for i := range attrs {
		attrs[i] = utils.SanitizeText(attrs[i])
	}

	var updated models.User
	err := u.reg.Update(ctx.Request.Context(), func(ds *models.Dataset) error {
		user := ds.FindUser(id)
		if user == nil {
			return errUserNotFound
		}
		user.Attributes = utils.UniqueStrings(attrs)
		updated = *user
		return nil
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, sanitizeUserResponse(updated))
}

// ListFavorites returns the user's favorite spot ids.
func (u *UserController) ListFavorites(ctx *gin.Context) {
	id := ctx.Param("id")
	var favorites []string
	err := u.reg.View(ctx.Request.Context(), func(ds *models.Dataset) error {
		user := ds.FindUser(id)
		if user == nil {
			return errUserNotFound
		}
		favorites = user.Favorites
		return nil
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, favorites)
}

// AddFavorite adds a spot to the user's favorites. Adding twice is a no-op.
func (u *UserController) AddFavorite(ctx *gin.Context) {
	u.changeFavorite(ctx, true)
}

// RemoveFavorite drops a spot from the user's favorites.
func (u *UserController) RemoveFavorite(ctx *gin.Context) {
	u.changeFavorite(ctx, false)
}

func (u *UserController) changeFavorite(ctx *gin.Context, add bool) {
	id, ok := actingUser(ctx, ctx.Param("id"))
	if !ok {
		return
	}
	spotID := ctx.Param("spotId")

	var favorites []string
	err := u.reg.Update(ctx.Request.Context(), func(ds *models.Dataset) error {
		user := ds.FindUser(id)
		if user == nil {
			return errUserNotFound
		}
		if add {
			if ds.FindSpot(spotID) == nil {
				return errSpotNotFound
			}
			if !utils.ContainsString(user.Favorites, spotID) {
				user.Favorites = append(user.Favorites, spotID)
			}
		} else {
			user.Favorites = utils.RemoveString(user.Favorites, spotID)
		}
		favorites = user.Favorites
		return nil
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"status": "ok", "favorites": favorites})
}

// actingUser resolves the user a request acts for. A bearer token, when
// present, must name the same user; it also fills in a missing id.
func actingUser(ctx *gin.Context, claimed string) (string, bool) {
	claimed = strings.TrimSpace(claimed)
	caller, authenticated := middleware.CurrentUserID(ctx)
	switch {
	case authenticated && claimed != "" && claimed != caller:
		utils.Error(ctx, http.StatusForbidden, 40302, "token does not match user_id")
		return "", false
	case claimed != "":
		return claimed, true
	case authenticated:
		return caller, true
	default:
		utils.Error(ctx, http.StatusBadRequest, 40004, "user_id is required")
		return "", false
	}
}
