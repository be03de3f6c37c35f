package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/poorspot/spotd/config"
	"github.com/poorspot/spotd/controllers"
	"github.com/poorspot/spotd/hub"
	"github.com/poorspot/spotd/middleware"
	"github.com/poorspot/spotd/occupancy"
	"github.com/poorspot/spotd/utils"
)

// SetupRouter wires routes, middlewares, and controllers. Every API route is
// served both unversioned and under /api/v1.
func SetupRouter(reg *occupancy.Registry, live *hub.Hub, cfg config.AppConfig) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	accessLog := utils.Logger
	if cfg.GinPath != "" {
		if gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress); err == nil {
			accessLog = gl
		} else {
			utils.Sugar.Warnf("gin access log disabled: %v", err)
		}
	}
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, false))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok", "occupations": len(reg.Occupations())})
	})
	if live != nil {
		r.GET("/ws/occupations", gin.WrapF(live.ServeWS))
	}

	userController := controllers.NewUserController(reg)
	spotController := controllers.NewSpotController(reg)
	occupationController := controllers.NewOccupationController(reg)
	achievementController := controllers.NewAchievementController(reg.Engine())
	leaderboardController := controllers.NewLeaderboardController(reg, time.Duration(cfg.LeaderboardCacheTTLSec)*time.Second)

	authLimit := middleware.RateLimitMiddleware(cfg.RateLimitPerMinute)
	for _, api := range []*gin.RouterGroup{r.Group(""), r.Group("/api/v1")} {
		users := api.Group("/users")
		users.POST("/register", authLimit, userController.Register)
		users.POST("/login", authLimit, userController.Login)
		users.POST("/logout", middleware.AuthRequired(), userController.Logout)
		users.GET("/top", leaderboardController.Top)
		users.GET("/:id", userController.GetUser)
		users.PUT("/:id/attributes", middleware.AuthRequired(), userController.UpdateAttributes)
		users.GET("/:id/favorites", userController.ListFavorites)
		users.POST("/:id/favorites/:spotId", middleware.OptionalAuth(), userController.AddFavorite)
		users.DELETE("/:id/favorites/:spotId", middleware.OptionalAuth(), userController.RemoveFavorite)

		api.GET("/achievements/list", achievementController.List)

		spots := api.Group("/spots")
		spots.GET("", spotController.List)
		spots.GET("/:id", spotController.Get)
		spots.POST("", middleware.AuthRequired(), spotController.Create)
		spots.POST("/:id/reviews", middleware.AuthRequired(), spotController.AddReview)
		spots.POST("/:id/occupy", middleware.OptionalAuth(), occupationController.Occupy)
		spots.POST("/:id/release", middleware.OptionalAuth(), occupationController.Release)

		api.GET("/occupations", occupationController.List)
	}

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
