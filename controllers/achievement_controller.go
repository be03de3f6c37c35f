package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/poorspot/spotd/achievement"
	"github.com/poorspot/spotd/utils"
)

// AchievementController serves the achievement catalog.
type AchievementController struct {
	engine *achievement.Engine
}

// NewAchievementController creates an AchievementController.
func NewAchievementController(engine *achievement.Engine) *AchievementController {
	return &AchievementController{engine: engine}
}

// List returns every achievement definition in catalog order.
func (a *AchievementController) List(ctx *gin.Context) {
	utils.Success(ctx, a.engine.Catalog())
}
