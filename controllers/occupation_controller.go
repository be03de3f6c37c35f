package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/poorspot/spotd/occupancy"
	"github.com/poorspot/spotd/utils"
)

// OccupationController drives spot sessions.
type OccupationController struct {
	reg *occupancy.Registry
}

// NewOccupationController creates an OccupationController.
func NewOccupationController(reg *occupancy.Registry) *OccupationController {
	return &OccupationController{reg: reg}
}

// List returns the live occupation map keyed by spot id.
func (o *OccupationController) List(ctx *gin.Context) {
	utils.Success(ctx, o.reg.Occupations())
}

// Occupy starts a session on the spot for user_id.
func (o *OccupationController) Occupy(ctx *gin.Context) {
	userID, ok := actingUser(ctx, ctx.Query("user_id"))
	if !ok {
		return
	}
	res, err := o.reg.Occupy(ctx.Request.Context(), ctx.Param("id"), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, res)
}

// Release ends user_id's session on the spot.
func (o *OccupationController) Release(ctx *gin.Context) {
	userID, ok := actingUser(ctx, ctx.Query("user_id"))
	if !ok {
		return
	}
	res, err := o.reg.Release(ctx.Request.Context(), ctx.Param("id"), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, res)
}
