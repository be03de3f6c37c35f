package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/poorspot/spotd/occupancy"
	"github.com/poorspot/spotd/store"
	"github.com/poorspot/spotd/utils"
)

var (
	errUserNotFound = errors.New("user not found")
	errSpotNotFound = errors.New("spot not found")
	errNameTaken    = errors.New("username already exists")
)

// respondError maps domain errors onto the response envelope.
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, occupancy.ErrConflict):
		utils.Error(ctx, http.StatusConflict, 40910, "spot already occupied")
	case errors.Is(err, occupancy.ErrForbidden):
		utils.Error(ctx, http.StatusForbidden, 40310, "spot held by another user")
	case errors.Is(err, errUserNotFound):
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
	case errors.Is(err, errSpotNotFound):
		utils.Error(ctx, http.StatusNotFound, 40420, "spot not found")
	case errors.Is(err, occupancy.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, "user or spot not found")
	case errors.Is(err, errNameTaken):
		utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
	case errors.Is(err, store.ErrPersistence):
		utils.Sugar.Errorf("persistence failure: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50010, "storage unavailable")
	default:
		utils.Sugar.Errorf("unexpected error: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
	}
}
