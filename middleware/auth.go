package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/poorspot/spotd/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextTokenKey stores the raw bearer token, used by logout.
	ContextTokenKey = "token"
	// ContextClaimsKey stores the parsed claims.
	ContextClaimsKey = "claims"
)

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetHeader("Authorization") == "" {
			utils.Abort(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			return
		}
		if authenticate(ctx) {
			ctx.Next()
		}
	}
}

// OptionalAuth identifies the caller when a bearer token is sent. A token
// that is present but invalid is still rejected.
func OptionalAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetHeader("Authorization") == "" {
			ctx.Next()
			return
		}
		if authenticate(ctx) {
			ctx.Next()
		}
	}
}

// CurrentUserID returns the authenticated user id, if any.
func CurrentUserID(ctx *gin.Context) (string, bool) {
	v, ok := ctx.Get(ContextUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func authenticate(ctx *gin.Context) bool {
	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		utils.Abort(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
		return false
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		utils.Abort(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
		return false
	}

	if utils.IsTokenBlacklisted(tokenString) {
		utils.Abort(ctx, http.StatusUnauthorized, 40104, "token revoked")
		return false
	}

	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		utils.Abort(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return false
	}

	ctx.Set(ContextUserIDKey, claims.UserID)
	ctx.Set(ContextUsernameKey, claims.Username)
	ctx.Set(ContextTokenKey, tokenString)
	ctx.Set(ContextClaimsKey, claims)
	return true
}
