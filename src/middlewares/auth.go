package middlewares

import (
	"errors"
	"log"
	"net/http"
	"opsdesk/src/config"
	"opsdesk/src/db"
	"opsdesk/src/lib"
	"opsdesk/src/models"
	"opsdesk/src/permissions"
	"opsdesk/src/types"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer ") {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	reqToken := strings.TrimSpace(strings.TrimPrefix(bearerToken, "Bearer "))
	if reqToken == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return config.GetJWTKey(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		if err != nil {
			log.Printf("[Auth] token error: %s\n", err.Error())
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if lib.GetCache().TokenRevoked(ctx.Request.Context(), claims.ID) {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}

	uid, err := strconv.Atoi(claims.Subject)
	if err != nil || uid < 1 {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	var user models.User
	if err := db.GetDb().
		Model(&models.User{}).
		Select("id", "name", "email", "role").
		Where("id = ?", uid).
		First(&user).
		Error; err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	ctx.Set("id", user.ID)
	ctx.Set("email", user.Email)
	ctx.Set("name", user.Name)
	ctx.Set("role", user.Role)
	ctx.Set("token_id", claims.ID)
	if claims.ExpiresAt != nil {
		ctx.Set("token_expires", claims.ExpiresAt.Time)
	}
}

// RequireCapability aborts with 403 unless the authenticated role grants c.
// The role comes from the user row loaded by AuthMiddleware, not from the token.
func RequireCapability(c permissions.Capability) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role := ctx.GetString("role")
		if !permissions.Allowed(role, c) {
			log.Printf("[Auth] denied %s for user %d (%q)\n", c, ctx.GetUint("id"), role)
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		ctx.Next()
	}
}

func SecureHeaders(ctx *gin.Context) {
	h := ctx.Writer.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	if config.IsProd() {
		h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
	}
	ctx.Next()
}

func Maintenance(ctx *gin.Context) {
	if config.IsMaintenance() {
		err := errors.New("server is under maintenance")
		log.Println(err.Error())
		ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	ctx.Next()
}
