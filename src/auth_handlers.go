package main

import (
	"net/http"
	"opsdesk/src/controllers"

	"github.com/gin-gonic/gin"
)

func authLogin(ctx *gin.Context) {
	res, status, err := controllers.AuthLogin(ctx)
	if err != nil {
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(status, gin.H{"data": res})
}

func authHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/auth/me", func(ctx *gin.Context) {
			res, status, err := controllers.AuthSession(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": res})
		}).
		GET("/auth/capabilities", func(ctx *gin.Context) {
			caps, status, _ := controllers.AuthCapabilities(ctx)
			ctx.JSON(status, gin.H{"data": caps})
		}).
		POST("/auth/logout", func(ctx *gin.Context) {
			status, err := controllers.AuthLogout(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
