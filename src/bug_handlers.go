package main

import (
	"fmt"
	"io"
	"net/http"
	"opsdesk/src/controllers"
	"opsdesk/src/middlewares"
	"opsdesk/src/permissions"

	"github.com/gin-gonic/gin"
)

func bugHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	canView := middlewares.RequireCapability(permissions.BugsView)
	canEdit := middlewares.RequireCapability(permissions.BugsEdit)
	update := func(ctx *gin.Context) {
		bug, status, err := controllers.BugsUpdate(ctx)
		if err != nil {
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(status, gin.H{"data": bug})
	}
	g.
		GET("/bugs", canView, func(ctx *gin.Context) {
			res, status, err := controllers.BugsList(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, res)
		}).
		GET("/bugs/:id", canView, func(ctx *gin.Context) {
			bug, status, err := controllers.BugsGet(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": bug})
		}).
		POST("/bugs", middlewares.RequireCapability(permissions.BugsCreate), func(ctx *gin.Context) {
			bug, rejected, status, err := controllers.BugsCreate(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error(), "rejected": rejected})
				return
			}
			ctx.JSON(status, gin.H{"data": bug, "rejected": rejected})
		}).
		PUT("/bugs/:id", canEdit, update).
		PATCH("/bugs/:id", canEdit, update).
		DELETE("/bugs/:id", middlewares.RequireCapability(permissions.BugsDelete), func(ctx *gin.Context) {
			status, err := controllers.BugsDelete(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})

	attachmentHandlers(g, "/bugs", controllers.BugAttachments, canView, canEdit)

	g.
		GET("/bugs/:id/comments", canView, func(ctx *gin.Context) {
			comments, status, err := controllers.BugCommentsList(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": comments})
		}).
		POST("/bugs/:id/comments", middlewares.RequireCapability(permissions.BugsComment), func(ctx *gin.Context) {
			comment, status, err := controllers.BugCommentsCreate(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": comment})
		})
	return g
}

func serveFile(ctx *gin.Context, filename string, mimeType string, size int64, body io.ReadCloser) {
	defer body.Close()
	ctx.DataFromReader(http.StatusOK, size, mimeType, body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", filename),
	})
}
