package main

import (
	"net/http"
	"opsdesk/src/controllers"
	"opsdesk/src/middlewares"
	"opsdesk/src/permissions"

	"github.com/gin-gonic/gin"
)

func projectHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	canView := middlewares.RequireCapability(permissions.ProjectsView)
	canEdit := middlewares.RequireCapability(permissions.ProjectsEdit)
	update := func(ctx *gin.Context) {
		project, status, err := controllers.ProjectsUpdate(ctx)
		if err != nil {
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(status, gin.H{"data": project})
	}
	g.
		GET("/projects", canView, func(ctx *gin.Context) {
			res, status, err := controllers.ProjectsList(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, res)
		}).
		GET("/projects/:id", canView, func(ctx *gin.Context) {
			project, status, err := controllers.ProjectsGet(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": project})
		}).
		POST("/projects", middlewares.RequireCapability(permissions.ProjectsCreate), func(ctx *gin.Context) {
			project, status, err := controllers.ProjectsCreate(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": project})
		}).
		PUT("/projects/:id", canEdit, update).
		PATCH("/projects/:id", canEdit, update).
		PUT("/projects/:id/members", middlewares.RequireCapability(permissions.ProjectsMembers), func(ctx *gin.Context) {
			project, status, err := controllers.ProjectsUpdateMembers(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": project})
		}).
		GET("/projects/:id/comments", canView, func(ctx *gin.Context) {
			comments, status, err := controllers.ProjectCommentsList(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": comments})
		}).
		POST("/projects/:id/comments", canView, func(ctx *gin.Context) {
			comment, status, err := controllers.ProjectCommentsCreate(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": comment})
		}).
		DELETE("/projects/:id", middlewares.RequireCapability(permissions.ProjectsDelete), func(ctx *gin.Context) {
			status, err := controllers.ProjectsDelete(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
