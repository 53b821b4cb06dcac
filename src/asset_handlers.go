package main

import (
	"net/http"
	"opsdesk/src/controllers"
	"opsdesk/src/middlewares"
	"opsdesk/src/permissions"

	"github.com/gin-gonic/gin"
)

func assetHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	canView := middlewares.RequireCapability(permissions.AssetsView)
	canEdit := middlewares.RequireCapability(permissions.AssetsEdit)
	update := func(ctx *gin.Context) {
		asset, status, err := controllers.AssetsUpdate(ctx)
		if err != nil {
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(status, gin.H{"data": asset})
	}
	g.
		GET("/assets", canView, func(ctx *gin.Context) {
			res, status, err := controllers.AssetsList(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, res)
		}).
		GET("/assets/:id", canView, func(ctx *gin.Context) {
			asset, status, err := controllers.AssetsGet(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": asset})
		}).
		POST("/assets", middlewares.RequireCapability(permissions.AssetsCreate), func(ctx *gin.Context) {
			asset, status, err := controllers.AssetsCreate(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": asset})
		}).
		PUT("/assets/:id", canEdit, update).
		PATCH("/assets/:id", canEdit, update).
		GET("/assets/:id/assignments", canView, func(ctx *gin.Context) {
			history, status, err := controllers.AssetAssignmentsList(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": history})
		}).
		POST("/assets/:id/assign", middlewares.RequireCapability(permissions.AssetsAssign), func(ctx *gin.Context) {
			asset, status, err := controllers.AssetsAssign(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": asset})
		}).
		DELETE("/assets/:id", middlewares.RequireCapability(permissions.AssetsDelete), func(ctx *gin.Context) {
			status, err := controllers.AssetsDelete(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
