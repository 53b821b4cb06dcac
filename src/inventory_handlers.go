package main

import (
	"net/http"
	"opsdesk/src/controllers"
	"opsdesk/src/middlewares"
	"opsdesk/src/permissions"

	"github.com/gin-gonic/gin"
)

func inventoryHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	canView := middlewares.RequireCapability(permissions.InventoryView)
	canEdit := middlewares.RequireCapability(permissions.InventoryEdit)
	update := func(ctx *gin.Context) {
		item, status, err := controllers.InventoryUpdate(ctx)
		if err != nil {
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(status, gin.H{"data": item})
	}
	g.
		GET("/inventory", canView, func(ctx *gin.Context) {
			res, status, err := controllers.InventoryList(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, res)
		}).
		GET("/inventory/:id", canView, func(ctx *gin.Context) {
			item, status, err := controllers.InventoryGet(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": item})
		}).
		GET("/inventory/:id/transactions", canView, func(ctx *gin.Context) {
			movements, status, err := controllers.InventoryTransactionsList(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": movements})
		}).
		POST("/inventory", middlewares.RequireCapability(permissions.InventoryCreate), func(ctx *gin.Context) {
			item, status, err := controllers.InventoryCreate(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": item})
		}).
		PUT("/inventory/:id", canEdit, update).
		PATCH("/inventory/:id", canEdit, update).
		POST("/inventory/:id/adjust", middlewares.RequireCapability(permissions.InventoryAdjust), func(ctx *gin.Context) {
			item, status, err := controllers.InventoryAdjust(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": item})
		}).
		DELETE("/inventory/:id", middlewares.RequireCapability(permissions.InventoryDelete), func(ctx *gin.Context) {
			status, err := controllers.InventoryDelete(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	attachmentHandlers(g, "/inventory", controllers.InventoryAttachments, canView, canEdit)
	return g
}
