package main

import (
	"net/http"
	"opsdesk/src/controllers"
	"opsdesk/src/middlewares"
	"opsdesk/src/permissions"

	"github.com/gin-gonic/gin"
)

func employeeHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	canView := middlewares.RequireCapability(permissions.EmployeesView)
	canEdit := middlewares.RequireCapability(permissions.EmployeesEdit)
	update := func(ctx *gin.Context) {
		employee, status, err := controllers.EmployeesUpdate(ctx)
		if err != nil {
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(status, gin.H{"data": employee})
	}
	g.
		GET("/employees", canView, func(ctx *gin.Context) {
			res, status, err := controllers.EmployeesList(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, res)
		}).
		GET("/employees/:id", canView, func(ctx *gin.Context) {
			employee, status, err := controllers.EmployeesGet(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": employee})
		}).
		POST("/employees", middlewares.RequireCapability(permissions.EmployeesCreate), func(ctx *gin.Context) {
			employee, status, err := controllers.EmployeesCreate(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": employee})
		}).
		PUT("/employees/:id", canEdit, update).
		PATCH("/employees/:id", canEdit, update).
		DELETE("/employees/:id", middlewares.RequireCapability(permissions.EmployeesDelete), func(ctx *gin.Context) {
			status, err := controllers.EmployeesDelete(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})

	g.
		GET("/employees/:id/documents", canView, func(ctx *gin.Context) {
			docs, status, err := controllers.EmployeeDocumentsList(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": docs})
		}).
		POST("/employees/:id/documents", canEdit, func(ctx *gin.Context) {
			docs, rejected, status, err := controllers.EmployeeDocumentsUpload(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error(), "rejected": rejected})
				return
			}
			ctx.JSON(status, gin.H{"data": docs, "rejected": rejected})
		}).
		GET("/employees/:id/documents/:documentId", canView, func(ctx *gin.Context) {
			doc, body, status, err := controllers.EmployeeDocumentOpen(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			serveFile(ctx, doc.OriginalFilename, doc.MimeType, doc.Size, body)
		}).
		PATCH("/employees/:id/documents/:documentId/verify", middlewares.RequireCapability(permissions.EmployeesVerifyDocuments), func(ctx *gin.Context) {
			doc, status, err := controllers.EmployeeDocumentsVerify(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": doc})
		})
	return g
}
