package main

import (
	"net/http"
	"opsdesk/src/controllers"

	"github.com/gin-gonic/gin"
)

// attachmentHandlers mounts the attachment routes of one owner under base.
func attachmentHandlers(g *gin.RouterGroup, base string, owner controllers.AttachmentOwner, canView gin.HandlerFunc, canEdit gin.HandlerFunc) *gin.RouterGroup {
	g.
		GET(base+"/:id/attachments", canView, func(ctx *gin.Context) {
			attachments, status, err := owner.List(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": attachments})
		}).
		POST(base+"/:id/attachments", canEdit, func(ctx *gin.Context) {
			attachments, rejected, status, err := owner.Upload(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error(), "rejected": rejected})
				return
			}
			ctx.JSON(status, gin.H{"data": attachments, "rejected": rejected})
		}).
		GET(base+"/:id/attachments/:attachmentId", canView, func(ctx *gin.Context) {
			attachment, body, status, err := owner.Open(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			serveFile(ctx, attachment.OriginalFilename, attachment.MimeType, attachment.Size, body)
		}).
		DELETE(base+"/:id/attachments/:attachmentId", canEdit, func(ctx *gin.Context) {
			status, err := owner.Delete(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
