package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"opsdesk/src/common"
	"opsdesk/src/db"
	awslib "opsdesk/src/lib/aws"
	"opsdesk/src/models"
	"opsdesk/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func toAttachments(entityType string, entityId uint, uploader uint, stored []storedFile) []models.Attachment {
	out := make([]models.Attachment, 0, len(stored))
	for _, f := range stored {
		out = append(out, models.Attachment{
			EntityType:       entityType,
			EntityID:         entityId,
			OriginalFilename: f.Name,
			MimeType:         f.MimeType,
			Size:             f.Size,
			StoragePath:      f.Key,
			UploadedBy:       uploader,
		})
	}
	return out
}

func keysOf(stored []storedFile) []string {
	keys := make([]string, 0, len(stored))
	for _, f := range stored {
		keys = append(keys, f.Key)
	}
	return keys
}

func requireOwner(tx *gorm.DB, model any, id uint) error {
	ok, err := exists(tx, model, id)
	if err != nil {
		return err
	}
	if !ok {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AttachmentOwner exposes the attachment operations for one owning record type.
type AttachmentOwner struct {
	// Entity is the owner's entity name, stored on each row and used as the
	// object key prefix.
	Entity string
	// Noun names the owner in errors.
	Noun  string
	model func() any
}

var (
	BugAttachments       = AttachmentOwner{Entity: bugsEntity, Noun: "bug", model: func() any { return &models.Bug{} }}
	InventoryAttachments = AttachmentOwner{Entity: inventoryEntity, Noun: "inventory item", model: func() any { return &models.InventoryItem{} }}
)

func (o AttachmentOwner) List(ctx *gin.Context) ([]models.Attachment, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		status, err := statusOf(o.Noun, err)
		return nil, status, err
	}
	db := db.GetDb()
	if err := requireOwner(db, o.model(), id); err != nil {
		status, err := statusOf(o.Noun, err)
		return nil, status, err
	}
	attachments := []models.Attachment{}
	if err := db.
		Where(&models.Attachment{EntityType: o.Entity, EntityID: id}).
		Order("id ASC").
		Find(&attachments).
		Error; err != nil {
		status, err := statusOf("attachment", err)
		return nil, status, err
	}
	return attachments, http.StatusOK, nil
}

// Upload stores every acceptable file part and reports the rest as rejected.
func (o AttachmentOwner) Upload(ctx *gin.Context) ([]models.Attachment, []types.RejectedFile, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		status, err := statusOf(o.Noun, err)
		return nil, nil, status, err
	}
	userId := ctx.GetUint("id")
	db := db.GetDb()
	if err := requireOwner(db, o.model(), id); err != nil {
		status, err := statusOf(o.Noun, err)
		return nil, nil, status, err
	}
	stored, rejected, err := storeUploads(ctx, fmt.Sprintf("%s/%d", o.Entity, id))
	if err != nil {
		status, err := statusOf("attachment", err)
		return nil, rejected, status, err
	}
	if len(stored) == 0 {
		if len(rejected) == 0 {
			return nil, nil, http.StatusBadRequest, errors.New("no files provided")
		}
		return nil, rejected, http.StatusBadRequest, errors.New("no acceptable files provided")
	}
	attachments := toAttachments(o.Entity, id, userId, stored)
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&attachments).Error; err != nil {
			return err
		}
		names := make([]string, 0, len(attachments))
		for _, a := range attachments {
			names = append(names, a.OriginalFilename)
		}
		return common.RecordAudit(tx, userId, o.Entity, id, common.AuditUpdate, types.JSONB{"attachments_added": names})
	})
	if err != nil {
		removeObjects(ctx.Request.Context(), keysOf(stored)...)
		status, err := statusOf("attachment", err)
		return nil, rejected, status, err
	}
	invalidate(ctx.Request.Context(), o.Entity)
	return attachments, rejected, http.StatusCreated, nil
}

func (o AttachmentOwner) find(ctx *gin.Context) (*models.Attachment, error) {
	var params types.AttachmentURIParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		return nil, badRequest("invalid attachment id")
	}
	db := db.GetDb()
	if err := requireOwner(db, o.model(), params.ID); err != nil {
		return nil, notFound(o.Noun)
	}
	var attachment models.Attachment
	if err := db.
		Where(&models.Attachment{EntityType: o.Entity, EntityID: params.ID}).
		Where("id = ?", params.AttachmentID).
		First(&attachment).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("attachment")
		}
		return nil, err
	}
	return &attachment, nil
}

// Open returns the attachment row and a reader over its content.
func (o AttachmentOwner) Open(ctx *gin.Context) (*models.Attachment, io.ReadCloser, int, error) {
	attachment, err := o.find(ctx)
	if err != nil {
		status, err := statusOf("attachment", err)
		return nil, nil, status, err
	}
	body, err := awslib.GetObjectStore().Open(ctx.Request.Context(), attachment.StoragePath)
	if err != nil {
		if errors.Is(err, awslib.ErrObjectNotFound) {
			return nil, nil, http.StatusNotFound, notFound("attachment")
		}
		status, err := statusOf("attachment", err)
		return nil, nil, status, err
	}
	return attachment, body, http.StatusOK, nil
}

func (o AttachmentOwner) Delete(ctx *gin.Context) (int, error) {
	attachment, err := o.find(ctx)
	if err != nil {
		return statusOf("attachment", err)
	}
	userId := ctx.GetUint("id")
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Delete(&models.Attachment{}, attachment.ID).Error; err != nil {
			return err
		}
		return common.RecordAudit(tx, userId, o.Entity, attachment.EntityID, common.AuditUpdate, types.JSONB{"attachment_removed": attachment.OriginalFilename})
	})
	if err != nil {
		return statusOf("attachment", err)
	}
	removeObjects(ctx.Request.Context(), attachment.StoragePath)
	invalidate(ctx.Request.Context(), o.Entity)
	return http.StatusNoContent, nil
}
