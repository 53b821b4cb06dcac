package controllers

import (
	"fmt"
	"net/http"
	"opsdesk/src/common"
	"opsdesk/src/db"
	"opsdesk/src/lib"
	"opsdesk/src/models"
	"opsdesk/src/models/scopes"
	"opsdesk/src/status"
	"opsdesk/src/types"
	"opsdesk/src/utils"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const assetsEntity = "assets"

func AssetsList(ctx *gin.Context) (*types.ListResponse[models.Asset], int, error) {
	var q types.AssetQueryFilters
	if err := bindQuery(ctx, &q, &q.ListQuery); err != nil {
		return failWith[types.ListResponse[models.Asset]]("asset", err)
	}
	cache := lib.GetCache()
	key := cacheKey(ctx)
	var cached types.ListResponse[models.Asset]
	if cache.Get(ctx.Request.Context(), assetsEntity, key, &cached) {
		return &cached, http.StatusOK, nil
	}
	userId := ctx.GetUint("id")
	db := db.GetDb()
	base := func() *gorm.DB {
		tx := db.Model(&models.Asset{}).
			Scopes(scopes.Search(q.Search, "name", "asset_tag", "serial_number"))
		if q.Status != "" {
			tx = tx.Scopes(scopes.WithStatus(status.Asset.Normalize(q.Status)))
		}
		if q.Category != "" {
			tx = tx.Where("category = ?", q.Category)
		}
		if q.AssignedTo > 0 {
			tx = tx.Where("assigned_to = ?", q.AssignedTo)
		}
		if q.Scope == "mine" {
			tx = tx.Scopes(scopes.Mine(userId, "assigned_to"))
		}
		return tx
	}
	res, err := listPage[models.Asset](base, q.ListQuery, true)
	if err != nil {
		return failWith[types.ListResponse[models.Asset]]("asset", err)
	}
	resolveAssignees(db, res.Data)
	cache.Set(ctx.Request.Context(), assetsEntity, key, res)
	return res, http.StatusOK, nil
}

func AssetsGet(ctx *gin.Context) (*models.Asset, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return failWith[models.Asset]("asset", err)
	}
	cache := lib.GetCache()
	key := fmt.Sprintf("detail:%d", id)
	var asset models.Asset
	if cache.Get(ctx.Request.Context(), assetsEntity, key, &asset) {
		return &asset, http.StatusOK, nil
	}
	db := db.GetDb()
	if err := db.Scopes(scopes.WithID(id)).First(&asset).Error; err != nil {
		return failWith[models.Asset]("asset", err)
	}
	assets := []models.Asset{asset}
	resolveAssignees(db, assets)
	cache.Set(ctx.Request.Context(), assetsEntity, key, &assets[0])
	return &assets[0], http.StatusOK, nil
}

func AssetsCreate(ctx *gin.Context) (*models.Asset, int, error) {
	var body types.CreateAssetRequestBody
	if err := bindJSON(ctx, &body); err != nil {
		return failWith[models.Asset]("asset", err)
	}
	userId := ctx.GetUint("id")
	asset := models.Asset{
		AssetTag:     strings.TrimSpace(body.AssetTag),
		Name:         strings.TrimSpace(body.Name),
		Category:     strings.TrimSpace(body.Category),
		SerialNumber: body.SerialNumber,
		Status:       status.Asset.Fallback,
		AssignedTo:   nilIfZero(body.AssignedTo),
		PurchaseCost: body.PurchaseCost,
		Notes:        body.Notes,
	}
	if asset.AssetTag == "" || asset.Name == "" || asset.Category == "" {
		return failWith[models.Asset]("asset", badRequest("asset_tag, name and category must not be blank"))
	}
	if body.Status != "" {
		asset.Status = status.Asset.Normalize(body.Status)
	}
	if asset.AssignedTo != nil {
		asset.Status = "Assigned"
	}
	var err error
	if asset.PurchaseDate, err = utils.ParseDate(body.PurchaseDate); err != nil {
		return failWith[models.Asset]("asset", badRequest("purchase_date must be a date (YYYY-MM-DD)"))
	}
	if asset.WarrantyExpiry, err = utils.ParseDate(body.WarrantyExpiry); err != nil {
		return failWith[models.Asset]("asset", badRequest("warranty_expiry must be a date (YYYY-MM-DD)"))
	}

	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := requireAssetTagFree(tx, asset.AssetTag, 0); err != nil {
			return err
		}
		if asset.AssignedTo != nil {
			if err := requireUser(tx, *asset.AssignedTo); err != nil {
				return err
			}
		}
		if err := tx.Create(&asset).Error; err != nil {
			return err
		}
		if err := recordHandOff(tx, asset.ID, asset.AssignedTo, userId); err != nil {
			return err
		}
		return common.RecordAudit(tx, userId, assetsEntity, asset.ID, common.AuditCreate, types.JSONB{"asset_tag": asset.AssetTag, "status": asset.Status})
	})
	if err != nil {
		return failWith[models.Asset]("asset", err)
	}
	invalidate(ctx.Request.Context(), assetsEntity)
	if asset.AssignedTo != nil {
		go notifyAssetAssigned(asset)
	}
	assets := []models.Asset{asset}
	resolveAssignees(db, assets)
	return &assets[0], http.StatusCreated, nil
}

func AssetsUpdate(ctx *gin.Context) (*models.Asset, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return failWith[models.Asset]("asset", err)
	}
	var body types.UpdateAssetRequestBody
	if err := bindJSON(ctx, &body); err != nil {
		return failWith[models.Asset]("asset", err)
	}
	userId := ctx.GetUint("id")
	var asset models.Asset
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(scopes.WithID(id)).First(&asset).Error; err != nil {
			return err
		}
		changes := types.JSONB{}
		released := false
		if body.AssetTag != nil {
			tag := strings.TrimSpace(*body.AssetTag)
			if tag == "" {
				return badRequest("asset_tag must not be blank")
			}
			if tag != asset.AssetTag {
				if err := requireAssetTagFree(tx, tag, asset.ID); err != nil {
					return err
				}
			}
			track(changes, "asset_tag", &asset.AssetTag, &tag)
		}
		track(changes, "name", &asset.Name, body.Name)
		track(changes, "category", &asset.Category, body.Category)
		track(changes, "serial_number", &asset.SerialNumber, body.SerialNumber)
		track(changes, "notes", &asset.Notes, body.Notes)
		if body.Status != nil {
			next := status.Asset.Normalize(*body.Status)
			if next == "Assigned" && asset.AssignedTo == nil {
				return badRequest("use the assign action to assign an asset")
			}
			if next != "Assigned" && asset.AssignedTo != nil {
				changes["assigned_to"] = types.JSONB{"from": *asset.AssignedTo, "to": nil}
				asset.AssignedTo = nil
				released = true
			}
			track(changes, "status", &asset.Status, &next)
		}
		if body.PurchaseCost != nil {
			asset.PurchaseCost = body.PurchaseCost
			changes["purchase_cost"] = *body.PurchaseCost
		}
		if body.PurchaseDate != nil {
			d, err := utils.ParseDate(body.PurchaseDate)
			if err != nil {
				return badRequest("purchase_date must be a date (YYYY-MM-DD)")
			}
			asset.PurchaseDate = d
			changes["purchase_date"] = *body.PurchaseDate
		}
		if body.WarrantyExpiry != nil {
			d, err := utils.ParseDate(body.WarrantyExpiry)
			if err != nil {
				return badRequest("warranty_expiry must be a date (YYYY-MM-DD)")
			}
			asset.WarrantyExpiry = d
			changes["warranty_expiry"] = *body.WarrantyExpiry
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Save(&asset).Error; err != nil {
			return err
		}
		if released {
			if err := recordHandOff(tx, asset.ID, nil, userId); err != nil {
				return err
			}
		}
		return common.RecordAudit(tx, userId, assetsEntity, asset.ID, common.AuditUpdate, changes)
	})
	if err != nil {
		return failWith[models.Asset]("asset", err)
	}
	invalidate(ctx.Request.Context(), assetsEntity)
	assets := []models.Asset{asset}
	resolveAssignees(db, assets)
	return &assets[0], http.StatusOK, nil
}

// AssetsAssign hands the asset to a user, or returns it to the pool when user_id is null.
func AssetsAssign(ctx *gin.Context) (*models.Asset, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return failWith[models.Asset]("asset", err)
	}
	var body types.AssignAssetRequestBody
	if err := bindJSON(ctx, &body); err != nil {
		return failWith[models.Asset]("asset", err)
	}
	userId := ctx.GetUint("id")
	target := nilIfZero(body.UserID)
	var asset models.Asset
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(scopes.WithID(id)).First(&asset).Error; err != nil {
			return err
		}
		if target != nil {
			if asset.Status == "Retired" {
				return badRequest("a retired asset cannot be assigned")
			}
			if err := requireUser(tx, *target); err != nil {
				return err
			}
		}
		if sameRef(asset.AssignedTo, target) {
			return nil
		}
		changes := types.JSONB{"assigned_to": types.JSONB{"from": asset.AssignedTo, "to": target}}
		next := "Available"
		if target != nil {
			next = "Assigned"
		}
		track(changes, "status", &asset.Status, &next)
		asset.AssignedTo = target
		if err := tx.Model(&models.Asset{}).Where("id = ?", asset.ID).Updates(map[string]any{
			"assigned_to": asset.AssignedTo,
			"status":      asset.Status,
		}).Error; err != nil {
			return err
		}
		if err := recordHandOff(tx, asset.ID, target, userId); err != nil {
			return err
		}
		return common.RecordAudit(tx, userId, assetsEntity, asset.ID, common.AuditUpdate, changes)
	})
	if err != nil {
		return failWith[models.Asset]("asset", err)
	}
	invalidate(ctx.Request.Context(), assetsEntity)
	if asset.AssignedTo != nil {
		go notifyAssetAssigned(asset)
	}
	assets := []models.Asset{asset}
	resolveAssignees(db, assets)
	return &assets[0], http.StatusOK, nil
}

// AssetAssignmentsList returns the asset's hand-off history, newest first.
func AssetAssignmentsList(ctx *gin.Context) ([]models.AssetAssignment, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		status, err := statusOf("asset", err)
		return nil, status, err
	}
	db := db.GetDb()
	if err := requireOwner(db, &models.Asset{}, id); err != nil {
		status, err := statusOf("asset", err)
		return nil, status, err
	}
	history := []models.AssetAssignment{}
	if err := db.Where("asset_id = ?", id).Order("assigned_at DESC, id DESC").Find(&history).Error; err != nil {
		status, err := statusOf("assignment", err)
		return nil, status, err
	}
	ids := []uint{}
	for _, h := range history {
		ids = append(ids, h.UserID, h.AssignedBy)
	}
	users := lookupUsers(db, ids)
	for i := range history {
		history[i].UserName = users[history[i].UserID].Name
		history[i].AssignedByName = users[history[i].AssignedBy].Name
	}
	return history, http.StatusOK, nil
}

// recordHandOff closes the asset's open assignment and opens one for to, if set.
func recordHandOff(tx *gorm.DB, assetId uint, to *uint, by uint) error {
	now := time.Now()
	if err := tx.
		Model(&models.AssetAssignment{}).
		Where("asset_id = ? AND returned_at IS NULL", assetId).
		Update("returned_at", now).
		Error; err != nil {
		return err
	}
	if to == nil {
		return nil
	}
	return tx.Create(&models.AssetAssignment{AssetID: assetId, UserID: *to, AssignedBy: by, AssignedAt: now}).Error
}

func AssetsDelete(ctx *gin.Context) (int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return statusOf("asset", err)
	}
	userId := ctx.GetUint("id")
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.Select("id", "asset_tag").Scopes(scopes.WithID(id)).First(&asset).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Asset{}, asset.ID).Error; err != nil {
			return err
		}
		return common.RecordAudit(tx, userId, assetsEntity, asset.ID, common.AuditDelete, types.JSONB{"asset_tag": asset.AssetTag})
	})
	if err != nil {
		return statusOf("asset", err)
	}
	invalidate(ctx.Request.Context(), assetsEntity)
	return http.StatusNoContent, nil
}

func requireAssetTagFree(tx *gorm.DB, tag string, self uint) error {
	var n int64
	if err := tx.Model(&models.Asset{}).Where("asset_tag = ? AND id <> ?", tag, self).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return &HTTPError{Status: http.StatusConflict, Message: fmt.Sprintf("asset_tag %s is already in use", tag)}
	}
	return nil
}

func requireUser(tx *gorm.DB, id uint) error {
	ok, err := exists(tx, &models.User{}, id)
	if err != nil {
		return err
	}
	if !ok {
		return badRequest("user %d does not exist", id)
	}
	return nil
}

func resolveAssignees(tx *gorm.DB, assets []models.Asset) {
	refs := make([]*uint, 0, len(assets))
	for i := range assets {
		refs = append(refs, assets[i].AssignedTo)
	}
	users := lookupUsers(tx, collectIDs(refs...))
	for i := range assets {
		assets[i].AssignedToName = userOf(users, assets[i].AssignedTo).Name
	}
}

func notifyAssetAssigned(asset models.Asset) {
	common.Notify(common.Notice{
		UserID:         *asset.AssignedTo,
		Title:          fmt.Sprintf("%s assigned to you", asset.AssetTag),
		Description:    fmt.Sprintf("%s (%s) is now assigned to you", asset.Name, asset.Category),
		ReferenceType:  assetsEntity,
		ReferenceValue: fmt.Sprint(asset.ID),
		Type:           "asset.assigned",
	})
}
