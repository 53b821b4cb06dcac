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
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const inventoryEntity = "inventory"

func InventoryList(ctx *gin.Context) (*types.ListResponse[models.InventoryItem], int, error) {
	var q types.InventoryQueryFilters
	if err := bindQuery(ctx, &q, &q.ListQuery); err != nil {
		return failWith[types.ListResponse[models.InventoryItem]]("inventory item", err)
	}
	cache := lib.GetCache()
	key := cacheKey(ctx)
	var cached types.ListResponse[models.InventoryItem]
	if cache.Get(ctx.Request.Context(), inventoryEntity, key, &cached) {
		return &cached, http.StatusOK, nil
	}
	db := db.GetDb()
	base := func() *gorm.DB {
		tx := db.Model(&models.InventoryItem{}).
			Scopes(scopes.Search(q.Search, "sku", "name"))
		if q.Status != "" {
			tx = tx.Scopes(scopes.WithStatus(status.Inventory.Normalize(q.Status)))
		}
		if q.Category != "" {
			tx = tx.Where("category = ?", q.Category)
		}
		if q.Location != "" {
			tx = tx.Where("location = ?", q.Location)
		}
		return tx
	}
	res, err := listPage[models.InventoryItem](base, q.ListQuery, true)
	if err != nil {
		return failWith[types.ListResponse[models.InventoryItem]]("inventory item", err)
	}
	cache.Set(ctx.Request.Context(), inventoryEntity, key, res)
	return res, http.StatusOK, nil
}

func InventoryGet(ctx *gin.Context) (*models.InventoryItem, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return failWith[models.InventoryItem]("inventory item", err)
	}
	cache := lib.GetCache()
	key := fmt.Sprintf("detail:%d", id)
	var item models.InventoryItem
	if cache.Get(ctx.Request.Context(), inventoryEntity, key, &item) {
		return &item, http.StatusOK, nil
	}
	if err := db.GetDb().Scopes(scopes.WithID(id)).First(&item).Error; err != nil {
		return failWith[models.InventoryItem]("inventory item", err)
	}
	cache.Set(ctx.Request.Context(), inventoryEntity, key, &item)
	return &item, http.StatusOK, nil
}

// InventoryCreate stores a new item. Its status is derived from the stock level.
func InventoryCreate(ctx *gin.Context) (*models.InventoryItem, int, error) {
	var body types.CreateInventoryItemRequestBody
	if err := bindJSON(ctx, &body); err != nil {
		return failWith[models.InventoryItem]("inventory item", err)
	}
	userId := ctx.GetUint("id")
	item := models.InventoryItem{
		SKU:          strings.ToUpper(strings.TrimSpace(body.SKU)),
		Name:         strings.TrimSpace(body.Name),
		Category:     body.Category,
		Quantity:     body.Quantity,
		ReorderLevel: body.ReorderLevel,
		Unit:         body.Unit,
		Location:     body.Location,
		Status:       status.InventoryFor(body.Quantity, body.ReorderLevel),
	}
	if item.SKU == "" || item.Name == "" {
		return failWith[models.InventoryItem]("inventory item", badRequest("sku and name must not be blank"))
	}
	err := db.GetDb().Transaction(func(tx *gorm.DB) error {
		if err := requireSKUFree(tx, item.SKU, 0); err != nil {
			return err
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		if item.Quantity > 0 {
			opening := models.InventoryTransaction{
				ItemID:        item.ID,
				Delta:         item.Quantity,
				QuantityAfter: item.Quantity,
				Reason:        "opening stock",
				PerformedBy:   userId,
			}
			if err := tx.Create(&opening).Error; err != nil {
				return err
			}
		}
		return common.RecordAudit(tx, userId, inventoryEntity, item.ID, common.AuditCreate, types.JSONB{"sku": item.SKU, "quantity": item.Quantity})
	})
	if err != nil {
		return failWith[models.InventoryItem]("inventory item", err)
	}
	invalidate(ctx.Request.Context(), inventoryEntity)
	return &item, http.StatusCreated, nil
}

// InventoryUpdate edits descriptive fields. Quantity only changes through adjustments.
func InventoryUpdate(ctx *gin.Context) (*models.InventoryItem, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return failWith[models.InventoryItem]("inventory item", err)
	}
	var body types.UpdateInventoryItemRequestBody
	if err := bindJSON(ctx, &body); err != nil {
		return failWith[models.InventoryItem]("inventory item", err)
	}
	userId := ctx.GetUint("id")
	var item models.InventoryItem
	err = db.GetDb().Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(scopes.WithID(id)).First(&item).Error; err != nil {
			return err
		}
		changes := types.JSONB{}
		if body.SKU != nil {
			sku := strings.ToUpper(strings.TrimSpace(*body.SKU))
			if sku == "" {
				return badRequest("sku must not be blank")
			}
			if sku != item.SKU {
				if err := requireSKUFree(tx, sku, item.ID); err != nil {
					return err
				}
			}
			track(changes, "sku", &item.SKU, &sku)
		}
		track(changes, "name", &item.Name, body.Name)
		track(changes, "category", &item.Category, body.Category)
		track(changes, "unit", &item.Unit, body.Unit)
		track(changes, "location", &item.Location, body.Location)
		track(changes, "reorder_level", &item.ReorderLevel, body.ReorderLevel)
		derived := status.InventoryFor(item.Quantity, item.ReorderLevel)
		track(changes, "status", &item.Status, &derived)
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Save(&item).Error; err != nil {
			return err
		}
		return common.RecordAudit(tx, userId, inventoryEntity, item.ID, common.AuditUpdate, changes)
	})
	if err != nil {
		return failWith[models.InventoryItem]("inventory item", err)
	}
	invalidate(ctx.Request.Context(), inventoryEntity)
	return &item, http.StatusOK, nil
}

// InventoryAdjust applies a signed stock movement and records it in the ledger.
func InventoryAdjust(ctx *gin.Context) (*models.InventoryItem, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return failWith[models.InventoryItem]("inventory item", err)
	}
	var body types.AdjustInventoryRequestBody
	if err := bindJSON(ctx, &body); err != nil {
		return failWith[models.InventoryItem]("inventory item", err)
	}
	reason := strings.TrimSpace(body.Reason)
	if reason == "" {
		return failWith[models.InventoryItem]("inventory item", badRequest("reason must not be blank"))
	}
	userId := ctx.GetUint("id")
	var item models.InventoryItem
	err = db.GetDb().Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Scopes(scopes.WithID(id)).First(&item).Error; err != nil {
			return err
		}
		next := item.Quantity + body.Delta
		if next < 0 {
			return badRequest("adjustment would leave %d %s in stock", next, orDefault(item.Unit, "units"))
		}
		prev := item.Status
		item.Quantity = next
		item.Status = status.InventoryFor(item.Quantity, item.ReorderLevel)
		if err := tx.Model(&models.InventoryItem{}).Where("id = ?", item.ID).Updates(map[string]any{
			"quantity": item.Quantity,
			"status":   item.Status,
		}).Error; err != nil {
			return err
		}
		movement := models.InventoryTransaction{
			ItemID:        item.ID,
			Delta:         body.Delta,
			QuantityAfter: item.Quantity,
			Reason:        reason,
			PerformedBy:   userId,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return err
		}
		changes := types.JSONB{"delta": body.Delta, "quantity": item.Quantity, "reason": reason}
		if prev != item.Status {
			changes["status"] = types.JSONB{"from": prev, "to": item.Status}
		}
		return common.RecordAudit(tx, userId, inventoryEntity, item.ID, common.AuditUpdate, changes)
	})
	if err != nil {
		return failWith[models.InventoryItem]("inventory item", err)
	}
	invalidate(ctx.Request.Context(), inventoryEntity)
	return &item, http.StatusOK, nil
}

func InventoryTransactionsList(ctx *gin.Context) ([]models.InventoryTransaction, int, error) {
	id, err := bindID(ctx)
	if err != nil {
		status, err := statusOf("inventory item", err)
		return nil, status, err
	}
	db := db.GetDb()
	if err := requireOwner(db, &models.InventoryItem{}, id); err != nil {
		status, err := statusOf("inventory item", err)
		return nil, status, err
	}
	movements := []models.InventoryTransaction{}
	if err := db.Where("item_id = ?", id).Order("id DESC").Find(&movements).Error; err != nil {
		status, err := statusOf("inventory item", err)
		return nil, status, err
	}
	return movements, http.StatusOK, nil
}

func InventoryDelete(ctx *gin.Context) (int, error) {
	id, err := bindID(ctx)
	if err != nil {
		return statusOf("inventory item", err)
	}
	userId := ctx.GetUint("id")
	err = db.GetDb().Transaction(func(tx *gorm.DB) error {
		var item models.InventoryItem
		if err := tx.Select("id", "sku").Scopes(scopes.WithID(id)).First(&item).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.InventoryItem{}, item.ID).Error; err != nil {
			return err
		}
		return common.RecordAudit(tx, userId, inventoryEntity, item.ID, common.AuditDelete, types.JSONB{"sku": item.SKU})
	})
	if err != nil {
		return statusOf("inventory item", err)
	}
	invalidate(ctx.Request.Context(), inventoryEntity)
	return http.StatusNoContent, nil
}

func requireSKUFree(tx *gorm.DB, sku string, self uint) error {
	var n int64
	if err := tx.Model(&models.InventoryItem{}).Where("sku = ? AND id <> ?", sku, self).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return &HTTPError{Status: http.StatusConflict, Message: fmt.Sprintf("sku %s is already in use", sku)}
	}
	return nil
}
