package common

import (
	"fmt"
	"log"
	"opsdesk/src/db"
	"opsdesk/src/models"
	"opsdesk/src/permissions"
	"opsdesk/src/status"
	"time"
)

// OverdueBugsJob reminds assignees of open bugs past their target fix date.
func OverdueBugsJob() int {
	db := db.GetDb()
	var bugs []models.Bug
	if err := db.
		Model(&models.Bug{}).
		Select("id", "bug_code", "title", "assigned_to", "target_fix_date").
		Where("assigned_to IS NOT NULL").
		Where("target_fix_date < ?", time.Now()).
		Where("status NOT IN ?", []string{"Fixed", "Closed", "Rejected"}).
		Find(&bugs).
		Error; err != nil {
		log.Printf("[jobs] Error querying overdue bugs: %s\n", err.Error())
		return 0
	}
	for _, b := range bugs {
		Notify(Notice{
			UserID:         *b.AssignedTo,
			Title:          fmt.Sprintf("%s is overdue", b.BugCode),
			Description:    fmt.Sprintf("%s was due on %s", b.Title, b.TargetFixDate.Format("2006-01-02")),
			ReferenceType:  "bugs",
			ReferenceValue: fmt.Sprint(b.ID),
			Type:           "bug.overdue",
		})
	}
	log.Printf("[jobs] %d overdue bugs\n", len(bugs))
	return len(bugs)
}

// LowStockJob re-derives inventory statuses and alerts IT Support about items at or below reorder level.
func LowStockJob() int {
	db := db.GetDb()
	var items []models.InventoryItem
	if err := db.Find(&items).Error; err != nil {
		log.Printf("[jobs] Error querying inventory: %s\n", err.Error())
		return 0
	}
	low := []models.InventoryItem{}
	for _, item := range items {
		derived := status.InventoryFor(item.Quantity, item.ReorderLevel)
		if derived != item.Status {
			if err := db.Model(&models.InventoryItem{}).Where("id = ?", item.ID).Update("status", derived).Error; err != nil {
				log.Printf("[jobs] Error updating item %d: %s\n", item.ID, err.Error())
			}
		}
		if derived != "In Stock" {
			low = append(low, item)
		}
	}
	if len(low) == 0 {
		return 0
	}
	var staff []models.User
	db.Select("id").Where("role IN ?", []string{string(permissions.RoleITSupport), string(permissions.RoleAdmin)}).Find(&staff)
	for _, u := range staff {
		Notify(Notice{
			UserID:        u.ID,
			Title:         fmt.Sprintf("%d inventory items need restocking", len(low)),
			Description:   lowStockSummary(low),
			ReferenceType: "inventory",
			Type:          "inventory.low_stock",
		})
	}
	return len(low)
}

func lowStockSummary(items []models.InventoryItem) string {
	s := ""
	for _, it := range items {
		s += fmt.Sprintf("%s %s: %d left (reorder at %d)\n", it.SKU, it.Name, it.Quantity, it.ReorderLevel)
	}
	return s
}
