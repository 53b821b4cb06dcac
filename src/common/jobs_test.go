package common

import (
	"opsdesk/src/config"
	"opsdesk/src/db"
	"opsdesk/src/models"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	config.MAIL_DRIVER = "log"
	config.EMAIL_QUEUE = ""
	d, err := gorm.Open(sqlite.Open(path.Join(t.TempDir(), "jobs.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, d.AutoMigrate(&models.User{}, &models.Bug{}, &models.InventoryItem{}, &models.Notification{}, &models.AuditLog{}, &models.Project{}))
	db.NewDB(d)
	return d
}

func TestOverdueBugsJob(t *testing.T) {
	d := setupDB(t)
	dev := models.User{Name: "Dev", Email: "dev@example.com", Role: "Developer"}
	require.NoError(t, d.Create(&dev).Error)
	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(48 * time.Hour)
	bugs := []models.Bug{
		{Title: "late", Description: "x", Status: "Open", AssignedTo: &dev.ID, TargetFixDate: &past},
		{Title: "late but fixed", Description: "x", Status: "Fixed", AssignedTo: &dev.ID, TargetFixDate: &past},
		{Title: "on time", Description: "x", Status: "Open", AssignedTo: &dev.ID, TargetFixDate: &future},
		{Title: "unassigned", Description: "x", Status: "Open", TargetFixDate: &past},
	}
	require.NoError(t, d.Create(&bugs).Error)

	assert.Equal(t, 1, OverdueBugsJob())

	var notes []models.Notification
	require.NoError(t, d.Where("user_id = ?", dev.ID).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, "bug.overdue", notes[0].Type)
}

func TestLowStockJob(t *testing.T) {
	d := setupDB(t)
	it := models.User{Name: "IT", Email: "it@example.com", Role: "IT Support"}
	dev := models.User{Name: "Dev", Email: "dev2@example.com", Role: "Developer"}
	require.NoError(t, d.Create(&it).Error)
	require.NoError(t, d.Create(&dev).Error)
	items := []models.InventoryItem{
		{SKU: "A", Name: "mouse", Quantity: 10, ReorderLevel: 2, Status: "In Stock"},
		{SKU: "B", Name: "keyboard", Quantity: 2, ReorderLevel: 2, Status: "In Stock"},
		{SKU: "C", Name: "toner", Quantity: 0, ReorderLevel: 1, Status: "Low Stock"},
	}
	require.NoError(t, d.Create(&items).Error)

	assert.Equal(t, 2, LowStockJob())

	var statuses []string
	d.Model(&models.InventoryItem{}).Order("sku").Pluck("status", &statuses)
	assert.Equal(t, []string{"In Stock", "Low Stock", "Out of Stock"}, statuses)

	var n int64
	d.Model(&models.Notification{}).Where("user_id = ?", it.ID).Count(&n)
	assert.Equal(t, int64(1), n)
	d.Model(&models.Notification{}).Where("user_id = ?", dev.ID).Count(&n)
	assert.Equal(t, int64(0), n)
}

func TestRecordAudit(t *testing.T) {
	d := setupDB(t)
	config.KAFKA_BROKER = ""
	require.NoError(t, RecordAudit(d, 7, "bugs", 3, AuditUpdate, map[string]any{"status": "Fixed"}))

	var entry models.AuditLog
	require.NoError(t, d.First(&entry).Error)
	assert.Equal(t, "bugs", entry.EntityType)
	assert.Equal(t, uint(3), entry.EntityID)
	assert.Equal(t, "Fixed", entry.Changes["status"])
}

func TestProjectSlug(t *testing.T) {
	assert.Equal(t, "billing-revamp-12", ProjectSlug("Billing Revamp!", 12))
}
