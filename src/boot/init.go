package boot

import (
	"context"
	"fmt"
	"log"
	"opsdesk/src/common"
	"opsdesk/src/config"
	"opsdesk/src/db"
	"opsdesk/src/lib"
	"opsdesk/src/models"
	"opsdesk/src/permissions"
	"opsdesk/src/utils"
	"os"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func InitDb() *gorm.DB {
	db := db.GetDb()
	if err := Migrate(db); err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}
	if err := SeedPermissions(db); err != nil {
		log.Printf("Error seeding permissions: %s\n", err.Error())
	}
	if err := SeedAdmin(db, os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		log.Printf("Error seeding admin: %s\n", err.Error())
	}
	go common.UpdateMissingSlugs()
	return db
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.Project{},
		&models.ProjectMember{},
		&models.ProjectComment{},
		&models.Milestone{},
		&models.Bug{},
		&models.BugComment{},
		&models.Attachment{},
		&models.Employee{},
		&models.EmployeeDocument{},
		&models.Asset{},
		&models.AssetAssignment{},
		&models.InventoryItem{},
		&models.InventoryTransaction{},
		&models.Notification{},
		&models.AuditLog{},
		&models.JobRun{},
	)
}

// SeedPermissions mirrors the role table into roles, permissions and role_permissions.
func SeedPermissions(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		perms := make([]models.Permission, 0, len(permissions.Capabilities))
		for _, c := range permissions.Capabilities {
			perms = append(perms, models.Permission{Name: string(c)})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&perms).Error; err != nil {
			return err
		}
		for role, caps := range permissions.Grants() {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Role{Name: string(role)}).Error; err != nil {
				return err
			}
			if err := tx.Where("role = ?", string(role)).Delete(&models.RolePermission{}).Error; err != nil {
				return err
			}
			if len(caps) == 0 {
				continue
			}
			rows := make([]models.RolePermission, 0, len(caps))
			for _, c := range caps {
				rows = append(rows, models.RolePermission{Role: string(role), Permission: string(c)})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedAdmin creates the first Admin account when the users table is empty.
func SeedAdmin(db *gorm.DB, email string, password string) error {
	if email == "" || password == "" {
		return nil
	}
	var n int64
	if err := db.Model(&models.User{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	admin := models.User{Name: "Administrator", Email: email, PasswordHash: hash, Role: string(permissions.RoleAdmin)}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("Seeded admin user %d\n", admin.ID)
	return nil
}

func InitBroker(ctx context.Context) {
	common.SQSConsumers(ctx)
	if config.KAFKA_BROKER != "" {
		go lib.KafkaCreateTopics(config.AUDIT_TOPIC)
	}
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	if _, err := lib.CreateDailyJob("overdue-bugs", 8, 0, RecordedJob("overdue-bugs", common.OverdueBugsJob)); err != nil {
		log.Printf("Error registering overdue-bugs job: %s\n", err.Error())
	}
	if _, err := lib.CreateCronJob("low-stock", time.Hour, RecordedJob("low-stock", common.LowStockJob)); err != nil {
		log.Printf("Error registering low-stock job: %s\n", err.Error())
	}
	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
		return
	}
}

// RecordedJob wraps job so each run is stored in job_runs.
func RecordedJob(name string, job func() int) func() {
	return func() {
		db := db.GetDb()
		run := models.JobRun{Name: name, Status: "running", StartedAt: time.Now()}
		if err := db.Create(&run).Error; err != nil {
			log.Printf("[jobs] Error recording %s: %s\n", name, err.Error())
		}
		status := "completed"
		var failure string
		affected := func() (n int) {
			defer func() {
				if r := recover(); r != nil {
					status = "failed"
					failure = fmt.Sprint(r)
				}
			}()
			return job()
		}()
		now := time.Now()
		if run.ID == 0 {
			return
		}
		if err := db.Model(&models.JobRun{}).Where("id = ?", run.ID).Updates(map[string]any{
			"status":      status,
			"affected":    affected,
			"error":       failure,
			"finished_at": now,
		}).Error; err != nil {
			log.Printf("[jobs] Error finishing %s: %s\n", name, err.Error())
		}
	}
}
