package common

import (
	"fmt"
	"log"
	"opsdesk/src/db"
	"opsdesk/src/models"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func ProjectSlug(name string, id uint) string {
	return fmt.Sprintf("%s-%d", slug.Make(name), id)
}

// UpdateMissingSlugs backfills slugs for projects created before slugs existed.
func UpdateMissingSlugs() {
	db := db.GetDb()
	var projects []models.Project
	if err := db.
		Model(&models.Project{}).
		Select("id", "name").
		Where("slug IS NULL OR slug = ''").
		Find(&projects).
		Error; err != nil {
		log.Printf("Error querying Projects: %s\n", err.Error())
		return
	}
	if err := db.Transaction(func(tx *gorm.DB) error {
		for _, p := range projects {
			if err := tx.
				Model(&models.Project{}).
				Where("id = ?", p.ID).
				Update("slug", ProjectSlug(p.Name, p.ID)).
				Error; err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		log.Printf("Error on update operation: %s\n", err.Error())
	}
}
