package common

import (
	"log"
	"opsdesk/src/config"
	"opsdesk/src/lib"
	"opsdesk/src/models"
	"opsdesk/src/types"

	"gorm.io/gorm"
)

const (
	AuditCreate = "create"
	AuditUpdate = "update"
	AuditDelete = "delete"
)

// RecordAudit writes the audit row inside tx and, once tx commits, streams it to Kafka.
func RecordAudit(tx *gorm.DB, actorID uint, entityType string, entityID uint, action string, changes types.JSONB) error {
	entry := models.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actorID,
		Changes:    changes,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}
	if config.KAFKA_BROKER != "" {
		go publishAudit(entry)
	}
	return nil
}

func publishAudit(entry models.AuditLog) {
	payload := types.JSONB{
		"entity_type": entry.EntityType,
		"entity_id":   entry.EntityID,
		"action":      entry.Action,
		"actor_id":    entry.ActorID,
		"changes":     entry.Changes,
		"at":          entry.CreatedAt,
	}
	if err := lib.KafkaProduceMessage("opsdesk-api", config.AUDIT_TOPIC, payload); err != nil {
		log.Printf("[audit] Error streaming %s %s/%d: %s\n", entry.Action, entry.EntityType, entry.EntityID, err.Error())
	}
}
