package models

import "opsdesk/src/types"

type AuditLog struct {
	ID         uint        `gorm:"primarykey" json:"id"`
	EntityType string      `gorm:"index:idx_audit_entity" json:"entity_type"`
	EntityID   uint        `gorm:"index:idx_audit_entity" json:"entity_id"`
	Action     string      `json:"action"`
	ActorID    uint        `json:"actor_id"`
	Changes    types.JSONB `gorm:"type:text" json:"changes,omitempty"`

	types.Timestamps
}
