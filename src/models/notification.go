package models

import (
	"opsdesk/src/types"
)

type Notification struct {
	ID             uint         `gorm:"primarykey" json:"id"`
	UserID         uint         `gorm:"index" json:"user_id"`
	ReferenceType  string       `json:"ref_name"`
	ReferenceValue string       `json:"ref_value"`
	Title          string       `json:"title"`
	Description    *string      `json:"description"`
	ReferenceBody  *types.JSONB `gorm:"type:text" json:"ref_body"`
	Type           string       `json:"type"`
	Read           bool         `gorm:"default:false" json:"read"`

	types.Timestamps
}
