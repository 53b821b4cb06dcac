package models

import (
	"opsdesk/src/types"
	"time"
)

type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	Name         string     `json:"name,omitempty"`
	Email        string     `gorm:"uniqueIndex" json:"email,omitempty"`
	PasswordHash string     `json:"-"`
	Role         string     `gorm:"index" json:"role,omitempty"`
	LastActive   *time.Time `json:"last_active,omitempty"`

	types.Timestamps
}
