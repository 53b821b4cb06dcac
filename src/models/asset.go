package models

import (
	"opsdesk/src/types"
	"time"
)

type Asset struct {
	ID             uint       `gorm:"primarykey" json:"id"`
	AssetTag       string     `gorm:"index" json:"asset_tag"`
	Name           string     `json:"name"`
	Category       string     `gorm:"index" json:"category"`
	SerialNumber   string     `json:"serial_number,omitempty"`
	Status         string     `gorm:"index;default:'Available'" json:"status"`
	AssignedTo     *uint      `gorm:"index" json:"assigned_to"`
	PurchaseDate   *time.Time `json:"purchase_date"`
	PurchaseCost   *float64   `json:"purchase_cost"`
	WarrantyExpiry *time.Time `json:"warranty_expiry"`
	Notes          string     `gorm:"type:text" json:"notes,omitempty"`

	AssignedToName string `gorm:"-" json:"assigned_to_name,omitempty"`

	types.Timestamps
}

// AssetAssignment is one period during which an asset was held by a user.
// ReturnedAt is nil while the asset is still with them.
type AssetAssignment struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	AssetID    uint       `gorm:"index" json:"asset_id"`
	UserID     uint       `gorm:"index" json:"user_id"`
	AssignedBy uint       `json:"assigned_by"`
	AssignedAt time.Time  `json:"assigned_at"`
	ReturnedAt *time.Time `json:"returned_at"`

	UserName       string `gorm:"-" json:"user_name,omitempty"`
	AssignedByName string `gorm:"-" json:"assigned_by_name,omitempty"`
}
