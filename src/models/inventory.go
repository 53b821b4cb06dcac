package models

import "opsdesk/src/types"

type InventoryItem struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	SKU          string `gorm:"index" json:"sku"`
	Name         string `json:"name"`
	Category     string `gorm:"index" json:"category,omitempty"`
	Quantity     int    `json:"quantity"`
	ReorderLevel int    `json:"reorder_level"`
	Unit         string `json:"unit,omitempty"`
	Location     string `json:"location,omitempty"`
	Status       string `gorm:"index;default:'In Stock'" json:"status"`

	types.Timestamps
}

type InventoryTransaction struct {
	ID            uint   `gorm:"primarykey" json:"id"`
	ItemID        uint   `gorm:"index" json:"item_id"`
	Delta         int    `json:"delta"`
	QuantityAfter int    `json:"quantity_after"`
	Reason        string `json:"reason"`
	PerformedBy   uint   `json:"performed_by"`

	types.Timestamps
}
