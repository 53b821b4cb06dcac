package models

import "opsdesk/src/types"

// Attachment is a stored file owned by another record (bugs, inventory items).
type Attachment struct {
	ID               uint   `gorm:"primarykey" json:"id"`
	EntityType       string `gorm:"index:idx_attachment_owner" json:"entity_type"`
	EntityID         uint   `gorm:"index:idx_attachment_owner" json:"entity_id"`
	OriginalFilename string `json:"original_filename"`
	MimeType         string `json:"mime_type"`
	Size             int64  `json:"size"`
	StoragePath      string `json:"storage_path"`
	UploadedBy       uint   `json:"uploaded_by"`

	types.Timestamps
}
