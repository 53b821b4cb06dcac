package models

import (
	"opsdesk/src/types"
	"time"
)

type Employee struct {
	ID                 uint                    `gorm:"primarykey" json:"id"`
	EmployeeCode       string                  `gorm:"index" json:"employee_code"`
	FirstName          string                  `json:"first_name"`
	LastName           string                  `json:"last_name"`
	Email              string                  `gorm:"index" json:"email"`
	Phone              string                  `json:"phone,omitempty"`
	Department         string                  `gorm:"index" json:"department,omitempty"`
	Designation        string                  `json:"designation,omitempty"`
	Status             string                  `gorm:"default:'Active'" json:"status"`
	DateOfJoining      *time.Time              `json:"date_of_joining"`
	Address            *types.Address          `gorm:"type:text;serializer:json" json:"address"`
	EmergencyContact   *types.EmergencyContact `gorm:"type:text;serializer:json" json:"emergency_contact"`
	CasualLeaveBalance float32                 `json:"casual_leave_balance"`
	SickLeaveBalance   float32                 `json:"sick_leave_balance"`
	EarnedLeaveBalance float32                 `json:"earned_leave_balance"`
	UserID             *uint                   `json:"user_id"`

	User      *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Documents []EmployeeDocument `gorm:"foreignKey:EmployeeID" json:"documents,omitempty"`

	types.Timestamps
}

func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

type EmployeeDocument struct {
	ID               uint       `gorm:"primarykey" json:"id"`
	EmployeeID       uint       `gorm:"index" json:"employee_id"`
	DocumentType     string     `json:"document_type"`
	OriginalFilename string     `json:"original_filename"`
	MimeType         string     `json:"mime_type"`
	Size             int64      `json:"size"`
	StoragePath      string     `json:"storage_path"`
	UploadedBy       uint       `json:"uploaded_by"`
	Verified         bool       `gorm:"default:false" json:"verified"`
	VerifiedBy       *uint      `json:"verified_by"`
	VerifiedAt       *time.Time `json:"verified_at"`

	types.Timestamps
}
