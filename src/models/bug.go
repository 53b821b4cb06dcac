package models

import (
	"fmt"
	"opsdesk/src/types"
	"time"
)

type Bug struct {
	ID               uint       `gorm:"primarykey" json:"id"`
	BugCode          string     `gorm:"index" json:"bug_code"`
	Title            string     `json:"title"`
	Description      string     `gorm:"type:text" json:"description"`
	StepsToReproduce string     `gorm:"type:text" json:"steps_to_reproduce,omitempty"`
	ExpectedBehavior string     `gorm:"type:text" json:"expected_behavior,omitempty"`
	ActualBehavior   string     `gorm:"type:text" json:"actual_behavior,omitempty"`
	Severity         string     `gorm:"default:'Medium'" json:"severity"`
	Priority         string     `gorm:"default:'Medium'" json:"priority"`
	BugType          string     `gorm:"default:'Functional'" json:"bug_type"`
	Status           string     `gorm:"index;default:'Open'" json:"status"`
	ResolutionType   *string    `json:"resolution_type"`
	ProjectID        *uint      `gorm:"index" json:"project_id"`
	TaskID           *uint      `json:"task_id"`
	AssignedTo       *uint      `gorm:"index" json:"assigned_to"`
	ReportedBy       uint       `gorm:"index" json:"reported_by"`
	TeamLeadID       *uint      `json:"team_lead_id"`
	Browser          string     `json:"browser,omitempty"`
	Device           string     `json:"device,omitempty"`
	OS               string     `json:"os,omitempty"`
	AppVersion       string     `json:"app_version,omitempty"`
	APIEndpoint      string     `json:"api_endpoint,omitempty"`
	TargetFixDate    *time.Time `json:"target_fix_date"`
	ActualFixDate    *time.Time `json:"actual_fix_date"`
	ReopenedCount    int        `gorm:"default:0" json:"reopened_count"`

	Attachments []Attachment `gorm:"polymorphic:Entity;polymorphicValue:bugs" json:"attachments,omitempty"`

	ProjectName     string `gorm:"-" json:"project_name,omitempty"`
	AssignedToName  string `gorm:"-" json:"assigned_to_name,omitempty"`
	AssignedToEmail string `gorm:"-" json:"assigned_to_email,omitempty"`
	ReportedByName  string `gorm:"-" json:"reported_by_name,omitempty"`
	ReportedByEmail string `gorm:"-" json:"reported_by_email,omitempty"`
	TeamLeadName    string `gorm:"-" json:"team_lead_name,omitempty"`

	types.Timestamps
}

func BugCodeFor(id uint) string {
	return fmt.Sprintf("BUG-%06d", id)
}

type BugComment struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	BugID    uint   `gorm:"index" json:"bug_id"`
	AuthorID uint   `json:"author_id"`
	Body     string `gorm:"type:text" json:"body"`

	AuthorName string `gorm:"-" json:"author_name,omitempty"`

	types.Timestamps
}

var Resolutions = []string{"Fixed", "Duplicate", "Won't Fix", "Cannot Reproduce", "Works As Designed"}

func ValidResolution(s string) bool {
	for _, r := range Resolutions {
		if r == s {
			return true
		}
	}
	return false
}

// ResolutionAllowed reports whether a bug in status may carry a resolution type.
func ResolutionAllowed(status string) bool {
	return status == "Fixed" || status == "Closed" || status == "Rejected"
}

// Transition moves the bug to next, applying the reopen counter and fix date rules.
// next must already be normalized.
func (b *Bug) Transition(next string, now time.Time) {
	prev := b.Status
	if prev == next {
		return
	}
	if next == "Reopened" && (prev == "Fixed" || prev == "Closed") {
		b.ReopenedCount++
		b.ActualFixDate = nil
		b.ResolutionType = nil
	}
	if next == "Fixed" && b.ActualFixDate == nil {
		t := now
		b.ActualFixDate = &t
	}
	b.Status = next
}
