package models

import (
	"time"
)

// JobRun records one execution of a scheduled job.
type JobRun struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	Name       string     `gorm:"index" json:"name"`
	Status     string     `gorm:"default:'running'" json:"status"`
	Affected   int        `json:"affected"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}
