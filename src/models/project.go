package models

import (
	"opsdesk/src/types"
	"time"
)

type Project struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	Name        string     `json:"name"`
	Slug        string     `gorm:"index" json:"slug"`
	Code        string     `json:"code,omitempty"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Status      string     `gorm:"index;default:'Planning'" json:"status"`
	Progress    int        `gorm:"default:0" json:"progress"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	ManagerID   *uint      `json:"manager_id"`

	Milestones []Milestone     `gorm:"foreignKey:ProjectID" json:"milestones"`
	Members    []ProjectMember `gorm:"foreignKey:ProjectID" json:"-"`

	MemberIDs   []uint            `gorm:"-" json:"member_ids"`
	MemberRoles types.MemberRoles `gorm:"-" json:"member_roles"`
	ManagerName string            `gorm:"-" json:"manager_name,omitempty"`

	types.Timestamps
}

// FillMembers copies the loaded member rows into MemberIDs and MemberRoles.
func (p *Project) FillMembers() {
	p.MemberIDs = make([]uint, 0, len(p.Members))
	p.MemberRoles = types.MemberRoles{}
	for _, m := range p.Members {
		p.MemberIDs = append(p.MemberIDs, m.UserID)
		if m.Role != "" {
			p.MemberRoles[m.UserID] = m.Role
		}
	}
}

type Milestone struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	ProjectID uint       `gorm:"index" json:"project_id"`
	Name      string     `json:"name"`
	Status    string     `gorm:"default:'Pending'" json:"status"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	types.Timestamps
}

type ProjectMember struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	ProjectID uint   `gorm:"uniqueIndex:uk_project_user" json:"project_id"`
	UserID    uint   `gorm:"uniqueIndex:uk_project_user" json:"user_id"`
	Role      string `json:"role"`
}

func (ProjectMember) TableName() string { return "project_users" }

type ProjectComment struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	ProjectID uint   `gorm:"index" json:"project_id"`
	AuthorID  uint   `json:"author_id"`
	Body      string `gorm:"type:text" json:"body"`

	AuthorName string `gorm:"-" json:"author_name,omitempty"`

	types.Timestamps
}
