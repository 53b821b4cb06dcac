package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	case nil:
		return nil
	default:
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, &a)
}

type Metadata map[string]any

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type AttachmentURIParams struct {
	ID           uint `uri:"id" binding:"required"`
	AttachmentID uint `uri:"attachmentId" binding:"required"`
}

type DocumentURIParams struct {
	ID         uint `uri:"id" binding:"required"`
	DocumentID uint `uri:"documentId" binding:"required"`
}

// ListQuery is the common query string of every list endpoint.
type ListQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search string `form:"search"`
	Scope  string `form:"scope" binding:"omitempty,oneof=mine all"`
	Status string `form:"status"`
	Sort   string `form:"sort"`
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type BugQueryFilters struct {
	ListQuery
	Severity   string `form:"severity"`
	Priority   string `form:"priority"`
	BugType    string `form:"bug_type"`
	ProjectID  uint   `form:"project_id"`
	AssignedTo uint   `form:"assigned_to"`
}

type ProjectQueryFilters struct {
	ListQuery
	ManagerID uint `form:"manager_id"`
}

type EmployeeQueryFilters struct {
	ListQuery
	Department string `form:"department"`
}

type AssetQueryFilters struct {
	ListQuery
	Category   string `form:"category"`
	AssignedTo uint   `form:"assigned_to"`
}

type InventoryQueryFilters struct {
	ListQuery
	Category string `form:"category"`
	Location string `form:"location"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPagination(page int, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// ListResponse is the envelope of every list endpoint. Summary holds per-status
// totals over the whole filtered set, not just the returned page.
type ListResponse[T any] struct {
	Data       []T              `json:"data"`
	Pagination Pagination       `json:"pagination"`
	Summary    map[string]int64 `json:"summary,omitempty"`
}

type LoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateBugRequestBody struct {
	Title            string  `json:"title" form:"title" binding:"required"`
	Description      string  `json:"description" form:"description" binding:"required"`
	Severity         string  `json:"severity" form:"severity" binding:"omitempty,oneof=Critical High Medium Low"`
	Priority         string  `json:"priority" form:"priority" binding:"omitempty,oneof=Urgent High Medium Low"`
	BugType          string  `json:"bug_type" form:"bug_type" binding:"omitempty,oneof=Functional UI Performance Security Crash Other"`
	Status           string  `json:"status" form:"status" binding:"omitempty,bugstatus"`
	ResolutionType   string  `json:"resolution_type" form:"resolution_type" binding:"omitempty,resolution"`
	StepsToReproduce string  `json:"steps_to_reproduce" form:"steps_to_reproduce"`
	ExpectedBehavior string  `json:"expected_behavior" form:"expected_behavior"`
	ActualBehavior   string  `json:"actual_behavior" form:"actual_behavior"`
	ProjectID        *uint   `json:"project_id" form:"project_id"`
	TaskID           *uint   `json:"task_id" form:"task_id"`
	AssignedTo       *uint   `json:"assigned_to" form:"assigned_to"`
	TeamLeadID       *uint   `json:"team_lead_id" form:"team_lead_id"`
	Browser          string  `json:"browser" form:"browser"`
	Device           string  `json:"device" form:"device"`
	OS               string  `json:"os" form:"os"`
	AppVersion       string  `json:"app_version" form:"app_version"`
	APIEndpoint      string  `json:"api_endpoint" form:"api_endpoint"`
	TargetFixDate    *string `json:"target_fix_date" form:"target_fix_date" binding:"omitempty,datetime=2006-01-02"`
}

// UpdateBugRequestBody carries only the fields present in the request.
type UpdateBugRequestBody struct {
	Title            *string `json:"title" binding:"omitempty,min=1"`
	Description      *string `json:"description" binding:"omitempty,min=1"`
	Severity         *string `json:"severity" binding:"omitempty,oneof=Critical High Medium Low"`
	Priority         *string `json:"priority" binding:"omitempty,oneof=Urgent High Medium Low"`
	BugType          *string `json:"bug_type" binding:"omitempty,oneof=Functional UI Performance Security Crash Other"`
	Status           *string `json:"status" binding:"omitempty,bugstatus"`
	ResolutionType   *string `json:"resolution_type" binding:"omitempty,resolution"`
	StepsToReproduce *string `json:"steps_to_reproduce"`
	ExpectedBehavior *string `json:"expected_behavior"`
	ActualBehavior   *string `json:"actual_behavior"`
	ProjectID        *uint   `json:"project_id"`
	TaskID           *uint   `json:"task_id"`
	AssignedTo       *uint   `json:"assigned_to"`
	TeamLeadID       *uint   `json:"team_lead_id"`
	Browser          *string `json:"browser"`
	Device           *string `json:"device"`
	OS               *string `json:"os"`
	AppVersion       *string `json:"app_version"`
	APIEndpoint      *string `json:"api_endpoint"`
	TargetFixDate    *string `json:"target_fix_date" binding:"omitempty,datetime=2006-01-02"`
}

type CreateDocumentRequestBody struct {
	DocumentType string `form:"document_type" binding:"required"`
}

type VerifyDocumentRequestBody struct {
	Verified *bool `json:"verified" binding:"required"`
}

type CreateCommentRequestBody struct {
	Body string `json:"body" binding:"required"`
}

type MilestoneInput struct {
	Name      string  `json:"name" binding:"required"`
	Status    string  `json:"status" binding:"omitempty,milestonestatus"`
	StartDate *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date" binding:"omitempty,datetime=2006-01-02,gtdate=StartDate"`
}

type CreateProjectRequestBody struct {
	Name        string           `json:"name" binding:"required"`
	Code        string           `json:"code"`
	Description string           `json:"description"`
	Status      string           `json:"status" binding:"omitempty,projectstatus"`
	Progress    int              `json:"progress" binding:"omitempty,min=0,max=100"`
	StartDate   *string          `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate     *string          `json:"end_date" binding:"omitempty,datetime=2006-01-02,gtdate=StartDate"`
	ManagerID   *uint            `json:"manager_id"`
	MemberIDs   []uint           `json:"member_ids"`
	MemberRoles MemberRoles      `json:"member_roles"`
	Milestones  []MilestoneInput `json:"milestones" binding:"omitempty,dive"`
}

type UpdateProjectRequestBody struct {
	Name        *string          `json:"name" binding:"omitempty,min=1"`
	Code        *string          `json:"code"`
	Description *string          `json:"description"`
	Status      *string          `json:"status" binding:"omitempty,projectstatus"`
	Progress    *int             `json:"progress" binding:"omitempty,min=0,max=100"`
	StartDate   *string          `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate     *string          `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	ManagerID   *uint            `json:"manager_id"`
	MemberIDs   []uint           `json:"member_ids"`
	MemberRoles MemberRoles      `json:"member_roles"`
	Milestones  []MilestoneInput `json:"milestones" binding:"omitempty,dive"`
}

type UpdateMembersRequestBody struct {
	MemberIDs   []uint      `json:"member_ids" binding:"required"`
	MemberRoles MemberRoles `json:"member_roles"`
}

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

type CreateEmployeeRequestBody struct {
	FirstName          string            `json:"first_name" binding:"required"`
	LastName           string            `json:"last_name"`
	Email              string            `json:"email" binding:"required,email"`
	Phone              string            `json:"phone"`
	Department         string            `json:"department"`
	Designation        string            `json:"designation"`
	Status             string            `json:"status" binding:"omitempty,employeestatus"`
	DateOfJoining      *string           `json:"date_of_joining" binding:"omitempty,datetime=2006-01-02"`
	Address            *Address          `json:"address"`
	EmergencyContact   *EmergencyContact `json:"emergency_contact"`
	CasualLeaveBalance *float32          `json:"casual_leave_balance" binding:"omitempty,min=0"`
	SickLeaveBalance   *float32          `json:"sick_leave_balance" binding:"omitempty,min=0"`
	EarnedLeaveBalance *float32          `json:"earned_leave_balance" binding:"omitempty,min=0"`
	Role               string            `json:"role" binding:"required,role"`
	Password           string            `json:"password" binding:"required,min=8"`
}

type UpdateEmployeeRequestBody struct {
	FirstName          *string           `json:"first_name" binding:"omitempty,min=1"`
	LastName           *string           `json:"last_name"`
	Email              *string           `json:"email" binding:"omitempty,email"`
	Phone              *string           `json:"phone"`
	Department         *string           `json:"department"`
	Designation        *string           `json:"designation"`
	Status             *string           `json:"status" binding:"omitempty,employeestatus"`
	DateOfJoining      *string           `json:"date_of_joining" binding:"omitempty,datetime=2006-01-02"`
	Address            *Address          `json:"address"`
	EmergencyContact   *EmergencyContact `json:"emergency_contact"`
	CasualLeaveBalance *float32          `json:"casual_leave_balance" binding:"omitempty,min=0"`
	SickLeaveBalance   *float32          `json:"sick_leave_balance" binding:"omitempty,min=0"`
	EarnedLeaveBalance *float32          `json:"earned_leave_balance" binding:"omitempty,min=0"`
	Role               *string           `json:"role" binding:"omitempty,role"`
	Password           *string           `json:"password" binding:"omitempty,min=8"`
}

type CreateAssetRequestBody struct {
	AssetTag       string   `json:"asset_tag" binding:"required"`
	Name           string   `json:"name" binding:"required"`
	Category       string   `json:"category" binding:"required"`
	SerialNumber   string   `json:"serial_number"`
	Status         string   `json:"status" binding:"omitempty,assetstatus"`
	AssignedTo     *uint    `json:"assigned_to"`
	PurchaseDate   *string  `json:"purchase_date" binding:"omitempty,datetime=2006-01-02"`
	PurchaseCost   *float64 `json:"purchase_cost" binding:"omitempty,min=0"`
	WarrantyExpiry *string  `json:"warranty_expiry" binding:"omitempty,datetime=2006-01-02"`
	Notes          string   `json:"notes"`
}

type UpdateAssetRequestBody struct {
	AssetTag       *string  `json:"asset_tag" binding:"omitempty,min=1"`
	Name           *string  `json:"name" binding:"omitempty,min=1"`
	Category       *string  `json:"category" binding:"omitempty,min=1"`
	SerialNumber   *string  `json:"serial_number"`
	Status         *string  `json:"status" binding:"omitempty,assetstatus"`
	PurchaseDate   *string  `json:"purchase_date" binding:"omitempty,datetime=2006-01-02"`
	PurchaseCost   *float64 `json:"purchase_cost" binding:"omitempty,min=0"`
	WarrantyExpiry *string  `json:"warranty_expiry" binding:"omitempty,datetime=2006-01-02"`
	Notes          *string  `json:"notes"`
}

// AssignAssetRequestBody assigns the asset to a user; a null user_id returns it to the pool.
type AssignAssetRequestBody struct {
	UserID *uint `json:"user_id"`
}

type CreateInventoryItemRequestBody struct {
	SKU          string `json:"sku" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Category     string `json:"category"`
	Quantity     int    `json:"quantity" binding:"min=0"`
	ReorderLevel int    `json:"reorder_level" binding:"min=0"`
	Unit         string `json:"unit"`
	Location     string `json:"location"`
}

type UpdateInventoryItemRequestBody struct {
	SKU          *string `json:"sku" binding:"omitempty,min=1"`
	Name         *string `json:"name" binding:"omitempty,min=1"`
	Category     *string `json:"category"`
	ReorderLevel *int    `json:"reorder_level" binding:"omitempty,min=0"`
	Unit         *string `json:"unit"`
	Location     *string `json:"location"`
}

type AdjustInventoryRequestBody struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// RejectedFile describes an upload that failed the attachment policy.
type RejectedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

type Handler func(payload string)

type LoginResponse struct {
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         any       `json:"user"`
	Capabilities []string  `json:"capabilities"`
}

type SessionResponse struct {
	User         any      `json:"user"`
	EmployeeID   *uint    `json:"employee_id"`
	Capabilities []string `json:"capabilities"`
}
