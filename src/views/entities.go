package views

import (
	"opsdesk/src/models"
	"opsdesk/src/permissions"
	"opsdesk/src/status"
)

// Entity describes how the views treat one entity type.
type Entity[T any] struct {
	Name   string
	Title  string
	View   permissions.Capability
	Create permissions.Capability
	Edit   permissions.Capability
	Delete permissions.Capability
	Status *status.Domain

	// Required must be non-blank before any create or update is sent.
	Required []string
	// CreateRequired is only checked when creating.
	CreateRequired []string
	Refs           []string
	Numbers        []string
	Lists          []string
	Dates          []string

	ID       func(T) uint
	StatusOf func(T) string
}

var Bugs = Entity[models.Bug]{
	Name:     "bugs",
	Title:    "Bug",
	View:     permissions.BugsView,
	Create:   permissions.BugsCreate,
	Edit:     permissions.BugsEdit,
	Delete:   permissions.BugsDelete,
	Status:   status.Bug,
	Required: []string{"title", "description"},
	Refs:     []string{"project_id", "task_id", "assigned_to", "team_lead_id"},
	Dates:    []string{"target_fix_date"},
	ID:       func(b models.Bug) uint { return b.ID },
	StatusOf: func(b models.Bug) string { return b.Status },
}

var Projects = Entity[models.Project]{
	Name:     "projects",
	Title:    "Project",
	View:     permissions.ProjectsView,
	Create:   permissions.ProjectsCreate,
	Edit:     permissions.ProjectsEdit,
	Delete:   permissions.ProjectsDelete,
	Status:   status.Project,
	Required: []string{"name"},
	Refs:     []string{"manager_id"},
	Numbers:  []string{"progress"},
	Lists:    []string{"member_ids"},
	Dates:    []string{"start_date", "end_date"},
	ID:       func(p models.Project) uint { return p.ID },
	StatusOf: func(p models.Project) string { return p.Status },
}

var Employees = Entity[models.Employee]{
	Name:           "employees",
	Title:          "Employee",
	View:           permissions.EmployeesView,
	Create:         permissions.EmployeesCreate,
	Edit:           permissions.EmployeesEdit,
	Delete:         permissions.EmployeesDelete,
	Status:         status.Employee,
	Required:       []string{"first_name", "email"},
	CreateRequired: []string{"role", "password"},
	Numbers:        []string{"casual_leave_balance", "sick_leave_balance", "earned_leave_balance"},
	Dates:          []string{"date_of_joining"},
	ID:             func(e models.Employee) uint { return e.ID },
	StatusOf:       func(e models.Employee) string { return e.Status },
}

var Assets = Entity[models.Asset]{
	Name:     "assets",
	Title:    "Asset",
	View:     permissions.AssetsView,
	Create:   permissions.AssetsCreate,
	Edit:     permissions.AssetsEdit,
	Delete:   permissions.AssetsDelete,
	Status:   status.Asset,
	Required: []string{"asset_tag", "name", "category"},
	Refs:     []string{"assigned_to"},
	Numbers:  []string{"purchase_cost"},
	Dates:    []string{"purchase_date", "warranty_expiry"},
	ID:       func(a models.Asset) uint { return a.ID },
	StatusOf: func(a models.Asset) string { return a.Status },
}

// Inventory status is derived by the server and never sent.
var Inventory = Entity[models.InventoryItem]{
	Name:     "inventory",
	Title:    "Inventory item",
	View:     permissions.InventoryView,
	Create:   permissions.InventoryCreate,
	Edit:     permissions.InventoryEdit,
	Delete:   permissions.InventoryDelete,
	Required: []string{"sku", "name"},
	Numbers:  []string{"quantity", "reorder_level"},
	ID:       func(i models.InventoryItem) uint { return i.ID },
	StatusOf: func(i models.InventoryItem) string { return i.Status },
}

func (e Entity[T]) normalizeStatus(s string) string {
	if e.Status == nil {
		return s
	}
	return e.Status.Normalize(s)
}

func (e Entity[T]) kindOf(field string) string {
	switch {
	case contains(e.Refs, field):
		return "ref"
	case contains(e.Numbers, field):
		return "number"
	case contains(e.Lists, field):
		return "list"
	case contains(e.Dates, field):
		return "date"
	}
	return "text"
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
