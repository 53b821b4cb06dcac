// Package permissions maps user roles to the capabilities they unlock.
//
// Roles and capabilities are closed sets. A role string that does not parse
// resolves to an empty capability set, so every gated action stays hidden.
package permissions

import (
	"sort"
)

type Role string

const (
	RoleAdmin          Role = "Admin"
	RoleHR             Role = "HR"
	RoleProjectManager Role = "Project Manager"
	RoleTeamLead       Role = "Team Lead"
	RoleDeveloper      Role = "Developer"
	RoleTester         Role = "Tester"
	RoleITSupport      Role = "IT Support"
	RoleEmployee       Role = "Employee"
)

// Roles lists every known role in display order.
var Roles = []Role{
	RoleAdmin,
	RoleHR,
	RoleProjectManager,
	RoleTeamLead,
	RoleDeveloper,
	RoleTester,
	RoleITSupport,
	RoleEmployee,
}

type Capability string

const (
	BugsView    Capability = "bugs.view"
	BugsCreate  Capability = "bugs.create"
	BugsEdit    Capability = "bugs.edit"
	BugsDelete  Capability = "bugs.delete"
	BugsAssign  Capability = "bugs.assign"
	BugsComment Capability = "bugs.comment"

	ProjectsView    Capability = "projects.view"
	ProjectsCreate  Capability = "projects.create"
	ProjectsEdit    Capability = "projects.edit"
	ProjectsDelete  Capability = "projects.delete"
	ProjectsMembers Capability = "projects.members"

	EmployeesView            Capability = "employees.view"
	EmployeesCreate          Capability = "employees.create"
	EmployeesEdit            Capability = "employees.edit"
	EmployeesDelete          Capability = "employees.delete"
	EmployeesVerifyDocuments Capability = "employees.verify_documents"

	AssetsView   Capability = "assets.view"
	AssetsCreate Capability = "assets.create"
	AssetsEdit   Capability = "assets.edit"
	AssetsDelete Capability = "assets.delete"
	AssetsAssign Capability = "assets.assign"

	InventoryView   Capability = "inventory.view"
	InventoryCreate Capability = "inventory.create"
	InventoryEdit   Capability = "inventory.edit"
	InventoryDelete Capability = "inventory.delete"
	InventoryAdjust Capability = "inventory.adjust"
)

var (
	bugCaps       = []Capability{BugsView, BugsCreate, BugsEdit, BugsDelete, BugsAssign, BugsComment}
	projectCaps   = []Capability{ProjectsView, ProjectsCreate, ProjectsEdit, ProjectsDelete, ProjectsMembers}
	employeeCaps  = []Capability{EmployeesView, EmployeesCreate, EmployeesEdit, EmployeesDelete, EmployeesVerifyDocuments}
	assetCaps     = []Capability{AssetsView, AssetsCreate, AssetsEdit, AssetsDelete, AssetsAssign}
	inventoryCaps = []Capability{InventoryView, InventoryCreate, InventoryEdit, InventoryDelete, InventoryAdjust}
)

// Capabilities lists every known capability.
var Capabilities = concat(bugCaps, projectCaps, employeeCaps, assetCaps, inventoryCaps)

var table = map[Role]Set{
	RoleAdmin: newSet(Capabilities...),
	RoleHR: newSet(concat(employeeCaps, []Capability{
		ProjectsView, BugsView, AssetsView, InventoryView,
	})...),
	RoleProjectManager: newSet(concat(projectCaps, []Capability{
		BugsView, BugsCreate, BugsEdit, BugsDelete, BugsAssign, BugsComment,
		EmployeesView,
	})...),
	RoleTeamLead: newSet(
		ProjectsView, ProjectsEdit, ProjectsMembers,
		BugsView, BugsCreate, BugsEdit, BugsDelete, BugsAssign, BugsComment,
		EmployeesView,
	),
	RoleDeveloper: newSet(BugsView, BugsEdit, BugsComment, ProjectsView),
	RoleTester:    newSet(BugsView, BugsCreate, BugsEdit, BugsComment, ProjectsView),
	RoleITSupport: newSet(concat(assetCaps, inventoryCaps, []Capability{EmployeesView})...),
	RoleEmployee:  newSet(BugsView, ProjectsView, AssetsView),
}

// Set is an immutable capability set.
type Set map[Capability]struct{}

func newSet(caps ...Capability) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

func (s Set) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// List returns the capabilities sorted by name.
func (s Set) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func ParseRole(role string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == role {
			return r, true
		}
	}
	return "", false
}

func ParseCapability(name string) (Capability, bool) {
	for _, c := range Capabilities {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// Resolve returns the capability set for a role string. Unknown roles get an empty set.
func Resolve(role string) Set {
	r, ok := ParseRole(role)
	if !ok {
		return Set{}
	}
	return table[r]
}

func Allowed(role string, c Capability) bool {
	return Resolve(role).Has(c)
}

// Grants returns the (role, capability) pairs of the table, used to seed the database.
func Grants() map[Role][]Capability {
	out := make(map[Role][]Capability, len(table))
	for _, r := range Roles {
		out[r] = table[r].List()
	}
	return out
}

func concat(groups ...[]Capability) []Capability {
	var out []Capability
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
