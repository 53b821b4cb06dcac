package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEveryRoleHasAnEntry(t *testing.T) {
	for _, r := range Roles {
		_, ok := table[r]
		assert.Truef(t, ok, "role %q missing from table", r)
	}
}

func TestAdminHasEverything(t *testing.T) {
	set := Resolve("Admin")
	for _, c := range Capabilities {
		assert.Truef(t, set.Has(c), "admin lacks %s", c)
	}
}

func TestTesterCannotDeleteBugs(t *testing.T) {
	assert.False(t, Allowed("Tester", BugsDelete))
	assert.True(t, Allowed("Tester", BugsCreate))
	assert.True(t, Allowed("Tester", BugsEdit))
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	for _, role := range []string{"", "admin", "Superuser", "Team lead"} {
		set := Resolve(role)
		assert.Empty(t, set.List(), role)
		assert.False(t, Allowed(role, BugsView), role)
	}
}

func TestRoleTable(t *testing.T) {
	cases := []struct {
		role string
		cap  Capability
		want bool
	}{
		{"HR", EmployeesVerifyDocuments, true},
		{"HR", BugsEdit, false},
		{"Team Lead", BugsDelete, true},
		{"Team Lead", ProjectsDelete, false},
		{"Project Manager", ProjectsDelete, true},
		{"Developer", BugsCreate, false},
		{"IT Support", InventoryAdjust, true},
		{"IT Support", BugsView, false},
		{"Employee", AssetsView, true},
		{"Employee", AssetsEdit, false},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, Allowed(c.role, c.cap), "%s/%s", c.role, c.cap)
	}
}

func TestListIsSorted(t *testing.T) {
	list := Resolve("Developer").List()
	assert.Equal(t, []Capability{BugsComment, BugsEdit, BugsView, ProjectsView}, list)
}

func TestParse(t *testing.T) {
	r, ok := ParseRole("IT Support")
	assert.True(t, ok)
	assert.Equal(t, RoleITSupport, r)

	c, ok := ParseCapability("inventory.adjust")
	assert.True(t, ok)
	assert.Equal(t, InventoryAdjust, c)

	_, ok = ParseCapability("inventory.burn")
	assert.False(t, ok)
}

func TestGrants(t *testing.T) {
	g := Grants()
	assert.Len(t, g, len(Roles))
	assert.Len(t, g[RoleAdmin], len(Capabilities))
}
