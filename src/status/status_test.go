package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectLegacyValues(t *testing.T) {
	cases := map[string]string{
		"Development": "In Progress",
		"development": "In Progress",
		"Active":      "In Progress",
		"in_progress": "In Progress",
		"Done":        "Completed",
		"Canceled":    "Cancelled",
		"Paused":      "On Hold",
		"Not Started": "Planning",
		"Planning":    "Planning",
		"on hold":     "On Hold",
		"":            "Planning",
		"Whatever":    "Planning",
	}
	for in, want := range cases {
		assert.Equalf(t, want, Project.Normalize(in), "input %q", in)
	}
}

func TestBugLegacyValues(t *testing.T) {
	cases := map[string]string{
		"New":          "Open",
		"Resolved":     "Fixed",
		"Re-opened":    "Reopened",
		"  in   progress ": "In Progress",
		"Won't Fix":    "Rejected",
		"Closed":       "Closed",
		"unknown":      "Open",
	}
	for in, want := range cases {
		assert.Equalf(t, want, Bug.Normalize(in), "input %q", in)
	}
}

func TestNormalizedValuesAreValid(t *testing.T) {
	for _, d := range []*Domain{Bug, Project, Milestone, Employee, Asset, Inventory} {
		for k := range d.legacy {
			assert.Truef(t, d.Valid(d.Normalize(k)), "%s: %q", d.Name, k)
		}
		assert.True(t, d.Valid(d.Fallback), d.Name)
		for _, v := range d.Values {
			assert.Equal(t, v, d.Normalize(v))
		}
	}
}

func TestLookupReportsRecognition(t *testing.T) {
	v, ok := Asset.Lookup("In Use")
	assert.True(t, ok)
	assert.Equal(t, "Assigned", v)

	v, ok = Asset.Lookup("lost")
	assert.False(t, ok)
	assert.Equal(t, "Available", v)
}

func TestValidIsExact(t *testing.T) {
	assert.True(t, Employee.Valid("On Leave"))
	assert.False(t, Employee.Valid("on leave"))
}

func TestInventoryFor(t *testing.T) {
	assert.Equal(t, "Out of Stock", InventoryFor(0, 5))
	assert.Equal(t, "Out of Stock", InventoryFor(-2, 5))
	assert.Equal(t, "Low Stock", InventoryFor(5, 5))
	assert.Equal(t, "In Stock", InventoryFor(6, 5))
}
