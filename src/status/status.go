// Package status holds the status vocabularies of each entity and maps legacy
// or misspelled values onto them.
package status

import (
	"strings"
)

type Domain struct {
	Name     string
	Values   []string
	Fallback string
	legacy   map[string]string
}

var Bug = newDomain("bug", "Open",
	[]string{"Open", "In Progress", "In Review", "Testing", "Fixed", "Reopened", "Closed", "Rejected"},
	map[string]string{
		"new":         "Open",
		"todo":        "Open",
		"inprogress":  "In Progress",
		"in-progress": "In Progress",
		"in_progress": "In Progress",
		"wip":         "In Progress",
		"review":      "In Review",
		"qa":          "Testing",
		"resolved":    "Fixed",
		"done":        "Fixed",
		"re-opened":   "Reopened",
		"re opened":   "Reopened",
		"verified":    "Closed",
		"wontfix":     "Rejected",
		"won't fix":   "Rejected",
		"invalid":     "Rejected",
	})

var Project = newDomain("project", "Planning",
	[]string{"Planning", "In Progress", "On Hold", "Completed", "Cancelled"},
	map[string]string{
		"not started": "Planning",
		"new":         "Planning",
		"development": "In Progress",
		"active":      "In Progress",
		"ongoing":     "In Progress",
		"in-progress": "In Progress",
		"in_progress": "In Progress",
		"paused":      "On Hold",
		"on-hold":     "On Hold",
		"onhold":      "On Hold",
		"done":        "Completed",
		"finished":    "Completed",
		"complete":    "Completed",
		"canceled":    "Cancelled",
	})

var Milestone = newDomain("milestone", "Pending",
	[]string{"Pending", "In Progress", "Completed"},
	map[string]string{
		"not started": "Pending",
		"planned":     "Pending",
		"active":      "In Progress",
		"in_progress": "In Progress",
		"done":        "Completed",
		"complete":    "Completed",
	})

var Employee = newDomain("employee", "Active",
	[]string{"Active", "On Leave", "Inactive", "Terminated"},
	map[string]string{
		"leave":    "On Leave",
		"resigned": "Inactive",
		"left":     "Inactive",
		"fired":    "Terminated",
	})

var Asset = newDomain("asset", "Available",
	[]string{"Available", "Assigned", "Under Maintenance", "Retired"},
	map[string]string{
		"in stock":    "Available",
		"free":        "Available",
		"in use":      "Assigned",
		"allocated":   "Assigned",
		"repair":      "Under Maintenance",
		"maintenance": "Under Maintenance",
		"disposed":    "Retired",
		"scrapped":    "Retired",
	})

var Inventory = newDomain("inventory", "In Stock",
	[]string{"In Stock", "Low Stock", "Out of Stock"},
	map[string]string{
		"available": "In Stock",
		"low":       "Low Stock",
		"empty":     "Out of Stock",
		"depleted":  "Out of Stock",
	})

func newDomain(name string, fallback string, values []string, legacy map[string]string) *Domain {
	d := &Domain{Name: name, Values: values, Fallback: fallback, legacy: map[string]string{}}
	for k, v := range legacy {
		d.legacy[fold(k)] = v
	}
	return d
}

// Normalize maps s onto a member of the domain. Exact members pass through,
// case differences and known legacy spellings are mapped, anything else becomes
// the fallback.
func (d *Domain) Normalize(s string) string {
	v, _ := d.Lookup(s)
	return v
}

// Lookup is Normalize that also reports whether s was recognised.
func (d *Domain) Lookup(s string) (string, bool) {
	key := fold(s)
	if key == "" {
		return d.Fallback, false
	}
	for _, v := range d.Values {
		if fold(v) == key {
			return v, true
		}
	}
	if v, ok := d.legacy[key]; ok {
		return v, true
	}
	return d.Fallback, false
}

func (d *Domain) Valid(s string) bool {
	for _, v := range d.Values {
		if v == s {
			return true
		}
	}
	return false
}

// InventoryFor derives the stock status of an item.
func InventoryFor(quantity int, reorderLevel int) string {
	switch {
	case quantity <= 0:
		return "Out of Stock"
	case quantity <= reorderLevel:
		return "Low Stock"
	default:
		return "In Stock"
	}
}

func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
