package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBugCodeFor(t *testing.T) {
	assert.Equal(t, "BUG-000042", BugCodeFor(42))
	assert.Equal(t, "BUG-1234567", BugCodeFor(1234567))
}

func TestTransitionToFixedStampsDate(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	b := Bug{Status: "In Progress"}
	b.Transition("Fixed", now)
	assert.Equal(t, "Fixed", b.Status)
	if assert.NotNil(t, b.ActualFixDate) {
		assert.Equal(t, now, *b.ActualFixDate)
	}

	later := now.Add(time.Hour)
	b.Transition("Closed", later)
	assert.Equal(t, now, *b.ActualFixDate)
}

func TestTransitionReopenCounts(t *testing.T) {
	now := time.Now()
	res := "Fixed"
	b := Bug{Status: "Closed", ResolutionType: &res}
	b.Transition("Reopened", now)
	assert.Equal(t, 1, b.ReopenedCount)
	assert.Nil(t, b.ResolutionType)
	assert.Nil(t, b.ActualFixDate)

	b.Transition("Reopened", now)
	assert.Equal(t, 1, b.ReopenedCount)

	b.Transition("Fixed", now)
	b.Transition("Reopened", now)
	assert.Equal(t, 2, b.ReopenedCount)

	open := Bug{Status: "Open"}
	open.Transition("Reopened", now)
	assert.Equal(t, 0, open.ReopenedCount)
}

func TestResolutionAllowed(t *testing.T) {
	assert.True(t, ResolutionAllowed("Rejected"))
	assert.False(t, ResolutionAllowed("Testing"))
	assert.True(t, ValidResolution("Won't Fix"))
	assert.False(t, ValidResolution("wontfix"))
}

func TestProjectFillMembers(t *testing.T) {
	p := Project{Members: []ProjectMember{{UserID: 3, Role: "Developer"}, {UserID: 5}}}
	p.FillMembers()
	assert.Equal(t, []uint{3, 5}, p.MemberIDs)
	assert.Equal(t, "Developer", p.MemberRoles[3])
	_, ok := p.MemberRoles[5]
	assert.False(t, ok)
}
