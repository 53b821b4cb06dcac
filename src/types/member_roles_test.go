package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberRolesObjectKeys(t *testing.T) {
	var m MemberRoles
	require.NoError(t, json.Unmarshal([]byte(`{"3":"Developer"," 7 ":"Tester"}`), &m))
	assert.Equal(t, MemberRoles{3: "Developer", 7: "Tester"}, m)
	assert.Equal(t, []uint{3, 7}, m.IDs())
}

func TestMemberRolesArrayForm(t *testing.T) {
	var m MemberRoles
	require.NoError(t, json.Unmarshal([]byte(`[{"user_id":4,"role":"Lead"},{"user_id":"9","role":"QA"}]`), &m))
	assert.Equal(t, "Lead", m[4])
	assert.Equal(t, "QA", m[9])
}

func TestMemberRolesRejectsBadKeys(t *testing.T) {
	var m MemberRoles
	assert.Error(t, json.Unmarshal([]byte(`{"abc":"Developer"}`), &m))
	assert.Error(t, json.Unmarshal([]byte(`{"0":"Developer"}`), &m))
}

func TestMemberRolesRoundTrip(t *testing.T) {
	in := MemberRoles{12: "Reviewer"}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	var out MemberRoles
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func TestMemberRolesNull(t *testing.T) {
	m := MemberRoles{1: "x"}
	require.NoError(t, json.Unmarshal([]byte(`null`), &m))
	assert.Nil(t, m)
}
