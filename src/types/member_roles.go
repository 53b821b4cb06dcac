package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MemberRoles maps a project member's user id to their role on the project.
// Clients send the keys either as JSON object keys ("12") or as an array of
// {"user_id": 12, "role": "..."} pairs, sometimes with numeric strings in
// user_id. All forms are normalized to numeric keys here, once.
type MemberRoles map[uint]string

type memberRoleEntry struct {
	UserID json.RawMessage `json:"user_id"`
	Role   string          `json:"role"`
}

func (m *MemberRoles) UnmarshalJSON(data []byte) error {
	out := MemberRoles{}
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null" || trimmed == "":
		*m = nil
		return nil
	case strings.HasPrefix(trimmed, "["):
		var entries []memberRoleEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return err
		}
		for _, e := range entries {
			id, err := parseMemberKey(strings.Trim(string(e.UserID), `"`))
			if err != nil {
				return err
			}
			out[id] = e.Role
		}
	default:
		var raw map[string]string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		for k, v := range raw {
			id, err := parseMemberKey(k)
			if err != nil {
				return err
			}
			out[id] = v
		}
	}
	*m = out
	return nil
}

// IDs returns the member ids in ascending order.
func (m MemberRoles) IDs() []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func parseMemberKey(k string) (uint, error) {
	k = strings.TrimSpace(k)
	n, err := strconv.ParseUint(k, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid member id %q", k)
	}
	return uint(n), nil
}
