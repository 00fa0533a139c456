// Package allowlist gates event processing on a fixed set of chat and
// user identifiers loaded at startup.
package allowlist

// AllowList is an immutable set of permitted identifiers. Safe for
// concurrent use; there are no writes after construction.
type AllowList struct {
	ids map[int64]struct{}
}

// New builds an AllowList from the configured identifiers. The input slice
// is copied, so later mutation of it does not affect the checker.
func New(ids []int64) *AllowList {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return &AllowList{ids: set}
}

// Allowed reports whether id was present in the configured set at load
// time. Absent identifiers return false; there are no error conditions.
func (a *AllowList) Allowed(id int64) bool {
	_, ok := a.ids[id]
	return ok
}

// Len returns the number of configured identifiers.
func (a *AllowList) Len() int {
	return len(a.ids)
}
