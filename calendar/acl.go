package calendar

import (
	gdata "github.com/godata-project/godata"
)

// Calendar access rule roles.
const (
	RoleNone     = "none"
	RoleFreeBusy = "freeBusyReader"
	RoleReader   = "reader"
	RoleWriter   = "writer"
	RoleOwner    = "owner"
)

// AccessRule is a calendar ACL entry.
type AccessRule struct {
	gdata.AccessRule
}

// NewAccessRule builds a local rule granting role to the given scope.
func NewAccessRule(role, scopeType, scopeValue string) *AccessRule {
	r := &AccessRule{}
	r.Role = role
	r.ScopeType = scopeType
	r.ScopeValue = scopeValue
	return r
}

// Kind returns the ACL discriminator.
func (r *AccessRule) Kind() string { return "calendar#aclRule" }
