// Package role defines the closed role enumeration and the privilege-order
// predicates used by the marketauth RBAC guard.
//
// Every hierarchy decision in the engine goes through [CanManage] and
// [CanAssign] so the rules live in exactly one place.
package role

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Role defines a public type used by marketauth APIs.
//
// Role instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Role uint8

const (
	// User is an exported constant or variable used by the identity engine.
	User Role = iota
	// Vendor is an exported constant or variable used by the identity engine.
	Vendor
	// Admin is an exported constant or variable used by the identity engine.
	Admin
	// Superadmin is an exported constant or variable used by the identity engine.
	Superadmin

	roleCount
)

// ErrUnknownRole is an exported constant or variable used by the identity engine.
var ErrUnknownRole = errors.New("unknown role")

var names = [roleCount]string{
	User:       "user",
	Vendor:     "vendor",
	Admin:      "admin",
	Superadmin: "superadmin",
}

// All is an exported constant or variable used by the identity engine.
var All = []Role{User, Vendor, Admin, Superadmin}

// Parse describes the parse operation and its observable behavior.
//
// Parse may return an error when input validation, dependency calls, or security checks fail.
// Parse does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func Parse(s string) (Role, error) {
	for r, name := range names {
		if name == s {
			return Role(r), nil
		}
	}
	return User, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// String describes the string operation and its observable behavior.
//
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r Role) String() string {
	if r >= roleCount {
		return "unknown"
	}
	return names[r]
}

// Valid describes the valid operation and its observable behavior.
//
// Valid does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r Role) Valid() bool {
	return r < roleCount
}

// Level returns the position of the role in the total privilege order
// user < vendor < admin < superadmin.
func (r Role) Level() int {
	return int(r)
}

// AtLeast describes the atleast operation and its observable behavior.
//
// AtLeast does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r Role) AtLeast(other Role) bool {
	return r.Level() >= other.Level()
}

// IsAdministrative reports whether the role carries back-office privileges.
func (r Role) IsAdministrative() bool {
	return r == Admin || r == Superadmin
}

// CanManage reports whether an actor may mutate or delete a principal that
// currently holds the target role. A plain admin may act on users and vendors
// but never on admins or superadmins; a superadmin may act on anyone.
func CanManage(actor, target Role) bool {
	switch actor {
	case Superadmin:
		return true
	case Admin:
		return !target.IsAdministrative()
	default:
		return false
	}
}

// CanAssign reports whether an actor may set a principal's role to the given
// value. Only a superadmin may mint another admin or superadmin.
func CanAssign(actor, newRole Role) bool {
	if !newRole.Valid() {
		return false
	}
	if newRole.IsAdministrative() {
		return actor == Superadmin
	}
	return actor.IsAdministrative()
}

// MarshalJSON describes the marshaljson operation and its observable behavior.
//
// MarshalJSON may return an error when input validation, dependency calls, or security checks fail.
// MarshalJSON does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint8(r))
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON describes the unmarshaljson operation and its observable behavior.
//
// UnmarshalJSON may return an error when input validation, dependency calls, or security checks fail.
// UnmarshalJSON does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
