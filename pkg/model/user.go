package model

import (
	"fmt"

	"github.com/ssargent/skulddb/pkg/ids"
)

// Role is the authorization level attached to a user record.
type Role uint8

const (
	RoleUser Role = iota
	RoleAdmin
)

// ParseRole parses the lowercase wire form of a role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	default:
		return "user"
	}
}

// HashedPassword is an opaque salt+hash pair produced by the service layer.
// It never prints its contents.
type HashedPassword struct {
	Salt []byte
	Hash []byte
}

func (p HashedPassword) String() string { return "***" }

// Format keeps %v/%+v output redacted as well.
func (p HashedPassword) Format(f fmt.State, verb rune) {
	fmt.Fprint(f, "***")
}

// User is stored twice: under its id in the users collection, and under its
// email in the emails collection. Both copies are byte-identical and only
// ever change together inside one transaction.
type User struct {
	ID       ids.UserID
	Email    string
	Password HashedPassword
	Role     Role
}
