package auth

import (
	"fmt"
	"strings"
)

// Role is the coarse, single-valued role carried on every user. The set is
// closed: the hierarchy invariant depends on no role existing outside it.
type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
	RoleVP      Role = "VP"
)

var roleRanks = map[Role]int{
	RoleUser:    1,
	RoleManager: 2,
	RoleAdmin:   3,
	RoleVP:      4,
}

// ParseRole validates a stored or submitted role string. Unknown roles are
// rejected rather than defaulted.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := roleRanks[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

func (r Role) rank() int {
	return roleRanks[r]
}

// AtLeast reports whether r sits at or above other in the hierarchy
// VP > ADMIN > MANAGER > USER. Unknown roles rank below everything.
func (r Role) AtLeast(other Role) bool {
	return r.rank() >= other.rank()
}

func (r Role) String() string {
	return string(r)
}
