package domain

// Role enumerates the four account tiers.
type Role string

const (
	RoleEndUser    Role = "END_USER"
	RoleFirstLine  Role = "FIRST_LINE"
	RoleSecondLine Role = "SECOND_LINE"
	RoleAdmin      Role = "ADMIN"
)

// roleRanks defines the partial order END_USER < FIRST_LINE < SECOND_LINE < ADMIN.
var roleRanks = map[Role]int{
	RoleEndUser:    0,
	RoleFirstLine:  1,
	RoleSecondLine: 2,
	RoleAdmin:      3,
}

// Valid reports whether the role is one of the four enumerated tiers.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the role's position in the hierarchy, -1 for unknown roles.
func (r Role) Rank() int {
	rank, ok := roleRanks[r]
	if !ok {
		return -1
	}
	return rank
}

// AtLeast reports whether the role inherits the capabilities granted to other.
// The hierarchy is additive only; explicit deny rules are evaluated before it.
func (r Role) AtLeast(other Role) bool {
	return r.Valid() && other.Valid() && r.Rank() >= other.Rank()
}

// IsSupport reports whether the role is a support tier or administrator.
func (r Role) IsSupport() bool {
	return r.AtLeast(RoleFirstLine)
}

// ParseRole validates a wire value into a Role.
func ParseRole(val string) (Role, bool) {
	role := Role(val)
	return role, role.Valid()
}
