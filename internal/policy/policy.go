// Package policy maps user roles to per-section daily caps.
package policy

import (
	"strings"

	"github.com/examforge/examforge/internal/model"
)

// Role is the closed set of user roles
type Role string

const (
	RoleFree    Role = "free"
	RolePremium Role = "premium"
	RoleAdmin   Role = "admin"
)

// ParseRole normalizes a role string; unknown or empty roles map to free
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RolePremium:
		return RolePremium
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleFree
	}
}

// Unlimited is the cap value meaning "no daily limit". The ledger
// performs no accounting for unlimited grants.
const Unlimited = -1

// Caps holds per-section daily caps for one role
type Caps map[model.Section]int

// Policy is a pure role → per-section cap table. It has no side effects
// and is safe for concurrent use after construction.
type Policy struct {
	caps map[Role]Caps
}

// New builds a policy from per-role cap tables. Admin is always
// unlimited regardless of the supplied tables.
func New(free, premium Caps) *Policy {
	return &Policy{
		caps: map[Role]Caps{
			RoleFree:    free,
			RolePremium: premium,
		},
	}
}

// DefaultFreeCaps returns the standard free-tier daily caps
func DefaultFreeCaps() Caps {
	return Caps{
		model.SectionQuantitative: 20,
		model.SectionAnalogy:      20,
		model.SectionSynonym:      20,
		model.SectionReading:      5,
		model.SectionWriting:      5,
	}
}

// DefaultPremiumCaps returns the standard premium-tier daily caps
func DefaultPremiumCaps() Caps {
	return Caps{
		model.SectionQuantitative: 100,
		model.SectionAnalogy:      100,
		model.SectionSynonym:      100,
		model.SectionReading:      25,
		model.SectionWriting:      25,
	}
}

// CapFor returns the daily cap for (role, section). Admin returns
// Unlimited. Sections absent from a role's table have a zero cap.
func (p *Policy) CapFor(role Role, section model.Section) int {
	if role == RoleAdmin {
		return Unlimited
	}

	caps, ok := p.caps[role]
	if !ok {
		caps = p.caps[RoleFree]
	}
	return caps[section]
}
