package models

import "fmt"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Roles lists every Role. Code that dispatches on a role should cover all of them.
var Roles = [...]Role{RoleAdmin, RoleUser}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

type Tier string

const (
	TierStandard Tier = "standard"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

var Tiers = [...]Tier{TierStandard, TierGold, TierPlatinum}

func (t Tier) Valid() bool {
	switch t {
	case TierStandard, TierGold, TierPlatinum:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var Severities = [...]Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}
