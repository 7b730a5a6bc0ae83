package models

import (
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Capability is a permission a role grants, checked as a predicate
// instead of comparing role strings at call sites.
type Capability string

const (
	CapModerateRegistrations Capability = "moderate_registrations"
	CapManageAnyActivity     Capability = "manage_any_activity"
)

var roleCapabilities = map[Role][]Capability{
	RoleStudent: {},
	RoleTeacher: {CapModerateRegistrations},
	RoleAdmin:   {CapModerateRegistrations, CapManageAnyActivity},
}

// Can reports whether the role grants the capability.
func (r Role) Can(c Capability) bool {
	for _, have := range roleCapabilities[r] {
		if have == c {
			return true
		}
	}
	return false
}

type User struct {
	gorm.Model
	DiscordID string `gorm:"uniqueIndex"`
	Username  string
	Email     string
	Avatar    string
	Role      Role `gorm:"default:student"`
}
