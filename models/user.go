package models

import (
	"regexp"
	"slices"
)

const (
	RoleAdministrator = "administrator"
	RoleCustomer      = "customer"
)

// User is a wp_users row joined with its capabilities usermeta value.
type User struct {
	ID             uint64 `gorm:"column:ID" json:"id"`
	UserLogin      string `gorm:"column:user_login" json:"user_login"`
	UserEmail      string `gorm:"column:user_email" json:"user_email"`
	UserNicename   string `gorm:"column:user_nicename" json:"user_nicename"`
	DisplayName    string `gorm:"column:display_name" json:"display_name"`
	UserRegistered string `gorm:"column:user_registered" json:"user_registered"`
	Capabilities   string `gorm:"column:capabilities" json:"-"`
}

// roleEntry matches granted entries of a PHP-serialized role map, e.g. s:13:"administrator";b:1;
var roleEntry = regexp.MustCompile(`s:\d+:"([^"]+)";b:1;`)

// ParseRoles lists roles granted by a serialized capabilities value.
func ParseRoles(serialized string) []string {
	matches := roleEntry.FindAllStringSubmatch(serialized, -1)
	roles := make([]string, 0, len(matches))
	for _, m := range matches {
		roles = append(roles, m[1])
	}
	return roles
}

func (u User) Roles() []string {
	return ParseRoles(u.Capabilities)
}

func (u User) HasRole(role string) bool {
	return slices.Contains(u.Roles(), role)
}

func (u User) IsAdmin() bool {
	return u.HasRole(RoleAdministrator)
}

// Label is the display name, falling back to the login.
func (u User) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.UserLogin
}
