package models

import "strings"

// Customer is a wc_customer_lookup row. UserID is zero for guests.
type Customer struct {
	CustomerID     uint64 `gorm:"column:customer_id" json:"customer_id"`
	UserID         uint64 `gorm:"column:user_id" json:"user_id"`
	Username       string `gorm:"column:username" json:"username"`
	FirstName      string `gorm:"column:first_name" json:"first_name"`
	LastName       string `gorm:"column:last_name" json:"last_name"`
	Email          string `gorm:"column:email" json:"email"`
	DateRegistered string `gorm:"column:date_registered" json:"date_registered"`
	Capabilities   string `gorm:"column:capabilities" json:"-"`
	AccountName    string `gorm:"column:account_name" json:"-"`
}

func (c Customer) IsAdmin() bool {
	return c.UserID > 0 && User{Capabilities: c.Capabilities}.IsAdmin()
}

func (c Customer) Label() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name != "" {
		return name
	}
	if c.Username != "" {
		return c.Username
	}
	return c.Email
}
