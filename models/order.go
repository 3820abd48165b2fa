package models

import "strings"

// OrderSummary is the storage-independent view of an order used for previews.
type OrderSummary struct {
	ID               uint64 `gorm:"column:id" json:"id"`
	Status           string `gorm:"column:status" json:"status"`
	DateCreated      string `gorm:"column:date_created" json:"date_created"`
	Total            string `gorm:"column:total" json:"total"`
	Currency         string `gorm:"column:currency" json:"currency"`
	CustomerID       uint64 `gorm:"column:customer_id" json:"customer_id"`
	BillingFirstName string `gorm:"column:billing_first_name" json:"billing_first_name"`
	BillingLastName  string `gorm:"column:billing_last_name" json:"billing_last_name"`
	BillingEmail     string `gorm:"column:billing_email" json:"billing_email"`
	OrderNumber      string `gorm:"column:order_number" json:"order_number"`
}

func (o OrderSummary) BillingName() string {
	return strings.TrimSpace(o.BillingFirstName + " " + o.BillingLastName)
}

// Number is the display number, which plugins may override via _order_number.
func (o OrderSummary) Number() string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return formatID(o.ID)
}

type StatusCount struct {
	Status string `gorm:"column:status" json:"status"`
	Count  int64  `gorm:"column:count" json:"count"`
}
