package models

import "strconv"

type BookingSummary struct {
	ID           uint64 `gorm:"column:id" json:"id"`
	Status       string `gorm:"column:status" json:"status"`
	DateCreated  string `gorm:"column:date_created" json:"date_created"`
	Start        string `gorm:"column:start_date" json:"start_date"`
	End          string `gorm:"column:end_date" json:"end_date"`
	OrderID      uint64 `gorm:"column:order_id" json:"order_id"`
	CustomerID   uint64 `gorm:"column:customer_id" json:"customer_id"`
	ProductID    uint64 `gorm:"column:product_id" json:"product_id"`
	Cost         string `gorm:"column:cost" json:"cost"`
	ProductName  string `gorm:"column:product_name" json:"product_name"`
	CustomerName string `gorm:"column:customer_name" json:"customer_name"`
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
