package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "active"
	CustomerVIP      CustomerStatus = "vip"
	CustomerInactive CustomerStatus = "inactive"
)

func (s CustomerStatus) Valid() bool {
	switch s {
	case CustomerActive, CustomerVIP, CustomerInactive:
		return true
	}
	return false
}

// CustomerAccount is a known shopper. Customer carries the contact details an
// order snapshots at checkout; the totals are maintained from placed orders.
type CustomerAccount struct {
	ID int64 `json:"id"`
	Customer
	Phone         string          `json:"phone,omitempty"`
	Status        CustomerStatus  `json:"status"`
	JoinedAt      time.Time       `json:"joined_at"`
	TotalOrders   int             `json:"total_orders"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	LastOrderAt   *time.Time      `json:"last_order_at,omitempty"`
	WishlistItems int             `json:"wishlist_items"`
}

// AverageOrderValue is zero until the first order.
func (c CustomerAccount) AverageOrderValue() decimal.Decimal {
	if c.TotalOrders == 0 {
		return decimal.Zero
	}
	return c.TotalSpent.DivRound(decimal.NewFromInt(int64(c.TotalOrders)), 2)
}

func (c CustomerAccount) Clone() CustomerAccount {
	if c.LastOrderAt != nil {
		at := *c.LastOrderAt
		c.LastOrderAt = &at
	}
	return c
}

type CustomerStats struct {
	Total             int             `json:"total"`
	Active            int             `json:"active"`
	VIP               int             `json:"vip"`
	Inactive          int             `json:"inactive"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type OrderStats struct {
	Total        int             `json:"total"`
	Pending      int             `json:"pending"`
	Processing   int             `json:"processing"`
	Shipped      int             `json:"shipped"`
	Delivered    int             `json:"delivered"`
	Cancelled    int             `json:"cancelled"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}
