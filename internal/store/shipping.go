package store

import "github.com/shopspring/decimal"

var (
	DefaultFreeShippingThreshold = decimal.NewFromInt(50)
	DefaultStandardShippingFee   = decimal.RequireFromString("9.99")
)

type ShippingPolicy struct {
	FreeThreshold decimal.Decimal
	StandardFee   decimal.Decimal
}

func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{
		FreeThreshold: DefaultFreeShippingThreshold,
		StandardFee:   DefaultStandardShippingFee,
	}
}

func (p ShippingPolicy) Fee(subtotal decimal.Decimal) decimal.Decimal {
	return ShippingFee(subtotal, p.FreeThreshold, p.StandardFee)
}
