package models

import "github.com/shopspring/decimal"

type SortKey string

const (
	SortFeatured  SortKey = "featured"
	SortNewest    SortKey = "newest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortName      SortKey = "name"
	SortRating    SortKey = "rating"
	SortDiscount  SortKey = "discount"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortFeatured, SortNewest, SortPriceLow, SortPriceHigh, SortName, SortRating, SortDiscount:
		return true
	}
	return false
}

// PriceRange is inclusive on both ends.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

func (r PriceRange) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(r.Min) && price.LessThanOrEqual(r.Max)
}

// IsZero reports whether neither bound was set.
func (r PriceRange) IsZero() bool {
	return r.Min.IsZero() && r.Max.IsZero()
}

func DefaultPriceRange() PriceRange {
	return PriceRange{Min: decimal.Zero, Max: decimal.NewFromInt(600)}
}

type Query struct {
	Search   string     `json:"search"`
	Category Category   `json:"category"`
	Sort     SortKey    `json:"sort"`
	Price    PriceRange `json:"price"`
}

func DefaultQuery() Query {
	return Query{
		Category: CategoryAll,
		Sort:     SortFeatured,
		Price:    DefaultPriceRange(),
	}
}

type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}
