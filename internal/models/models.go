package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryAll       Category = "all"
	CategoryPaintings Category = "paintings"
	CategoryCandles   Category = "candles"
	CategoryNecklaces Category = "necklaces"
	CategoryArts      Category = "arts"
)

var Categories = []Category{CategoryPaintings, CategoryCandles, CategoryNecklaces, CategoryArts}

// Valid reports whether c names a concrete product category. "all" is a
// filter value, not a category a product can belong to.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Product struct {
	ID            int64           `json:"id"`
	SKU           string          `json:"sku,omitempty"`
	Name          string          `json:"name"`
	Category      Category        `json:"category"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Description   string          `json:"description,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	Rating        float64         `json:"rating"`
	ReviewCount   int             `json:"review_count"`
	Stock         int             `json:"stock"`
	InStock       bool            `json:"in_stock"`
	Featured      bool            `json:"featured"`
	Image         string          `json:"image,omitempty"`
	Material      string          `json:"material,omitempty"`
	Dimensions    string          `json:"dimensions,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// DiscountPercent is always derived from Price and OriginalPrice; it is never
// stored on the record.
func (p Product) DiscountPercent() int {
	if !p.OriginalPrice.IsPositive() || !p.OriginalPrice.GreaterThan(p.Price) {
		return 0
	}
	pct := p.OriginalPrice.Sub(p.Price).Mul(decimal.NewFromInt(100)).Div(p.OriginalPrice)
	return int(pct.Round(0).IntPart())
}

// Available reports whether the product can be bought right now. InStock is
// a manual merchandising flag kept independently of the Stock count, so both
// must agree.
func (p Product) Available() bool {
	return p.InStock && p.Stock > 0
}

// Matches reports whether term occurs, case-insensitively, in the product's
// name, description or any tag. An empty term matches everything.
func (p Product) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with p.
func (p Product) Clone() Product {
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	return p
}

// CartLine holds a snapshot of the product taken when it was first added, so
// later catalog edits do not reprice the cart.
type CartLine struct {
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	Category      Category        `json:"category"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Image         string          `json:"image,omitempty"`
	Quantity      int             `json:"quantity"`
}

func NewCartLine(p Product, quantity int) CartLine {
	return CartLine{
		ProductID:     p.ID,
		Name:          p.Name,
		Category:      p.Category,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Image:         p.Image,
		Quantity:      quantity,
	}
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l CartLine) Savings() decimal.Decimal {
	return l.OriginalPrice.Sub(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
}
