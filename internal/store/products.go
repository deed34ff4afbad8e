package store

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultMarkup derives a list price for admin-created products that do not
// supply one.
var DefaultMarkup = decimal.RequireFromString("1.2")

type ProductDraft struct {
	SKU           string
	Name          string
	Category      models.Category
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	Description   string
	Tags          []string
	Stock         int
	InStock       *bool
	Featured      bool
	Image         string
	Material      string
	Dimensions    string
}

// ProductUpdate carries the fields to merge into an existing product. Nil
// fields are left untouched.
type ProductUpdate struct {
	SKU           *string
	Name          *string
	Category      *models.Category
	Price         *decimal.Decimal
	OriginalPrice *decimal.Decimal
	Description   *string
	Tags          []string
	Stock         *int
	InStock       *bool
	Featured      *bool
	Rating        *float64
	ReviewCount   *int
	Image         *string
	Material      *string
	Dimensions    *string
}

// Catalog owns the product list. It is not safe for concurrent use; Store
// serializes access.
type Catalog struct {
	products []models.Product
	nextID   int64
	markup   decimal.Decimal
	now      func() time.Time
}

func NewCatalog(seed []models.Product, markup decimal.Decimal, now func() time.Time) (*Catalog, error) {
	if !markup.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		markup = DefaultMarkup
	}
	if now == nil {
		now = time.Now
	}

	c := &Catalog{
		products: make([]models.Product, 0, len(seed)),
		nextID:   1,
		markup:   markup,
		now:      now,
	}

	seen := make(map[int64]bool, len(seed))
	for _, p := range seed {
		if p.ID <= 0 {
			return nil, fmt.Errorf("seed product %q: %w", p.Name, invalid("id", "must be positive"))
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("seed product %d: %w", p.ID, invalid("id", "duplicate id"))
		}
		if err := validateProduct(p); err != nil {
			return nil, fmt.Errorf("seed product %d: %w", p.ID, err)
		}
		seen[p.ID] = true
		if p.Version == 0 {
			p.Version = 1
		}
		c.products = append(c.products, p.Clone())
		if p.ID >= c.nextID {
			c.nextID = p.ID + 1
		}
	}

	return c, nil
}

func (c *Catalog) List() []models.Product {
	out := make([]models.Product, len(c.products))
	for i, p := range c.products {
		out[i] = p.Clone()
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.products)
}

func (c *Catalog) Get(id int64) (models.Product, error) {
	i := c.indexOf(id)
	if i < 0 {
		return models.Product{}, ErrProductNotFound
	}
	return c.products[i].Clone(), nil
}

func (c *Catalog) Add(d ProductDraft) (models.Product, error) {
	originalPrice := d.Price.Mul(c.markup).Round(2)
	if d.OriginalPrice != nil {
		originalPrice = *d.OriginalPrice
	}
	inStock := d.Stock > 0
	if d.InStock != nil {
		inStock = *d.InStock
	}

	now := c.now()
	p := models.Product{
		ID:            c.nextID,
		SKU:           strings.TrimSpace(d.SKU),
		Name:          strings.TrimSpace(d.Name),
		Category:      d.Category,
		Price:         d.Price,
		OriginalPrice: originalPrice,
		Description:   d.Description,
		Tags:          append([]string{}, d.Tags...),
		Rating:        0,
		ReviewCount:   0,
		Stock:         d.Stock,
		InStock:       inStock,
		Featured:      d.Featured,
		Image:         d.Image,
		Material:      d.Material,
		Dimensions:    d.Dimensions,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
	if err := validateProduct(p); err != nil {
		return models.Product{}, err
	}

	c.nextID++
	c.products = append(c.products, p)
	return p.Clone(), nil
}

func (c *Catalog) Update(id int64, u ProductUpdate) (models.Product, error) {
	i := c.indexOf(id)
	if i < 0 {
		return models.Product{}, ErrProductNotFound
	}

	p := c.products[i].Clone()
	if u.SKU != nil {
		p.SKU = strings.TrimSpace(*u.SKU)
	}
	if u.Name != nil {
		p.Name = strings.TrimSpace(*u.Name)
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.OriginalPrice != nil {
		p.OriginalPrice = *u.OriginalPrice
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Tags != nil {
		p.Tags = append([]string{}, u.Tags...)
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.InStock != nil {
		p.InStock = *u.InStock
	}
	if u.Featured != nil {
		p.Featured = *u.Featured
	}
	if u.Rating != nil {
		p.Rating = *u.Rating
	}
	if u.ReviewCount != nil {
		p.ReviewCount = *u.ReviewCount
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Material != nil {
		p.Material = *u.Material
	}
	if u.Dimensions != nil {
		p.Dimensions = *u.Dimensions
	}

	if err := validateProduct(p); err != nil {
		return models.Product{}, err
	}

	p.UpdatedAt = c.now()
	p.Version++
	c.products[i] = p
	return p.Clone(), nil
}

// Remove deletes the product. Cart lines and wishlist entries that reference
// it are left in place as orphans.
func (c *Catalog) Remove(id int64) bool {
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.products = append(c.products[:i], c.products[i+1:]...)
	return true
}

func (c *Catalog) FilterAndSort(q models.Query) []models.Product {
	return FilterAndSort(c.products, q)
}

func (c *Catalog) Featured() []models.Product {
	var out []models.Product
	for _, p := range c.products {
		if p.Featured {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Related returns up to limit other products from the same category as id.
func (c *Catalog) Related(id int64, limit int) ([]models.Product, error) {
	p, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 4
	}

	var out []models.Product
	for _, candidate := range c.products {
		if len(out) == limit {
			break
		}
		if candidate.Category == p.Category && candidate.ID != id {
			out = append(out, candidate.Clone())
		}
	}
	return out, nil
}

// TopCategories counts products per category, largest first. Ties keep the
// order in which the category first appears in the catalog.
func (c *Catalog) TopCategories(limit int) []models.CategoryCount {
	if limit <= 0 {
		limit = 5
	}

	var counts []models.CategoryCount
	pos := make(map[models.Category]int)
	for _, p := range c.products {
		i, ok := pos[p.Category]
		if !ok {
			i = len(counts)
			pos[p.Category] = i
			counts = append(counts, models.CategoryCount{Category: p.Category})
		}
		counts[i].Count++
	}

	slices.SortStableFunc(counts, func(a, b models.CategoryCount) int { return b.Count - a.Count })
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

func (c *Catalog) Page(page, pageSize int) *OffsetPage {
	return paginate(c.List(), page, pageSize)
}

// reserve checks every requested quantity against current stock and only
// decrements when all of them fit. Ids missing from the catalog are skipped.
func (c *Catalog) reserve(quantities map[int64]int) error {
	for id, qty := range quantities {
		i := c.indexOf(id)
		if i < 0 {
			continue
		}
		p := c.products[i]
		if !p.InStock || p.Stock < qty {
			return fmt.Errorf("%s: %w", p.Name, ErrInsufficientStock)
		}
	}

	now := c.now()
	for id, qty := range quantities {
		i := c.indexOf(id)
		if i < 0 {
			continue
		}
		c.products[i].Stock -= qty
		c.products[i].UpdatedAt = now
		c.products[i].Version++
	}
	return nil
}

func (c *Catalog) indexOf(id int64) int {
	for i, p := range c.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func validateProduct(p models.Product) error {
	if p.Name == "" {
		return invalid("name", "must not be empty")
	}
	if !p.Category.Valid() {
		return invalid("category", "unknown category %q", p.Category)
	}
	if p.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}
	if p.OriginalPrice.LessThan(p.Price) {
		return invalid("original_price", "%s is below price %s", p.OriginalPrice, p.Price)
	}
	if p.Stock < 0 {
		return invalid("stock", "must not be negative")
	}
	if p.Rating < 0 || p.Rating > 5 {
		return invalid("rating", "must be between 0 and 5")
	}
	if p.ReviewCount < 0 {
		return invalid("review_count", "must not be negative")
	}
	return nil
}
