package store

import (
	"sort"
	"strings"

	"github.com/safar/storefront/internal/models"
)

// FilterAndSort returns the products matching q, ordered by q.Sort. Products
// with equal sort keys keep their catalog order. The input is not modified.
// Unset fields of q take their defaults; see NormalizeQuery.
func FilterAndSort(products []models.Product, q models.Query) []models.Product {
	q = NormalizeQuery(q)

	matched := make([]models.Product, 0, len(products))
	for _, p := range products {
		if q.Category != models.CategoryAll && p.Category != q.Category {
			continue
		}
		if !q.Price.Contains(p.Price) {
			continue
		}
		if !p.Matches(q.Search) {
			continue
		}
		matched = append(matched, p.Clone())
	}

	var less func(a, b models.Product) bool
	switch q.Sort {
	case models.SortPriceLow:
		less = func(a, b models.Product) bool { return a.Price.LessThan(b.Price) }
	case models.SortPriceHigh:
		less = func(a, b models.Product) bool { return a.Price.GreaterThan(b.Price) }
	case models.SortName:
		less = func(a, b models.Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case models.SortRating:
		less = func(a, b models.Product) bool { return a.Rating > b.Rating }
	case models.SortNewest:
		less = func(a, b models.Product) bool { return a.ID > b.ID }
	case models.SortDiscount:
		less = func(a, b models.Product) bool { return a.DiscountPercent() > b.DiscountPercent() }
	default:
		less = func(a, b models.Product) bool { return a.Featured && !b.Featured }
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return less(matched[i], matched[j])
	})
	return matched
}

// NormalizeQuery fills the unset fields of q with the default query: an empty
// category means all, an empty sort key means featured and a zero price range
// means the default range.
func NormalizeQuery(q models.Query) models.Query {
	def := models.DefaultQuery()
	if q.Category == "" {
		q.Category = def.Category
	}
	if q.Sort == "" {
		q.Sort = def.Sort
	}
	if q.Price.IsZero() {
		q.Price = def.Price
	}
	return q
}

func validateQuery(q models.Query) error {
	if q.Category != models.CategoryAll && !q.Category.Valid() {
		return invalid("category", "unknown category %q", q.Category)
	}
	if !q.Sort.Valid() {
		return invalid("sort", "unknown sort key %q", q.Sort)
	}
	return validatePriceRange(q.Price)
}

func validatePriceRange(r models.PriceRange) error {
	if r.Min.IsNegative() || r.Max.IsNegative() {
		return invalid("price_range", "bounds must not be negative")
	}
	if r.Min.GreaterThan(r.Max) {
		return invalid("price_range", "min %s is greater than max %s", r.Min, r.Max)
	}
	return nil
}
