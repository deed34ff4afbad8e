// Package seed loads the catalog and customer accounts the store starts with.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

//go:embed customers.yaml
var defaultCustomers []byte

const dateLayout = "2006-01-02"

type catalogFile struct {
	Products []productEntry `yaml:"products"`
}

type productEntry struct {
	ID            int64    `yaml:"id"`
	SKU           string   `yaml:"sku"`
	Name          string   `yaml:"name"`
	Category      string   `yaml:"category"`
	Price         string   `yaml:"price"`
	OriginalPrice string   `yaml:"original_price"`
	Description   string   `yaml:"description"`
	Tags          []string `yaml:"tags"`
	Rating        float64  `yaml:"rating"`
	ReviewCount   int      `yaml:"review_count"`
	Stock         int      `yaml:"stock"`
	InStock       bool     `yaml:"in_stock"`
	Featured      bool     `yaml:"featured"`
	Image         string   `yaml:"image"`
	Material      string   `yaml:"material"`
	Dimensions    string   `yaml:"dimensions"`
}

// Default returns the built-in catalog.
func Default() ([]models.Product, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, or the built-in one when path is empty.
func Load(path string) ([]models.Product, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]models.Product, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}

	products := make([]models.Product, 0, len(file.Products))
	for _, e := range file.Products {
		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			return nil, fmt.Errorf("product %d price %q: %w", e.ID, e.Price, err)
		}
		originalPrice := price
		if e.OriginalPrice != "" {
			if originalPrice, err = decimal.NewFromString(e.OriginalPrice); err != nil {
				return nil, fmt.Errorf("product %d original price %q: %w", e.ID, e.OriginalPrice, err)
			}
		}

		products = append(products, models.Product{
			ID:            e.ID,
			SKU:           e.SKU,
			Name:          e.Name,
			Category:      models.Category(e.Category),
			Price:         price,
			OriginalPrice: originalPrice,
			Description:   e.Description,
			Tags:          e.Tags,
			Rating:        e.Rating,
			ReviewCount:   e.ReviewCount,
			Stock:         e.Stock,
			InStock:       e.InStock,
			Featured:      e.Featured,
			Image:         e.Image,
			Material:      e.Material,
			Dimensions:    e.Dimensions,
		})
	}
	return products, nil
}

type customersFile struct {
	Customers []customerEntry `yaml:"customers"`
}

type customerEntry struct {
	ID            int64  `yaml:"id"`
	Name          string `yaml:"name"`
	Email         string `yaml:"email"`
	Phone         string `yaml:"phone"`
	Address       string `yaml:"address"`
	Joined        string `yaml:"joined"`
	TotalOrders   int    `yaml:"total_orders"`
	TotalSpent    string `yaml:"total_spent"`
	LastOrder     string `yaml:"last_order"`
	Status        string `yaml:"status"`
	WishlistItems int    `yaml:"wishlist_items"`
}

// DefaultCustomers returns the built-in customer accounts.
func DefaultCustomers() ([]models.CustomerAccount, error) {
	return ParseCustomers(defaultCustomers)
}

// LoadCustomers reads a customers file, or the built-in one when path is empty.
func LoadCustomers(path string) ([]models.CustomerAccount, error) {
	if path == "" {
		return DefaultCustomers()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read customers file: %w", err)
	}
	return ParseCustomers(data)
}

func ParseCustomers(data []byte) ([]models.CustomerAccount, error) {
	var file customersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed customers: %w", err)
	}

	customers := make([]models.CustomerAccount, 0, len(file.Customers))
	for _, e := range file.Customers {
		spent := decimal.Zero
		if e.TotalSpent != "" {
			var err error
			if spent, err = decimal.NewFromString(e.TotalSpent); err != nil {
				return nil, fmt.Errorf("customer %d total spent %q: %w", e.ID, e.TotalSpent, err)
			}
		}

		c := models.CustomerAccount{
			ID: e.ID,
			Customer: models.Customer{
				Name:    e.Name,
				Email:   e.Email,
				Address: e.Address,
			},
			Phone:         e.Phone,
			Status:        models.CustomerStatus(e.Status),
			TotalOrders:   e.TotalOrders,
			TotalSpent:    spent,
			WishlistItems: e.WishlistItems,
		}

		if e.Joined != "" {
			joined, err := time.Parse(dateLayout, e.Joined)
			if err != nil {
				return nil, fmt.Errorf("customer %d joined %q: %w", e.ID, e.Joined, err)
			}
			c.JoinedAt = joined
		}
		if e.LastOrder != "" {
			last, err := time.Parse(dateLayout, e.LastOrder)
			if err != nil {
				return nil, fmt.Errorf("customer %d last order %q: %w", e.ID, e.LastOrder, err)
			}
			c.LastOrderAt = &last
		}

		customers = append(customers, c)
	}
	return customers, nil
}
