package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

const DefaultTopCustomers = 10

type CustomerDraft struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// CustomerUpdate carries the fields to merge into an existing account. Order
// totals are not editable; they follow placed orders.
type CustomerUpdate struct {
	Name          *string
	Email         *string
	Phone         *string
	Address       *string
	Status        *models.CustomerStatus
	WishlistItems *int
}

// CustomerBook keeps customer accounts in memory, in registration order.
// Emails are unique ignoring case.
type CustomerBook struct {
	customers []models.CustomerAccount
	nextID    int64
	now       func() time.Time
}

func NewCustomerBook(seed []models.CustomerAccount, now func() time.Time) (*CustomerBook, error) {
	if now == nil {
		now = time.Now
	}
	b := &CustomerBook{nextID: 1, now: now}

	for _, c := range seed {
		if c.ID <= 0 {
			return nil, fmt.Errorf("seed customer %q: %w", c.Name, invalid("id", "must be positive"))
		}
		if b.indexOf(c.ID) >= 0 {
			return nil, fmt.Errorf("seed customer %d: %w", c.ID, invalid("id", "duplicate id"))
		}
		if c.Status == "" {
			c.Status = models.CustomerActive
		}
		if err := b.validate(c, -1); err != nil {
			return nil, fmt.Errorf("seed customer %d: %w", c.ID, err)
		}
		b.customers = append(b.customers, c.Clone())
		if c.ID >= b.nextID {
			b.nextID = c.ID + 1
		}
	}
	return b, nil
}

func (b *CustomerBook) List() []models.CustomerAccount {
	out := make([]models.CustomerAccount, len(b.customers))
	for i, c := range b.customers {
		out[i] = c.Clone()
	}
	return out
}

func (b *CustomerBook) Get(id int64) (models.CustomerAccount, error) {
	i := b.indexOf(id)
	if i < 0 {
		return models.CustomerAccount{}, ErrCustomerNotFound
	}
	return b.customers[i].Clone(), nil
}

func (b *CustomerBook) ByEmail(email string) (models.CustomerAccount, error) {
	i := b.indexOfEmail(email)
	if i < 0 {
		return models.CustomerAccount{}, ErrCustomerNotFound
	}
	return b.customers[i].Clone(), nil
}

func (b *CustomerBook) ByStatus(status models.CustomerStatus) ([]models.CustomerAccount, error) {
	if !status.Valid() {
		return nil, invalid("status", "unknown customer status %q", status)
	}

	out := []models.CustomerAccount{}
	for _, c := range b.customers {
		if c.Status == status {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (b *CustomerBook) VIP() []models.CustomerAccount {
	vip, _ := b.ByStatus(models.CustomerVIP)
	return vip
}

// Add registers a new active account with zeroed totals.
func (b *CustomerBook) Add(d CustomerDraft) (models.CustomerAccount, error) {
	c := models.CustomerAccount{
		ID: b.nextID,
		Customer: models.Customer{
			Name:    strings.TrimSpace(d.Name),
			Email:   strings.TrimSpace(d.Email),
			Address: strings.TrimSpace(d.Address),
		},
		Phone:      strings.TrimSpace(d.Phone),
		Status:     models.CustomerActive,
		JoinedAt:   b.now(),
		TotalSpent: decimal.Zero,
	}
	if err := b.validate(c, -1); err != nil {
		return models.CustomerAccount{}, err
	}

	b.nextID++
	b.customers = append(b.customers, c)
	return c.Clone(), nil
}

// Update merges u into the account. An invalid merge leaves it unchanged.
func (b *CustomerBook) Update(id int64, u CustomerUpdate) (models.CustomerAccount, error) {
	i := b.indexOf(id)
	if i < 0 {
		return models.CustomerAccount{}, ErrCustomerNotFound
	}

	c := b.customers[i].Clone()
	if u.Name != nil {
		c.Name = strings.TrimSpace(*u.Name)
	}
	if u.Email != nil {
		c.Email = strings.TrimSpace(*u.Email)
	}
	if u.Phone != nil {
		c.Phone = strings.TrimSpace(*u.Phone)
	}
	if u.Address != nil {
		c.Address = strings.TrimSpace(*u.Address)
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.WishlistItems != nil {
		c.WishlistItems = *u.WishlistItems
	}

	if err := b.validate(c, i); err != nil {
		return models.CustomerAccount{}, err
	}
	b.customers[i] = c
	return c.Clone(), nil
}

func (b *CustomerBook) Remove(id int64) bool {
	i := b.indexOf(id)
	if i < 0 {
		return false
	}
	b.customers = append(b.customers[:i], b.customers[i+1:]...)
	return true
}

// Stats averages each customer's own order value, counting customers
// without orders as zero.
func (b *CustomerBook) Stats() models.CustomerStats {
	stats := models.CustomerStats{
		Total:             len(b.customers),
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
	}
	if stats.Total == 0 {
		return stats
	}

	sumAverages := decimal.Zero
	for _, c := range b.customers {
		switch c.Status {
		case models.CustomerActive:
			stats.Active++
		case models.CustomerVIP:
			stats.VIP++
		case models.CustomerInactive:
			stats.Inactive++
		}
		stats.TotalRevenue = stats.TotalRevenue.Add(c.TotalSpent)
		sumAverages = sumAverages.Add(c.AverageOrderValue())
	}
	stats.AverageOrderValue = sumAverages.DivRound(decimal.NewFromInt(int64(stats.Total)), 2)
	return stats
}

// Top returns the biggest spenders first. Equal totals keep registration
// order.
func (b *CustomerBook) Top(limit int) []models.CustomerAccount {
	if limit <= 0 {
		limit = DefaultTopCustomers
	}

	out := b.List()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalSpent.GreaterThan(out[j].TotalSpent)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// recordOrder credits an order to the account with the order's email,
// registering one from the order's contact details when none exists.
func (b *CustomerBook) recordOrder(contact models.Customer, total decimal.Decimal, at time.Time) (models.CustomerAccount, error) {
	i := b.indexOfEmail(contact.Email)
	if i < 0 {
		if _, err := b.Add(CustomerDraft{Name: contact.Name, Email: contact.Email, Address: contact.Address}); err != nil {
			return models.CustomerAccount{}, err
		}
		i = len(b.customers) - 1
	}

	c := &b.customers[i]
	c.TotalOrders++
	c.TotalSpent = c.TotalSpent.Add(total)
	c.LastOrderAt = &at
	return c.Clone(), nil
}

func (b *CustomerBook) validate(c models.CustomerAccount, self int) error {
	if c.Name == "" {
		return invalid("name", "must not be empty")
	}
	if !strings.Contains(c.Email, "@") {
		return invalid("email", "%q is not an email address", c.Email)
	}
	if !c.Status.Valid() {
		return invalid("status", "unknown customer status %q", c.Status)
	}
	if c.WishlistItems < 0 {
		return invalid("wishlist_items", "must not be negative")
	}
	if c.TotalOrders < 0 || c.TotalSpent.IsNegative() {
		return invalid("totals", "must not be negative")
	}
	if i := b.indexOfEmail(c.Email); i >= 0 && i != self {
		return fmt.Errorf("%s: %w", c.Email, ErrCustomerExists)
	}
	return nil
}

func (b *CustomerBook) indexOf(id int64) int {
	for i, c := range b.customers {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (b *CustomerBook) indexOfEmail(email string) int {
	email = strings.TrimSpace(email)
	for i, c := range b.customers {
		if strings.EqualFold(c.Email, email) {
			return i
		}
	}
	return -1
}
