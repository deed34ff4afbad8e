package store

import (
	"fmt"

	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

// MaxLineQuantity bounds a single line so item counts cannot overflow.
const MaxLineQuantity = 1_000_000

// Cart is the ledger of line items. Every quantity change goes through the
// methods below, which keep each product id on at most one line and never
// store a quantity below one.
type Cart struct {
	lines    []models.CartLine
	notifier Notifier
}

// NewCart rebuilds a cart from previously saved lines. Lines that would break
// the ledger's invariants are dropped and returned so the caller can log them.
func NewCart(saved []models.CartLine, notifier Notifier) (*Cart, []models.CartLine) {
	c := &Cart{notifier: notifier}

	var dropped []models.CartLine
	for _, line := range saved {
		if err := validateLine(line); err != nil || c.indexOf(line.ProductID) >= 0 {
			dropped = append(dropped, line)
			continue
		}
		c.lines = append(c.lines, line)
	}
	return c, dropped
}

// AddItem adds quantity units of p, merging into an existing line for the
// same product id. The snapshot of an existing line is not refreshed.
func (c *Cart) AddItem(p models.Product, quantity int) (models.CartLine, error) {
	if quantity < 1 {
		return models.CartLine{}, invalid("quantity", "must be at least 1, got %d", quantity)
	}
	if err := validateSnapshot(p); err != nil {
		return models.CartLine{}, err
	}

	held := 0
	i := c.indexOf(p.ID)
	if i >= 0 {
		held = c.lines[i].Quantity
	}
	if quantity > MaxLineQuantity-held {
		return models.CartLine{}, invalid("quantity", "line would exceed %d units", MaxLineQuantity)
	}

	var line models.CartLine
	if i >= 0 {
		c.lines[i].Quantity += quantity
		line = c.lines[i]
	} else {
		line = models.NewCartLine(p, quantity)
		c.lines = append(c.lines, line)
	}

	notify(c.notifier, models.NotificationSuccess, fmt.Sprintf("%s added to cart!", p.Name))
	return line, nil
}

// RemoveItem deletes the line for productID and reports whether one existed.
func (c *Cart) RemoveItem(productID int64) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}

	name := c.lines[i].Name
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	notify(c.notifier, models.NotificationInfo, fmt.Sprintf("%s removed from cart", name))
	return true
}

// SetQuantity sets the line's quantity exactly. Zero or negative quantities
// remove the line, and are a no-op when there is no line.
func (c *Cart) SetQuantity(productID int64, quantity int) error {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return nil
	}

	if quantity > MaxLineQuantity {
		return invalid("quantity", "must be at most %d, got %d", MaxLineQuantity, quantity)
	}

	i := c.indexOf(productID)
	if i < 0 {
		return ErrCartLineNotFound
	}
	if c.lines[i].Quantity == quantity {
		return nil
	}

	c.lines[i].Quantity = quantity
	notify(c.notifier, models.NotificationInfo,
		fmt.Sprintf("%s quantity updated to %d", c.lines[i].Name, quantity))
	return nil
}

func (c *Cart) Clear() {
	if len(c.lines) == 0 {
		return
	}
	c.lines = nil
	notify(c.notifier, models.NotificationInfo, "Cart cleared")
}

func (c *Cart) Lines() []models.CartLine {
	out := make([]models.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Line(productID int64) (models.CartLine, bool) {
	i := c.indexOf(productID)
	if i < 0 {
		return models.CartLine{}, false
	}
	return c.lines[i], true
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (c *Cart) Savings() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Savings())
	}
	return total
}

// ItemCount is the sum of quantities, not the number of lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

func (c *Cart) ShippingFee(freeThreshold, standardFee decimal.Decimal) decimal.Decimal {
	return ShippingFee(c.Subtotal(), freeThreshold, standardFee)
}

// ShippingFee is free once subtotal reaches freeThreshold.
func ShippingFee(subtotal, freeThreshold, standardFee decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(freeThreshold) {
		return decimal.Zero
	}
	return standardFee
}

// reset empties the cart without emitting a notification.
func (c *Cart) reset() {
	c.lines = nil
}

func (c *Cart) indexOf(productID int64) int {
	for i, line := range c.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func validateSnapshot(p models.Product) error {
	if p.ID <= 0 {
		return invalid("product_id", "must be positive")
	}
	if p.Name == "" {
		return invalid("name", "must not be empty")
	}
	if p.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}
	if p.OriginalPrice.LessThan(p.Price) {
		return invalid("original_price", "%s is below price %s", p.OriginalPrice, p.Price)
	}
	return nil
}

func validateLine(l models.CartLine) error {
	if l.Quantity < 1 || l.Quantity > MaxLineQuantity {
		return invalid("quantity", "must be between 1 and %d, got %d", MaxLineQuantity, l.Quantity)
	}
	return validateSnapshot(models.Product{
		ID:            l.ProductID,
		Name:          l.Name,
		Price:         l.Price,
		OriginalPrice: l.OriginalPrice,
	})
}
