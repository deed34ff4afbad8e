package store

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

const DefaultRecentOrders = 5

func generateOrderNumber() string {
	id := uuid.New().String()
	return fmt.Sprintf("ORD-%s", strings.ToUpper(id[:8]))
}

// OrderBook keeps placed orders in memory, oldest first.
type OrderBook struct {
	orders    []models.Order
	nextID    int64
	newNumber func() string
	now       func() time.Time
}

func NewOrderBook(newNumber func() string, now func() time.Time) *OrderBook {
	if newNumber == nil {
		newNumber = generateOrderNumber
	}
	if now == nil {
		now = time.Now
	}
	return &OrderBook{nextID: 1, newNumber: newNumber, now: now}
}

func (b *OrderBook) place(customer models.Customer, lines []models.CartLine, fee ShippingPolicy) models.Order {
	now := b.now()
	order := models.Order{
		ID:          b.nextID,
		OrderNumber: b.newNumber(),
		Customer:    customer,
		Status:      models.OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}

	for _, line := range lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.Price,
			Subtotal:  line.Subtotal(),
		})
		order.Subtotal = order.Subtotal.Add(line.Subtotal())
	}
	order.Shipping = fee.Fee(order.Subtotal)
	order.TotalAmount = order.Subtotal.Add(order.Shipping)

	b.nextID++
	b.orders = append(b.orders, order)
	return cloneOrder(order)
}

func (b *OrderBook) assignCustomer(orderNumber string, customerID int64) {
	if i := b.indexOf(orderNumber); i >= 0 {
		b.orders[i].CustomerID = customerID
	}
}

func (b *OrderBook) Get(orderNumber string) (models.Order, error) {
	i := b.indexOf(orderNumber)
	if i < 0 {
		return models.Order{}, ErrOrderNotFound
	}
	return cloneOrder(b.orders[i]), nil
}

// List returns all orders, newest first.
func (b *OrderBook) List() []models.Order {
	out := make([]models.Order, 0, len(b.orders))
	for i := len(b.orders) - 1; i >= 0; i-- {
		out = append(out, cloneOrder(b.orders[i]))
	}
	return out
}

func (b *OrderBook) UpdateStatus(orderNumber, status string) (models.Order, error) {
	i := b.indexOf(orderNumber)
	if i < 0 {
		return models.Order{}, ErrOrderNotFound
	}

	current := b.orders[i].Status
	if !models.CanTransition(current, status) {
		return models.Order{}, fmt.Errorf("%s -> %s: %w", current, status, ErrInvalidTransition)
	}

	b.orders[i].Status = status
	b.orders[i].UpdatedAt = b.now()
	b.orders[i].Version++
	return cloneOrder(b.orders[i]), nil
}

// Remove deletes an order from the book. Stock and customer totals are left
// as they are.
func (b *OrderBook) Remove(orderNumber string) bool {
	i := b.indexOf(orderNumber)
	if i < 0 {
		return false
	}
	b.orders = append(b.orders[:i], b.orders[i+1:]...)
	return true
}

// ByStatus returns the orders in status, newest first.
func (b *OrderBook) ByStatus(status string) ([]models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, invalid("status", "unknown order status %q", status)
	}

	out := []models.Order{}
	for _, o := range b.List() {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

// Recent returns up to limit orders by creation time, newest first.
func (b *OrderBook) Recent(limit int) []models.Order {
	if limit <= 0 {
		limit = DefaultRecentOrders
	}

	out := b.List()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats counts orders per status. Cancelled orders are not revenue.
func (b *OrderBook) Stats() models.OrderStats {
	stats := models.OrderStats{Total: len(b.orders), TotalRevenue: decimal.Zero}
	for _, o := range b.orders {
		switch o.Status {
		case models.OrderStatusPending:
			stats.Pending++
		case models.OrderStatusProcessing:
			stats.Processing++
		case models.OrderStatusShipped:
			stats.Shipped++
		case models.OrderStatusDelivered:
			stats.Delivered++
		case models.OrderStatusCancelled:
			stats.Cancelled++
			continue
		}
		stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalAmount)
	}
	return stats
}

// ListCursor pages through orders newest first.
func (b *OrderBook) ListCursor(cursor string, limit int) (*CursorPage, error) {
	cursorData, bounded, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var orders []models.Order
	for _, o := range b.List() {
		if bounded && !cursorData.after(o) {
			continue
		}
		orders = append(orders, o)
		if len(orders) > limit {
			break
		}
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (b *OrderBook) indexOf(orderNumber string) int {
	for i, o := range b.orders {
		if o.OrderNumber == orderNumber {
			return i
		}
	}
	return -1
}

func cloneOrder(o models.Order) models.Order {
	o.Items = slices.Clone(o.Items)
	return o
}

func validateCustomer(c models.Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("customer.name", "must not be empty")
	}
	if !strings.Contains(c.Email, "@") {
		return invalid("customer.email", "%q is not an email address", c.Email)
	}
	if strings.TrimSpace(c.Address) == "" {
		return invalid("customer.address", "must not be empty")
	}
	return nil
}
