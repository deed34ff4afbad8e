package store

import (
	"strings"
	"testing"

	"github.com/safar/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAddToCartPersistsAndNotifies(t *testing.T) {
	s := newTestStore(t, nil)

	line, err := s.AddToCart(6, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)

	summary := s.CartSummary()
	assert.Equal(t, 2, summary.ItemCount)
	assert.Equal(t, 1, summary.Lines)
	assertDecimal(t, "40", summary.Subtotal)
	assertDecimal(t, "10", summary.Savings)
	assertDecimal(t, "9.99", summary.Shipping)
	assertDecimal(t, "49.99", summary.Total)

	require.Equal(t, 1, s.persister.Count())
	last := s.persister.Last()
	require.Len(t, last.Cart, 1)
	assert.Equal(t, int64(6), last.Cart[0].ProductID)
	assert.NotEmpty(t, last.ClientID)

	assert.Equal(t, []string{"moonlight Candle added to cart!"}, messages(s.Notifications()))
}

func TestStoreAddToCartErrors(t *testing.T) {
	s := newTestStore(t, nil)

	_, err := s.AddToCart(99, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = s.AddToCart(1, 0)
	assert.ErrorIs(t, err, ErrValidation)

	assert.ErrorIs(t, s.SetCartQuantity(1, 3), ErrCartLineNotFound)
	assert.Zero(t, s.persister.Count())
	assert.Empty(t, s.Notifications())
}

func TestStoreCartSummaryShipping(t *testing.T) {
	s := newTestStore(t, nil)

	empty := s.CartSummary()
	assertDecimal(t, "0", empty.Shipping)
	assertDecimal(t, "0", empty.Total)

	_, err := s.AddToCart(6, 1)
	require.NoError(t, err)
	_, err = s.AddToCart(2, 1)
	require.NoError(t, err)

	summary := s.CartSummary()
	assertDecimal(t, "50", summary.Subtotal)
	assertDecimal(t, "0", summary.Shipping)
	assertDecimal(t, "50", summary.Total)
}

func TestStoreCartQuantityFlow(t *testing.T) {
	s := newTestStore(t, nil)
	_, err := s.AddToCart(1, 1)
	require.NoError(t, err)

	require.NoError(t, s.SetCartQuantity(1, 3))
	assert.Equal(t, 3, s.CartSummary().ItemCount)

	require.NoError(t, s.SetCartQuantity(1, -1))
	assert.Empty(t, s.CartLines())

	assert.False(t, s.RemoveFromCart(1))

	_, err = s.AddToCart(2, 1)
	require.NoError(t, err)
	assert.True(t, s.RemoveFromCart(2))

	_, err = s.AddToCart(3, 1)
	require.NoError(t, err)
	s.ClearCart()
	assert.Empty(t, s.CartLines())
	assert.Empty(t, s.persister.Last().Cart)
}

func TestStoreWishlistToggleTwice(t *testing.T) {
	s := newTestStore(t, nil)

	in, err := s.ToggleWishlist(3)
	require.NoError(t, err)
	assert.True(t, in)
	assert.True(t, s.InWishlist(3))
	assert.Len(t, s.Notifications(), 1)

	in, err = s.ToggleWishlist(3)
	require.NoError(t, err)
	assert.False(t, in)
	assert.False(t, s.InWishlist(3))
	assert.Empty(t, s.WishlistItems())
	assert.Equal(t, []string{
		"Golden Leaf Necklace added to wishlist!",
		"Golden Leaf Necklace removed from wishlist",
	}, messages(s.Notifications()))

	_, err = s.ToggleWishlist(99)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestStoreWishlistAddRemove(t *testing.T) {
	s := newTestStore(t, nil)

	added, err := s.AddToWishlist(1)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddToWishlist(1)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, s.persister.Count())

	assert.True(t, s.RemoveFromWishlist(1))
	assert.False(t, s.RemoveFromWishlist(1))
	assert.Equal(t, 2, s.persister.Count())

	_, err = s.AddToWishlist(4)
	require.NoError(t, err)
	s.ClearWishlist()
	assert.Empty(t, s.WishlistItems())
	assert.Empty(t, s.persister.Last().Wishlist)
}

func TestStoreOrphanedReferences(t *testing.T) {
	s := newTestStore(t, nil)
	_, err := s.AddToCart(1, 1)
	require.NoError(t, err)
	_, err = s.AddToCart(5, 1)
	require.NoError(t, err)
	_, err = s.AddToWishlist(1)
	require.NoError(t, err)

	require.True(t, s.RemoveProduct(1))

	view := s.CartView()
	require.Len(t, view, 2)
	assert.True(t, view[0].Orphaned)
	assert.False(t, view[0].Available)
	assert.False(t, view[1].Orphaned)
	assert.False(t, view[1].Available)

	assertDecimal(t, "424.98", s.CartSummary().Subtotal)

	wishlist := s.WishlistView()
	require.Len(t, wishlist, 1)
	assert.True(t, wishlist[0].Orphaned)

	in, err := s.ToggleWishlist(1)
	require.NoError(t, err)
	assert.False(t, in)
	assert.Empty(t, s.WishlistItems())

	_, err = s.AddToWishlist(1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestStoreQueryState(t *testing.T) {
	s := newTestStore(t, nil)

	require.NoError(t, s.SetSearch("candle"))
	assert.Zero(t, s.persister.Count())

	require.NoError(t, s.SetCategory(models.CategoryCandles))
	require.NoError(t, s.SetSort(models.SortPriceLow))
	require.NoError(t, s.SetPriceRange(models.PriceRange{Min: dec("0"), Max: dec("25")}))

	assert.Equal(t, []int64{4, 6}, productIDs(s.FilteredProducts()))
	assert.Equal(t, 3, s.persister.Count())

	prefs := s.persister.Last().UIPreferences
	assert.Equal(t, models.CategoryCandles, prefs.SelectedCategory)
	assert.Equal(t, models.SortPriceLow, prefs.SortBy)
	assertDecimal(t, "25", prefs.PriceRange.Max)

	assert.ErrorIs(t, s.SetCategory("pottery"), ErrValidation)
	assert.ErrorIs(t, s.SetSort("random"), ErrValidation)
	assert.ErrorIs(t, s.SetPriceRange(models.PriceRange{Min: dec("9"), Max: dec("1")}), ErrValidation)
	assert.Equal(t, models.CategoryCandles, s.Query().Category)
	assert.Equal(t, 3, s.persister.Count())

	require.NoError(t, s.SetCategory(models.CategoryAll))
	assert.Equal(t, "candle", s.Query().Search)
}

func TestStoreSetQueryIsAllOrNothing(t *testing.T) {
	s := newTestStore(t, nil)

	q := s.Query()
	q.Category = models.CategoryNecklaces
	q.Sort = models.SortPriceHigh
	q.Price = models.PriceRange{Min: dec("100"), Max: dec("10")}
	assert.ErrorIs(t, s.SetQuery(q), ErrValidation)
	assert.Equal(t, models.DefaultQuery(), s.Query())
	assert.Zero(t, s.persister.Count())

	q.Price = models.PriceRange{Min: dec("0"), Max: dec("100")}
	q.Search = "gold"
	require.NoError(t, s.SetQuery(q))
	assert.Equal(t, q, s.Query())
	assert.Equal(t, []int64{3}, productIDs(s.FilteredProducts()))
	assert.Equal(t, 1, s.persister.Count())

	q.Search = "leaf"
	require.NoError(t, s.SetQuery(q))
	assert.Equal(t, 1, s.persister.Count())
}

func TestStoreFilterAndSortValidatesQuery(t *testing.T) {
	s := newTestStore(t, nil)

	got, err := s.FilterAndSort(models.Query{Category: models.CategoryCandles, Sort: models.SortPriceLow})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 6, 2}, productIDs(got))

	tests := []struct {
		name string
		q    models.Query
	}{
		{"unknown sort", models.Query{Sort: "cheapest"}},
		{"unknown category", models.Query{Category: "pottery"}},
		{"min above max", models.Query{Price: models.PriceRange{Min: dec("100"), Max: dec("10")}}},
		{"negative bound", models.Query{Price: models.PriceRange{Min: dec("-5"), Max: dec("10")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FilterAndSort(tt.q)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Nil(t, got)
		})
	}
	assert.Equal(t, models.DefaultQuery(), s.Query())
}

func TestStorePreferences(t *testing.T) {
	s := newTestStore(t, nil)
	assert.Equal(t, models.ThemeLight, s.Preferences().Theme)

	require.NoError(t, s.ToggleTheme())
	assert.Equal(t, models.ThemeDark, s.Preferences().Theme)
	require.NoError(t, s.SetTheme(models.ThemeLight))
	assert.ErrorIs(t, s.SetTheme("sepia"), ErrValidation)

	require.NoError(t, s.SetSidebarCollapsed(true))
	assert.True(t, s.persister.Last().UIPreferences.SidebarCollapsed)

	assert.False(t, s.CartOpen())
	open, err := s.ToggleCart()
	require.NoError(t, err)
	assert.True(t, open)
	assert.True(t, s.CartOpen())
	assert.Equal(t, 3, s.persister.Count())
}

func TestStoreRestoresInitialState(t *testing.T) {
	prefs := models.DefaultUIPreferences()
	prefs.SelectedCategory = models.CategoryNecklaces
	prefs.Theme = models.ThemeDark

	goodLine := models.NewCartLine(testCatalog()[1], 2)
	badLine := models.NewCartLine(testCatalog()[2], 0)

	s := newTestStore(t, &models.PersistedState{
		SchemaVersion: 1,
		ClientID:      "client-42",
		Cart:          []models.CartLine{goodLine, badLine},
		Wishlist:      []models.Product{testCatalog()[0]},
		UIPreferences: prefs,
	})

	assert.Equal(t, []models.CartLine{goodLine}, s.CartLines())
	assert.True(t, s.InWishlist(1))
	assert.Equal(t, models.CategoryNecklaces, s.Query().Category)
	assert.Equal(t, models.ThemeDark, s.Preferences().Theme)
	assert.Equal(t, "client-42", s.Snapshot().ClientID)

	logs := s.logger.Lines()
	require.Len(t, logs, 1)
	assert.True(t, strings.Contains(logs[0], "product 3"))
	assert.Zero(t, s.persister.Count())
	assert.Empty(t, s.Notifications())
}

func TestStoreRestoreDiscardsBadPreferences(t *testing.T) {
	prefs := models.DefaultUIPreferences()
	prefs.SortBy = "bogus"

	s := newTestStore(t, &models.PersistedState{SchemaVersion: 1, UIPreferences: prefs})

	assert.Equal(t, models.DefaultQuery(), s.Query())
	assert.Len(t, s.logger.Lines(), 1)
}

func TestStoreProductAdmin(t *testing.T) {
	s := newTestStore(t, nil)

	p, err := s.AddProduct(ProductDraft{Name: "Driftwood", Category: models.CategoryArts, Price: dec("40"), Stock: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)

	featured := true
	p, err = s.UpdateProduct(p.ID, ProductUpdate{Featured: &featured})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4, 7}, productIDs(s.FeaturedProducts()))

	_, err = s.UpdateProduct(123, ProductUpdate{Featured: &featured})
	assert.ErrorIs(t, err, ErrProductNotFound)

	related, err := s.RelatedProducts(4, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 6}, productIDs(related))

	assert.Equal(t, models.CategoryCandles, s.TopCategories(1)[0].Category)
	assert.Equal(t, int64(7), s.ProductsPage(1, 20).Total)
	assert.Len(t, s.Products(), 7)

	got, err := s.Product(7)
	require.NoError(t, err)
	assert.True(t, got.Featured)

	assert.True(t, s.RemoveProduct(7))
	assert.False(t, s.RemoveProduct(7))
	assert.Zero(t, s.persister.Count())
}

func TestStoreCheckout(t *testing.T) {
	s := newTestStore(t, nil)
	_, err := s.AddToCart(6, 2)
	require.NoError(t, err)
	_, err = s.AddToCart(3, 1)
	require.NoError(t, err)
	before := s.persister.Count()

	order, err := s.Checkout(testCustomer)
	require.NoError(t, err)

	assert.Equal(t, "ORD-0001", order.OrderNumber)
	assertDecimal(t, "129.99", order.Subtotal)
	assertDecimal(t, "0", order.Shipping)
	assertDecimal(t, "129.99", order.TotalAmount)
	assert.Len(t, order.Items, 2)

	assert.Empty(t, s.CartLines())
	assert.Equal(t, before+1, s.persister.Count())
	assert.Empty(t, s.persister.Last().Cart)

	moon, _ := s.Product(6)
	leaf, _ := s.Product(3)
	assert.Equal(t, 8, moon.Stock)
	assert.Equal(t, 1, leaf.Stock)

	notes := messages(s.Notifications())
	assert.Equal(t, "Order ORD-0001 placed", notes[len(notes)-1])

	assert.Len(t, s.Orders(), 1)
	got, err := s.Order("ORD-0001")
	require.NoError(t, err)
	assert.Equal(t, order.TotalAmount, got.TotalAmount)

	updated, err := s.UpdateOrderStatus("ORD-0001", models.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, updated.Status)

	page, err := s.OrdersPage("", 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.False(t, page.HasMore)
}

func TestStoreCheckoutCreditsCustomer(t *testing.T) {
	sched := newManualScheduler()
	s, err := New(Options{
		Products:  testCatalog(),
		Customers: testCustomers(),
		Scheduler: sched,
		Logger:    &recordingLogger{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.AddToCart(2, 1)
	require.NoError(t, err)
	buyer := testCustomer
	buyer.Email = "EMMA@example.com"
	order, err := s.Checkout(buyer)
	require.NoError(t, err)

	assert.Equal(t, int64(3), order.CustomerID)
	stored, err := s.Order(order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.CustomerID)

	emma, err := s.Customer(3)
	require.NoError(t, err)
	assert.Equal(t, 16, emma.TotalOrders)
	assertDecimal(t, "3339.49", emma.TotalSpent)
	require.NotNil(t, emma.LastOrderAt)
	assert.Equal(t, sched.Now(), *emma.LastOrderAt)

	_, err = s.AddToCart(4, 1)
	require.NoError(t, err)
	order, err = s.Checkout(testCustomer)
	require.NoError(t, err)
	assert.Equal(t, int64(5), order.CustomerID)
	assert.Len(t, s.Customers(), 5)
	assert.Equal(t, int64(3), s.TopCustomers(1)[0].ID)
	assert.Equal(t, []int64{3}, customerIDs(s.VIPCustomers()))

	stats := s.OrderStats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Pending)
	assertDecimal(t, "59.98", stats.TotalRevenue)
	assert.Equal(t, order.OrderNumber, s.RecentOrders(1)[0].OrderNumber)
	pending, err := s.OrdersByStatus(models.OrderStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	assert.True(t, s.RemoveOrder(order.OrderNumber))
	assert.Len(t, s.Orders(), 1)
	assert.Equal(t, 5, s.CustomerStats().Total)
}

func TestStoreCustomerAdmin(t *testing.T) {
	s, err := New(Options{
		Products:  testCatalog(),
		Customers: testCustomers(),
		Scheduler: newManualScheduler(),
		Logger:    &recordingLogger{},
	})
	require.NoError(t, err)

	c, err := s.AddCustomer(CustomerDraft{Name: "Lisa Garcia", Email: "lisa@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), c.ID)

	_, err = s.AddCustomer(CustomerDraft{Name: "Lisa Again", Email: "lisa@example.com"})
	assert.ErrorIs(t, err, ErrCustomerExists)

	inactive := models.CustomerInactive
	c, err = s.UpdateCustomer(5, CustomerUpdate{Status: &inactive})
	require.NoError(t, err)
	assert.Equal(t, models.CustomerInactive, c.Status)

	byStatus, err := s.CustomersByStatus(models.CustomerInactive)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, customerIDs(byStatus))
	assert.Equal(t, 2, s.CustomerStats().Inactive)

	assert.True(t, s.RemoveCustomer(5))
	_, err = s.Customer(5)
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	require.NoError(t, s.Close())
	_, err = s.AddCustomer(CustomerDraft{Name: "Late", Email: "late@example.com"})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.UpdateCustomer(1, CustomerUpdate{Status: &inactive})
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, s.RemoveCustomer(1))
	assert.False(t, s.RemoveOrder("ORD-0001"))
}

func TestStoreCheckoutFailures(t *testing.T) {
	s := newTestStore(t, nil)

	_, err := s.Checkout(testCustomer)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = s.AddToCart(3, 3)
	require.NoError(t, err)
	_, err = s.AddToCart(1, 1)
	require.NoError(t, err)

	_, err = s.Checkout(models.Customer{Name: "No Email"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Checkout(testCustomer)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	assert.Len(t, s.CartLines(), 2)
	sunset, _ := s.Product(1)
	assert.Equal(t, 10, sunset.Stock)
	assert.Empty(t, s.Orders())

	_, err = s.Order("ORD-0001")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestStoreCheckoutSkipsOrphanedLines(t *testing.T) {
	s := newTestStore(t, nil)
	_, err := s.AddToCart(2, 1)
	require.NoError(t, err)
	_, err = s.AddToCart(4, 1)
	require.NoError(t, err)
	require.True(t, s.RemoveProduct(2))

	order, err := s.Checkout(testCustomer)
	require.NoError(t, err)

	assert.Len(t, order.Items, 2)
	assertDecimal(t, "40", order.Subtotal)
	vanilla, _ := s.Product(4)
	assert.Equal(t, 9, vanilla.Stock)
}

func TestStoreNotificationsExpire(t *testing.T) {
	s := newTestStore(t, nil)

	_, err := s.AddToCart(1, 1)
	require.NoError(t, err)
	n, err := s.Notify(models.NotificationError, "Payment", "Card declined")
	require.NoError(t, err)
	assert.Len(t, s.UnreadNotifications(), 2)

	assert.True(t, s.MarkNotificationRead(n.ID))
	assert.Len(t, s.UnreadNotifications(), 1)
	assert.Equal(t, "Card declined", s.RecentNotifications(1)[0].Message)

	assert.True(t, s.DismissNotification(n.ID))
	assert.False(t, s.DismissNotification(n.ID))

	s.sched.Advance(DefaultNotificationTTL)
	assert.Empty(t, s.Notifications())

	_, err = s.AddToCart(1, 1)
	require.NoError(t, err)
	s.MarkAllNotificationsRead()
	assert.Empty(t, s.UnreadNotifications())
	s.ClearNotifications()
	assert.Empty(t, s.Notifications())
	assert.Zero(t, s.sched.Pending())
}

func TestStoreClose(t *testing.T) {
	s := newTestStore(t, nil)
	_, err := s.AddToCart(1, 1)
	require.NoError(t, err)
	_, err = s.Notify(models.NotificationInfo, "", "hello")
	require.NoError(t, err)
	require.Equal(t, 2, s.sched.Pending())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Zero(t, s.sched.Pending())
	assert.Empty(t, s.Notifications())

	_, err = s.AddToCart(1, 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.ToggleWishlist(1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Checkout(testCustomer)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Notify(models.NotificationInfo, "", "late")
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, s.RemoveFromCart(1))

	persisted := s.persister.Count()
	prefs := s.Preferences()
	assert.ErrorIs(t, s.SetSearch("late"), ErrClosed)
	assert.ErrorIs(t, s.SetCategory(models.CategoryCandles), ErrClosed)
	assert.ErrorIs(t, s.SetSort(models.SortName), ErrClosed)
	assert.ErrorIs(t, s.SetPriceRange(models.PriceRange{Min: dec("1"), Max: dec("2")}), ErrClosed)
	assert.ErrorIs(t, s.SetQuery(models.DefaultQuery()), ErrClosed)
	assert.ErrorIs(t, s.SetTheme(models.ThemeDark), ErrClosed)
	assert.ErrorIs(t, s.ToggleTheme(), ErrClosed)
	assert.ErrorIs(t, s.SetSidebarCollapsed(true), ErrClosed)
	_, err = s.ToggleCart()
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, s.CartOpen())
	assert.Equal(t, prefs, s.Preferences())
	assert.Equal(t, models.DefaultQuery(), s.Query())
	assert.Equal(t, persisted, s.persister.Count())

	s.sched.Advance(DefaultNotificationTTL)
	assert.Len(t, s.CartLines(), 1)
}

func TestNewRejectsInvalidCatalog(t *testing.T) {
	products := testCatalog()
	products[0].Rating = 7

	_, err := New(Options{Products: products})
	assert.ErrorIs(t, err, ErrValidation)
}
