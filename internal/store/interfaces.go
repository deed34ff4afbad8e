package store

import (
	"github.com/safar/storefront/internal/models"
)

// Reader is the query side of the store used by display components.
type Reader interface {
	Products() []models.Product
	Product(id int64) (models.Product, error)
	FilteredProducts() []models.Product
	FilterAndSort(q models.Query) ([]models.Product, error)
	FeaturedProducts() []models.Product
	RelatedProducts(id int64, limit int) ([]models.Product, error)
	TopCategories(limit int) []models.CategoryCount
	ProductsPage(page, pageSize int) *OffsetPage
	Query() models.Query
	Preferences() models.UIPreferences
	CartOpen() bool

	CartLines() []models.CartLine
	CartView() []CartLineView
	CartSummary() CartSummary

	WishlistItems() []models.Product
	WishlistView() []WishlistEntryView
	InWishlist(productID int64) bool

	Notifications() []models.Notification
	UnreadNotifications() []models.Notification
	RecentNotifications(limit int) []models.Notification

	Orders() []models.Order
	Order(orderNumber string) (models.Order, error)
	OrdersPage(cursor string, limit int) (*CursorPage, error)
	OrdersByStatus(status string) ([]models.Order, error)
	RecentOrders(limit int) []models.Order
	OrderStats() models.OrderStats

	Customers() []models.CustomerAccount
	Customer(id int64) (models.CustomerAccount, error)
	CustomersByStatus(status models.CustomerStatus) ([]models.CustomerAccount, error)
	VIPCustomers() []models.CustomerAccount
	CustomerStats() models.CustomerStats
	TopCustomers(limit int) []models.CustomerAccount
}

// Writer is the command side of the store used by UI action handlers.
type Writer interface {
	AddProduct(d ProductDraft) (models.Product, error)
	UpdateProduct(id int64, u ProductUpdate) (models.Product, error)
	RemoveProduct(id int64) bool

	SetSearch(text string) error
	SetCategory(c models.Category) error
	SetSort(k models.SortKey) error
	SetPriceRange(r models.PriceRange) error
	SetQuery(q models.Query) error
	SetTheme(t models.Theme) error
	ToggleTheme() error
	SetSidebarCollapsed(collapsed bool) error
	ToggleCart() (bool, error)

	AddToCart(productID int64, quantity int) (models.CartLine, error)
	RemoveFromCart(productID int64) bool
	SetCartQuantity(productID int64, quantity int) error
	ClearCart()

	AddToWishlist(productID int64) (bool, error)
	RemoveFromWishlist(productID int64) bool
	ToggleWishlist(productID int64) (bool, error)
	ClearWishlist()

	Notify(typ models.NotificationType, title, message string) (models.Notification, error)
	DismissNotification(id int64) bool
	MarkNotificationRead(id int64) bool
	MarkAllNotificationsRead()
	ClearNotifications()

	Checkout(customer models.Customer) (models.Order, error)
	UpdateOrderStatus(orderNumber, status string) (models.Order, error)
	RemoveOrder(orderNumber string) bool

	AddCustomer(d CustomerDraft) (models.CustomerAccount, error)
	UpdateCustomer(id int64, u CustomerUpdate) (models.CustomerAccount, error)
	RemoveCustomer(id int64) bool
}

type ReadWriter interface {
	Reader
	Writer
}

var _ ReadWriter = (*Store)(nil)
