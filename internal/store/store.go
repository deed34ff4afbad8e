package store

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

// Persister receives the whitelisted subset of state after every change to
// it. Persist must not block the caller.
type Persister interface {
	Persist(state models.PersistedState)
}

type Logger interface {
	Printf(format string, v ...any)
}

type Options struct {
	Products        []models.Product
	Customers       []models.CustomerAccount
	Initial         *models.PersistedState
	Persister       Persister
	Scheduler       Scheduler
	NotificationTTL time.Duration
	Shipping        *ShippingPolicy
	Markup          decimal.Decimal
	Logger          Logger
	NewOrderNumber  func() string
}

type CartSummary struct {
	ItemCount int             `json:"item_count"`
	Lines     int             `json:"lines"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Savings   decimal.Decimal `json:"savings"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
}

// CartLineView pairs a cart line with the current state of its product.
// Orphaned lines reference a product that has been removed from the catalog.
type CartLineView struct {
	models.CartLine
	Orphaned  bool `json:"orphaned"`
	Available bool `json:"available"`
}

type WishlistEntryView struct {
	models.Product
	Orphaned bool `json:"orphaned"`
}

// Store is the single state tree behind the storefront. Construct one with
// New at startup and Close it on shutdown. Every public method applies its
// whole transition under one lock.
type Store struct {
	mu        sync.Mutex
	catalog   *Catalog
	cart      *Cart
	wishlist  *Wishlist
	notes     *NotificationQueue
	orders    *OrderBook
	customers *CustomerBook
	query     models.Query
	prefs     models.UIPreferences
	shipping  ShippingPolicy
	clientID  string
	cartOpen  bool

	persister Persister
	logger    Logger
	sched     Scheduler
	closed    bool
}

func New(opts Options) (*Store, error) {
	if opts.Scheduler == nil {
		opts.Scheduler = SystemScheduler()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	shipping := DefaultShippingPolicy()
	if opts.Shipping != nil {
		shipping = *opts.Shipping
	}

	catalog, err := NewCatalog(opts.Products, opts.Markup, opts.Scheduler.Now)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	customers, err := NewCustomerBook(opts.Customers, opts.Scheduler.Now)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}

	s := &Store{
		catalog:   catalog,
		notes:     NewNotificationQueue(opts.Scheduler, opts.NotificationTTL),
		orders:    NewOrderBook(opts.NewOrderNumber, opts.Scheduler.Now),
		customers: customers,
		query:     models.DefaultQuery(),
		prefs:     models.DefaultUIPreferences(),
		shipping:  shipping,
		persister: opts.Persister,
		logger:    opts.Logger,
		sched:     opts.Scheduler,
	}

	var state models.PersistedState
	if opts.Initial != nil {
		state = *opts.Initial
	}
	s.restore(state)

	return s, nil
}

func (s *Store) restore(state models.PersistedState) {
	var droppedLines []models.CartLine
	s.cart, droppedLines = NewCart(state.Cart, s.notes)
	for _, line := range droppedLines {
		s.logger.Printf("Discarding saved cart line for product %d: invalid or duplicate", line.ProductID)
	}

	var droppedItems []models.Product
	s.wishlist, droppedItems = NewWishlist(state.Wishlist, s.notes)
	for _, p := range droppedItems {
		s.logger.Printf("Discarding saved wishlist entry for product %d: invalid or duplicate", p.ID)
	}

	prefs := state.UIPreferences
	q := models.Query{
		Category: prefs.SelectedCategory,
		Sort:     prefs.SortBy,
		Price:    prefs.PriceRange,
	}
	if err := validateQuery(q); err == nil {
		s.query = q
		s.prefs.SelectedCategory = q.Category
		s.prefs.SortBy = q.Sort
		s.prefs.PriceRange = q.Price
	} else if state.SchemaVersion != 0 {
		s.logger.Printf("Discarding saved filter preferences: %v", err)
	}
	if prefs.Theme == models.ThemeLight || prefs.Theme == models.ThemeDark {
		s.prefs.Theme = prefs.Theme
	}
	s.prefs.SidebarCollapsed = prefs.SidebarCollapsed

	s.clientID = state.ClientID
	if s.clientID == "" {
		s.clientID = uuid.NewString()
	}
}

// Close cancels every pending notification timer. Later mutations return
// ErrClosed or do nothing.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.notes.Close()
	return nil
}

// Snapshot returns the whitelisted subset of state as it would be persisted.
func (s *Store) Snapshot() models.PersistedState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() models.PersistedState {
	return models.PersistedState{
		ClientID:      s.clientID,
		Cart:          s.cart.Lines(),
		Wishlist:      s.wishlist.Items(),
		UIPreferences: s.prefs,
		SavedAt:       s.sched.Now(),
	}
}

func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	s.persister.Persist(s.snapshotLocked())
}

// Catalog

func (s *Store) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.List()
}

func (s *Store) Product(id int64) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Get(id)
}

func (s *Store) FilteredProducts() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.FilterAndSort(s.query)
}

// FilterAndSort runs an ad hoc query without touching the stored query
// state. Unset fields take their defaults; anything else must be valid.
func (s *Store) FilterAndSort(q models.Query) ([]models.Product, error) {
	q = NormalizeQuery(q)
	if err := validateQuery(q); err != nil {
		return nil, fmt.Errorf("filter products: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.FilterAndSort(q), nil
}

func (s *Store) FeaturedProducts() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Featured()
}

func (s *Store) RelatedProducts(id int64, limit int) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Related(id, limit)
}

func (s *Store) TopCategories(limit int) []models.CategoryCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.TopCategories(limit)
}

func (s *Store) ProductsPage(page, pageSize int) *OffsetPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Page(page, pageSize)
}

func (s *Store) AddProduct(d ProductDraft) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.Product{}, ErrClosed
	}
	p, err := s.catalog.Add(d)
	if err != nil {
		return models.Product{}, fmt.Errorf("add product: %w", err)
	}
	return p, nil
}

func (s *Store) UpdateProduct(id int64, u ProductUpdate) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.Product{}, ErrClosed
	}
	p, err := s.catalog.Update(id, u)
	if err != nil {
		return models.Product{}, fmt.Errorf("update product %d: %w", id, err)
	}
	return p, nil
}

func (s *Store) RemoveProduct(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	return s.catalog.Remove(id)
}

// Query state and preferences

func (s *Store) Query() models.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *Store) Preferences() models.UIPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

func (s *Store) SetSearch(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.query.Search = text
	return nil
}

func (s *Store) SetCategory(c models.Category) error {
	if c != models.CategoryAll && !c.Valid() {
		return invalid("category", "unknown category %q", c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.query.Category = c
	s.prefs.SelectedCategory = c
	s.persistLocked()
	return nil
}

func (s *Store) SetSort(k models.SortKey) error {
	if !k.Valid() {
		return invalid("sort", "unknown sort key %q", k)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.query.Sort = k
	s.prefs.SortBy = k
	s.persistLocked()
	return nil
}

func (s *Store) SetPriceRange(r models.PriceRange) error {
	if err := validatePriceRange(r); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.query.Price = r
	s.prefs.PriceRange = r
	s.persistLocked()
	return nil
}

// SetQuery replaces the whole query state in one step. Nothing changes unless
// every field is valid, and state is persisted only when a persisted field
// changed.
func (s *Store) SetQuery(q models.Query) error {
	if err := validateQuery(q); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	changed := q.Category != s.query.Category ||
		q.Sort != s.query.Sort ||
		!q.Price.Min.Equal(s.query.Price.Min) ||
		!q.Price.Max.Equal(s.query.Price.Max)

	s.query = q
	s.prefs.SelectedCategory = q.Category
	s.prefs.SortBy = q.Sort
	s.prefs.PriceRange = q.Price
	if changed {
		s.persistLocked()
	}
	return nil
}

func (s *Store) SetTheme(t models.Theme) error {
	if t != models.ThemeLight && t != models.ThemeDark {
		return invalid("theme", "unknown theme %q", t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.prefs.Theme = t
	s.persistLocked()
	return nil
}

func (s *Store) ToggleTheme() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.prefs.Theme == models.ThemeDark {
		s.prefs.Theme = models.ThemeLight
	} else {
		s.prefs.Theme = models.ThemeDark
	}
	s.persistLocked()
	return nil
}

func (s *Store) SetSidebarCollapsed(collapsed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.prefs.SidebarCollapsed = collapsed
	s.persistLocked()
	return nil
}

// CartOpen and ToggleCart track the cart drawer. The flag is not persisted.
func (s *Store) CartOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartOpen
}

func (s *Store) ToggleCart() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.cartOpen, ErrClosed
	}
	s.cartOpen = !s.cartOpen
	return s.cartOpen, nil
}

// Cart

func (s *Store) AddToCart(productID int64, quantity int) (models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.CartLine{}, ErrClosed
	}
	p, err := s.catalog.Get(productID)
	if err != nil {
		return models.CartLine{}, fmt.Errorf("add to cart: %w", err)
	}
	line, err := s.cart.AddItem(p, quantity)
	if err != nil {
		return models.CartLine{}, fmt.Errorf("add to cart: %w", err)
	}
	s.persistLocked()
	return line, nil
}

func (s *Store) RemoveFromCart(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.cart.RemoveItem(productID) {
		return false
	}
	s.persistLocked()
	return true
}

func (s *Store) SetCartQuantity(productID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := s.cart.SetQuantity(productID, quantity); err != nil {
		return fmt.Errorf("set quantity for product %d: %w", productID, err)
	}
	s.persistLocked()
	return nil
}

func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.cart.Clear()
	s.persistLocked()
}

func (s *Store) CartLines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

func (s *Store) CartView() []CartLineView {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.cart.Lines()
	out := make([]CartLineView, 0, len(lines))
	for _, line := range lines {
		view := CartLineView{CartLine: line}
		if p, err := s.catalog.Get(line.ProductID); err != nil {
			view.Orphaned = true
		} else {
			view.Available = p.Available()
		}
		out = append(out, view)
	}
	return out
}

// CartSummary computes every cart total from the same set of lines.
func (s *Store) CartSummary() CartSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	subtotal := s.cart.Subtotal()
	shipping := decimal.Zero
	if s.cart.Len() > 0 {
		shipping = s.shipping.Fee(subtotal)
	}
	return CartSummary{
		ItemCount: s.cart.ItemCount(),
		Lines:     s.cart.Len(),
		Subtotal:  subtotal,
		Savings:   s.cart.Savings(),
		Shipping:  shipping,
		Total:     subtotal.Add(shipping),
	}
}

// Wishlist

func (s *Store) AddToWishlist(productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}
	p, err := s.catalog.Get(productID)
	if err != nil {
		return false, fmt.Errorf("add to wishlist: %w", err)
	}
	added, err := s.wishlist.Add(p)
	if err != nil {
		return false, fmt.Errorf("add to wishlist: %w", err)
	}
	if added {
		s.persistLocked()
	}
	return added, nil
}

func (s *Store) RemoveFromWishlist(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.wishlist.Remove(productID) {
		return false
	}
	s.persistLocked()
	return true
}

// ToggleWishlist reports whether the product is in the wishlist afterwards.
// An orphaned entry can still be toggled out.
func (s *Store) ToggleWishlist(productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}

	p, ok := s.wishlist.Get(productID)
	if !ok {
		var err error
		if p, err = s.catalog.Get(productID); err != nil {
			return false, fmt.Errorf("toggle wishlist: %w", err)
		}
	}

	in, err := s.wishlist.Toggle(p)
	if err != nil {
		return false, fmt.Errorf("toggle wishlist: %w", err)
	}
	s.persistLocked()
	return in, nil
}

func (s *Store) InWishlist(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlist.Contains(productID)
}

func (s *Store) ClearWishlist() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.wishlist.Clear()
	s.persistLocked()
}

func (s *Store) WishlistItems() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlist.Items()
}

func (s *Store) WishlistView() []WishlistEntryView {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.wishlist.Items()
	out := make([]WishlistEntryView, 0, len(items))
	for _, p := range items {
		_, err := s.catalog.Get(p.ID)
		out = append(out, WishlistEntryView{Product: p, Orphaned: err != nil})
	}
	return out
}

// Notifications

func (s *Store) Notify(typ models.NotificationType, title, message string) (models.Notification, error) {
	return s.notes.Enqueue(typ, title, message)
}

func (s *Store) DismissNotification(id int64) bool {
	return s.notes.Dismiss(id)
}

func (s *Store) Notifications() []models.Notification {
	return s.notes.List()
}

func (s *Store) UnreadNotifications() []models.Notification {
	return s.notes.Unread()
}

func (s *Store) RecentNotifications(limit int) []models.Notification {
	return s.notes.Recent(limit)
}

func (s *Store) MarkNotificationRead(id int64) bool {
	return s.notes.MarkRead(id)
}

func (s *Store) MarkAllNotificationsRead() {
	s.notes.MarkAllRead()
}

func (s *Store) ClearNotifications() {
	s.notes.Clear()
}

// Orders

// Checkout turns the cart into a pending order, reserving catalog stock for
// every line whose product still exists. Nothing changes unless all of them
// fit.
func (s *Store) Checkout(customer models.Customer) (models.Order, error) {
	if err := validateCustomer(customer); err != nil {
		return models.Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.Order{}, ErrClosed
	}
	lines := s.cart.Lines()
	if len(lines) == 0 {
		return models.Order{}, ErrEmptyCart
	}

	quantities := make(map[int64]int, len(lines))
	for _, line := range lines {
		quantities[line.ProductID] = line.Quantity
	}
	if err := s.catalog.reserve(quantities); err != nil {
		return models.Order{}, fmt.Errorf("checkout: %w", err)
	}

	order := s.orders.place(customer, lines, s.shipping)
	if account, err := s.customers.recordOrder(customer, order.TotalAmount, order.CreatedAt); err != nil {
		s.logger.Printf("Order %s not credited to %s: %v", order.OrderNumber, customer.Email, err)
	} else {
		s.orders.assignCustomer(order.OrderNumber, account.ID)
		order.CustomerID = account.ID
	}
	s.cart.reset()
	s.persistLocked()

	notify(s.notes, models.NotificationSuccess, fmt.Sprintf("Order %s placed", order.OrderNumber))
	return order, nil
}

func (s *Store) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders.List()
}

func (s *Store) Order(orderNumber string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders.Get(orderNumber)
}

func (s *Store) UpdateOrderStatus(orderNumber, status string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.Order{}, ErrClosed
	}
	o, err := s.orders.UpdateStatus(orderNumber, status)
	if err != nil {
		return models.Order{}, fmt.Errorf("update order %s: %w", orderNumber, err)
	}
	return o, nil
}

func (s *Store) OrdersPage(cursor string, limit int) (*CursorPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders.ListCursor(cursor, limit)
}

func (s *Store) OrdersByStatus(status string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders.ByStatus(status)
}

func (s *Store) RecentOrders(limit int) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders.Recent(limit)
}

func (s *Store) OrderStats() models.OrderStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders.Stats()
}

func (s *Store) RemoveOrder(orderNumber string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	return s.orders.Remove(orderNumber)
}

// Customers

func (s *Store) Customers() []models.CustomerAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customers.List()
}

func (s *Store) Customer(id int64) (models.CustomerAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customers.Get(id)
}

func (s *Store) CustomersByStatus(status models.CustomerStatus) ([]models.CustomerAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customers.ByStatus(status)
}

func (s *Store) VIPCustomers() []models.CustomerAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customers.VIP()
}

func (s *Store) CustomerStats() models.CustomerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customers.Stats()
}

func (s *Store) TopCustomers(limit int) []models.CustomerAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customers.Top(limit)
}

func (s *Store) AddCustomer(d CustomerDraft) (models.CustomerAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.CustomerAccount{}, ErrClosed
	}
	c, err := s.customers.Add(d)
	if err != nil {
		return models.CustomerAccount{}, fmt.Errorf("add customer: %w", err)
	}
	return c, nil
}

func (s *Store) UpdateCustomer(id int64, u CustomerUpdate) (models.CustomerAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.CustomerAccount{}, ErrClosed
	}
	c, err := s.customers.Update(id, u)
	if err != nil {
		return models.CustomerAccount{}, fmt.Errorf("update customer %d: %w", id, err)
	}
	return c, nil
}

func (s *Store) RemoveCustomer(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	return s.customers.Remove(id)
}
