package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
	"github.com/shopspring/decimal"
)

type handler struct {
	store store.ReadWriter
}

func newRouter(s store.ReadWriter) http.Handler {
	h := &handler{store: s}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/featured", h.featuredProducts)
		r.Get("/{id}", h.getProduct)
		r.Get("/{id}/related", h.relatedProducts)
	})
	r.Get("/categories/top", h.topCategories)

	r.Route("/admin/products", func(r chi.Router) {
		r.Post("/", h.createProduct)
		r.Patch("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
	r.Route("/admin/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Get("/vip", h.vipCustomers)
		r.Get("/stats", h.customerStats)
		r.Get("/top", h.topCustomers)
		r.Get("/{id}", h.getCustomer)
		r.Patch("/{id}", h.updateCustomer)
		r.Delete("/{id}", h.deleteCustomer)
	})

	r.Get("/query", h.getQuery)
	r.Put("/query", h.setQuery)
	r.Get("/preferences", h.getPreferences)
	r.Put("/preferences", h.setPreferences)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Post("/", h.addToCart)
		r.Delete("/", h.clearCart)
		r.Get("/summary", h.cartSummary)
		r.Post("/toggle", h.toggleCartDrawer)
		r.Put("/{id}", h.setCartQuantity)
		r.Delete("/{id}", h.removeFromCart)
	})

	r.Route("/wishlist", func(r chi.Router) {
		r.Get("/", h.getWishlist)
		r.Delete("/", h.clearWishlist)
		r.Post("/{id}/toggle", h.toggleWishlist)
		r.Delete("/{id}", h.removeFromWishlist)
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.listNotifications)
		r.Delete("/", h.clearNotifications)
		r.Post("/read", h.markAllNotificationsRead)
		r.Post("/{id}/read", h.markNotificationRead)
		r.Delete("/{id}", h.dismissNotification)
	})

	r.Post("/checkout", h.checkout)
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Get("/recent", h.recentOrders)
		r.Get("/stats", h.orderStats)
		r.Get("/{number}", h.getOrder)
		r.Patch("/{number}", h.updateOrderStatus)
		r.Delete("/{number}", h.deleteOrder)
	})

	return r
}

// Catalog

func (h *handler) listProducts(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	if params.Has("page") {
		page, _ := strconv.Atoi(params.Get("page"))
		pageSize, _ := strconv.Atoi(params.Get("page_size"))
		respondJSON(w, http.StatusOK, h.store.ProductsPage(page, pageSize))
		return
	}

	q := h.store.Query()
	if params.Has("q") {
		q.Search = params.Get("q")
	}
	if v := params.Get("category"); v != "" {
		q.Category = models.Category(v)
	}
	if v := params.Get("sort"); v != "" {
		q.Sort = models.SortKey(v)
	}
	var err error
	if q.Price.Min, err = decimalParam(params.Get("min"), q.Price.Min); err != nil {
		h.fail(w, err)
		return
	}
	if q.Price.Max, err = decimalParam(params.Get("max"), q.Price.Max); err != nil {
		h.fail(w, err)
		return
	}

	products, err := h.store.FilterAndSort(q)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *handler) featuredProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.FeaturedProducts())
}

func (h *handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	p, err := h.store.Product(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *handler) relatedProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	related, err := h.store.RelatedProducts(id, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, related)
}

func (h *handler) topCategories(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	respondJSON(w, http.StatusOK, h.store.TopCategories(limit))
}

type productRequest struct {
	SKU           string           `json:"sku"`
	Name          string           `json:"name"`
	Category      models.Category  `json:"category"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Description   string           `json:"description"`
	Tags          []string         `json:"tags"`
	Stock         int              `json:"stock"`
	InStock       *bool            `json:"in_stock"`
	Featured      bool             `json:"featured"`
	Image         string           `json:"image"`
	Material      string           `json:"material"`
	Dimensions    string           `json:"dimensions"`
}

func (h *handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.store.AddProduct(store.ProductDraft{
		SKU:           req.SKU,
		Name:          req.Name,
		Category:      req.Category,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Description:   req.Description,
		Tags:          req.Tags,
		Stock:         req.Stock,
		InStock:       req.InStock,
		Featured:      req.Featured,
		Image:         req.Image,
		Material:      req.Material,
		Dimensions:    req.Dimensions,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

type productPatch struct {
	SKU           *string          `json:"sku"`
	Name          *string          `json:"name"`
	Category      *models.Category `json:"category"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Description   *string          `json:"description"`
	Tags          []string         `json:"tags"`
	Stock         *int             `json:"stock"`
	InStock       *bool            `json:"in_stock"`
	Featured      *bool            `json:"featured"`
	Rating        *float64         `json:"rating"`
	ReviewCount   *int             `json:"review_count"`
	Image         *string          `json:"image"`
	Material      *string          `json:"material"`
	Dimensions    *string          `json:"dimensions"`
}

func (h *handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var req productPatch
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.store.UpdateProduct(id, store.ProductUpdate(req))
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if !h.store.RemoveProduct(id) {
		h.fail(w, store.ErrProductNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Query state and preferences

func (h *handler) getQuery(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"query":    h.store.Query(),
		"products": h.store.FilteredProducts(),
	})
}

type queryRequest struct {
	Search   *string            `json:"search"`
	Category *models.Category   `json:"category"`
	Sort     *models.SortKey    `json:"sort"`
	Price    *models.PriceRange `json:"price"`
}

func (h *handler) setQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !h.decode(w, r, &req) {
		return
	}

	q := h.store.Query()
	if req.Search != nil {
		q.Search = *req.Search
	}
	if req.Category != nil {
		q.Category = *req.Category
	}
	if req.Sort != nil {
		q.Sort = *req.Sort
	}
	if req.Price != nil {
		q.Price = *req.Price
	}
	if err := h.store.SetQuery(q); err != nil {
		h.fail(w, err)
		return
	}

	h.getQuery(w, r)
}

func (h *handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Preferences())
}

type preferencesRequest struct {
	Theme            *models.Theme `json:"theme"`
	ToggleTheme      bool          `json:"toggle_theme"`
	SidebarCollapsed *bool         `json:"sidebar_collapsed"`
}

func (h *handler) setPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if !h.decode(w, r, &req) {
		return
	}

	var err error
	if req.Theme != nil {
		err = h.store.SetTheme(*req.Theme)
	} else if req.ToggleTheme {
		err = h.store.ToggleTheme()
	}
	if err == nil && req.SidebarCollapsed != nil {
		err = h.store.SetSidebarCollapsed(*req.SidebarCollapsed)
	}
	if err != nil {
		h.fail(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.store.Preferences())
}

// Cart

func (h *handler) getCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"lines":   h.store.CartView(),
		"summary": h.store.CartSummary(),
		"open":    h.store.CartOpen(),
	})
}

func (h *handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  *int  `json:"quantity"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	line, err := h.store.AddToCart(req.ProductID, quantity)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, line)
}

func (h *handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.store.ClearCart()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) cartSummary(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.CartSummary())
}

func (h *handler) toggleCartDrawer(w http.ResponseWriter, r *http.Request) {
	open, err := h.store.ToggleCart()
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"open": open})
}

func (h *handler) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.store.SetCartQuantity(id, req.Quantity); err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.store.CartSummary())
}

func (h *handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	h.store.RemoveFromCart(id)
	w.WriteHeader(http.StatusNoContent)
}

// Wishlist

func (h *handler) getWishlist(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.WishlistView())
}

func (h *handler) clearWishlist(w http.ResponseWriter, r *http.Request) {
	h.store.ClearWishlist()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) toggleWishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	in, err := h.store.ToggleWishlist(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"in_wishlist": in})
}

func (h *handler) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	h.store.RemoveFromWishlist(id)
	w.WriteHeader(http.StatusNoContent)
}

// Notifications

func (h *handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	switch {
	case params.Get("unread") == "true":
		respondJSON(w, http.StatusOK, h.store.UnreadNotifications())
	case params.Has("recent"):
		limit, _ := strconv.Atoi(params.Get("recent"))
		respondJSON(w, http.StatusOK, h.store.RecentNotifications(limit))
	default:
		respondJSON(w, http.StatusOK, h.store.Notifications())
	}
}

func (h *handler) clearNotifications(w http.ResponseWriter, r *http.Request) {
	h.store.ClearNotifications()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	h.store.MarkAllNotificationsRead()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if !h.store.MarkNotificationRead(id) {
		respondError(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) dismissNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	h.store.DismissNotification(id)
	w.WriteHeader(http.StatusNoContent)
}

// Orders

func (h *handler) checkout(w http.ResponseWriter, r *http.Request) {
	var customer models.Customer
	if !h.decode(w, r, &customer) {
		return
	}

	order, err := h.store.Checkout(customer)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

func (h *handler) listOrders(w http.ResponseWriter, r *http.Request) {
	if status := r.URL.Query().Get("status"); status != "" {
		orders, err := h.store.OrdersByStatus(status)
		if err != nil {
			h.fail(w, err)
			return
		}
		respondJSON(w, http.StatusOK, orders)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	page, err := h.store.OrdersPage(r.URL.Query().Get("cursor"), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.store.Order(chi.URLParam(r, "number"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.store.UpdateOrderStatus(chi.URLParam(r, "number"), req.Status)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *handler) recentOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	respondJSON(w, http.StatusOK, h.store.RecentOrders(limit))
}

func (h *handler) orderStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.OrderStats())
}

func (h *handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if !h.store.RemoveOrder(chi.URLParam(r, "number")) {
		h.fail(w, store.ErrOrderNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Customers

func (h *handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		respondJSON(w, http.StatusOK, h.store.Customers())
		return
	}

	customers, err := h.store.CustomersByStatus(models.CustomerStatus(status))
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

func (h *handler) vipCustomers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.VIPCustomers())
}

func (h *handler) customerStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.CustomerStats())
}

func (h *handler) topCustomers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	respondJSON(w, http.StatusOK, h.store.TopCustomers(limit))
}

func (h *handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	c, err := h.store.Customer(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

type customerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (h *handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.store.AddCustomer(store.CustomerDraft(req))
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

type customerPatch struct {
	Name          *string                `json:"name"`
	Email         *string                `json:"email"`
	Phone         *string                `json:"phone"`
	Address       *string                `json:"address"`
	Status        *models.CustomerStatus `json:"status"`
	WishlistItems *int                   `json:"wishlist_items"`
}

func (h *handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var req customerPatch
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.store.UpdateCustomer(id, store.CustomerUpdate(req))
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if !h.store.RemoveCustomer(id) {
		h.fail(w, store.ErrCustomerNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail maps store errors to status codes. Rejected user input is also
// surfaced as an error notification.
func (h *handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		h.store.Notify(models.NotificationError, "Invalid input", err.Error())
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrProductNotFound),
		errors.Is(err, store.ErrCartLineNotFound),
		errors.Is(err, store.ErrOrderNotFound),
		errors.Is(err, store.ErrCustomerNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, store.ErrEmptyCart):
		h.store.Notify(models.NotificationError, "Checkout failed", err.Error())
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, store.ErrCustomerExists):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrClosed):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Printf("Unhandled error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *handler) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ID")
		return 0, false
	}
	return id, true
}

func decimalParam(value string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, &store.ValidationError{Field: "price_range", Reason: "not a number: " + value}
	}
	return d, nil
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
