package store

import (
	"fmt"

	"github.com/safar/storefront/internal/models"
)

// Wishlist is a set of product snapshots keyed by id, listed in insertion
// order.
type Wishlist struct {
	items    []models.Product
	index    map[int64]struct{}
	notifier Notifier
}

func NewWishlist(saved []models.Product, notifier Notifier) (*Wishlist, []models.Product) {
	w := &Wishlist{
		index:    make(map[int64]struct{}, len(saved)),
		notifier: notifier,
	}

	var dropped []models.Product
	for _, p := range saved {
		if err := validateSnapshot(p); err != nil || w.Contains(p.ID) {
			dropped = append(dropped, p)
			continue
		}
		w.insert(p)
	}
	return w, dropped
}

// Add inserts p and reports whether it was newly added. Adding a product that
// is already present changes nothing and emits nothing.
func (w *Wishlist) Add(p models.Product) (bool, error) {
	if err := validateSnapshot(p); err != nil {
		return false, err
	}
	if w.Contains(p.ID) {
		return false, nil
	}

	w.insert(p)
	notify(w.notifier, models.NotificationSuccess, fmt.Sprintf("%s added to wishlist!", p.Name))
	return true, nil
}

func (w *Wishlist) Remove(productID int64) bool {
	if !w.Contains(productID) {
		return false
	}

	var name string
	for i, p := range w.items {
		if p.ID == productID {
			name = p.Name
			w.items = append(w.items[:i], w.items[i+1:]...)
			break
		}
	}
	delete(w.index, productID)

	notify(w.notifier, models.NotificationInfo, fmt.Sprintf("%s removed from wishlist", name))
	return true
}

// Toggle removes p when present and adds it otherwise. It reports whether p
// is in the wishlist afterwards.
func (w *Wishlist) Toggle(p models.Product) (bool, error) {
	if w.Contains(p.ID) {
		w.Remove(p.ID)
		return false, nil
	}
	if _, err := w.Add(p); err != nil {
		return false, err
	}
	return true, nil
}

func (w *Wishlist) Contains(productID int64) bool {
	_, ok := w.index[productID]
	return ok
}

func (w *Wishlist) Get(productID int64) (models.Product, bool) {
	if !w.Contains(productID) {
		return models.Product{}, false
	}
	for _, p := range w.items {
		if p.ID == productID {
			return p.Clone(), true
		}
	}
	return models.Product{}, false
}

func (w *Wishlist) Clear() {
	w.items = nil
	w.index = make(map[int64]struct{})
}

func (w *Wishlist) Items() []models.Product {
	out := make([]models.Product, len(w.items))
	for i, p := range w.items {
		out[i] = p.Clone()
	}
	return out
}

func (w *Wishlist) Len() int {
	return len(w.items)
}

func (w *Wishlist) insert(p models.Product) {
	w.items = append(w.items, p.Clone())
	w.index[p.ID] = struct{}{}
}
