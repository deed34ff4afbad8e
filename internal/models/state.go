package models

import "time"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type UIPreferences struct {
	SelectedCategory Category   `json:"selected_category"`
	SortBy           SortKey    `json:"sort_by"`
	PriceRange       PriceRange `json:"price_range"`
	Theme            Theme      `json:"theme"`
	SidebarCollapsed bool       `json:"sidebar_collapsed"`
}

func DefaultUIPreferences() UIPreferences {
	return UIPreferences{
		SelectedCategory: CategoryAll,
		SortBy:           SortFeatured,
		PriceRange:       DefaultPriceRange(),
		Theme:            ThemeLight,
	}
}

// PersistedState is the whitelisted subset of the store written to durable
// storage. Everything else (catalog, notifications, orders, search text) is
// rebuilt on every start.
type PersistedState struct {
	SchemaVersion int           `json:"schema_version"`
	ClientID      string        `json:"client_id,omitempty"`
	Cart          []CartLine    `json:"cart"`
	Wishlist      []Product     `json:"wishlist"`
	UIPreferences UIPreferences `json:"ui_preferences"`
	SavedAt       time.Time     `json:"saved_at"`
}
