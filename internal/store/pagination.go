package store

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/safar/storefront/internal/models"
)

type CursorPage struct {
	Items      []models.Order `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

type OffsetPage struct {
	Items      []models.Product `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

type OrderCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        int64     `json:"id"`
}

func EncodeCursor(cursor OrderCursor) string {
	data, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor returns ok=false for the empty cursor, meaning "start from
// the newest order".
func DecodeCursor(encoded string) (cursor OrderCursor, ok bool, err error) {
	if encoded == "" {
		return cursor, false, nil
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return cursor, false, invalid("cursor", "malformed cursor")
	}

	if err := json.Unmarshal(data, &cursor); err != nil {
		return cursor, false, invalid("cursor", "malformed cursor")
	}
	return cursor, true, nil
}

func (c OrderCursor) after(o models.Order) bool {
	if o.CreatedAt.Equal(c.CreatedAt) {
		return o.ID < c.ID
	}
	return o.CreatedAt.Before(c.CreatedAt)
}

func paginate(products []models.Product, page, pageSize int) *OffsetPage {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	total := len(products)
	offset := (page - 1) * pageSize
	if offset > total {
		offset = total
	}
	end := offset + pageSize
	if end > total {
		end = total
	}

	totalPages := total / pageSize
	if total%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage{
		Items:      products[offset:end],
		Total:      int64(total),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
