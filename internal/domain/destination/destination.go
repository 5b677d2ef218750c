package destination

import (
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("destination not found")

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Destination is a catalog entry. The API never writes these.
type Destination struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Rating      *float64  `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListFilter with pointers if optional, it will be nil
type ListFilter struct {
	Category *string
	Limit    int
	Offset   int
}

// ListQuery is bound from the query string of GET /api/destinations.
type ListQuery struct {
	Limit    *int   `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset   *int   `form:"offset" binding:"omitempty,min=0"`
	Category string `form:"category" binding:"omitempty,max=80"`
}

// Filter applies defaults. The category is trimmed here and a blank one means
// no filter, so the repo and the cache key see the same value.
func (q ListQuery) Filter() ListFilter {
	f := ListFilter{Limit: DefaultLimit}

	if q.Limit != nil {
		f.Limit = *q.Limit
	}

	if q.Offset != nil {
		f.Offset = *q.Offset
	}

	if c := strings.TrimSpace(q.Category); c != "" {
		f.Category = &c
	}

	return f
}
