package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/triple/internal/domain/destination"
	"github.com/google/uuid"
)

type DestinationsRepo struct {
	mu    sync.RWMutex
	items []destination.Destination // kept sorted newest first
}

func NewDestinationsRepo() *DestinationsRepo {
	return &DestinationsRepo{}
}

func (r *DestinationsRepo) Insert(_ context.Context, d destination.Destination) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, d)
	sort.SliceStable(r.items, func(i, j int) bool {
		if r.items[i].CreatedAt.Equal(r.items[j].CreatedAt) {
			return r.items[i].ID > r.items[j].ID
		}
		return r.items[i].CreatedAt.After(r.items[j].CreatedAt)
	})

	return nil
}

func (r *DestinationsRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

func (r *DestinationsRepo) List(_ context.Context, filter destination.ListFilter) ([]destination.Destination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]destination.Destination, 0)
	for _, d := range r.items {
		if filter.Category != nil && d.Category != *filter.Category {
			continue
		}
		matched = append(matched, d)
	}

	if filter.Offset >= len(matched) {
		return []destination.Destination{}, nil
	}

	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}

	return append([]destination.Destination{}, matched[filter.Offset:end]...), nil
}

func (r *DestinationsRepo) Search(_ context.Context, q string) ([]destination.Destination, error) {
	needle := strings.ToLower(q)

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]destination.Destination, 0)
	for _, d := range r.items {
		if strings.Contains(strings.ToLower(d.Name), needle) ||
			strings.Contains(strings.ToLower(d.Description), needle) ||
			strings.Contains(strings.ToLower(d.Location), needle) {
			out = append(out, d)
		}
	}

	return out, nil
}

func (r *DestinationsRepo) GetByID(_ context.Context, id string) (destination.Destination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.items {
		if d.ID == id {
			return d, nil
		}
	}

	return destination.Destination{}, destination.ErrNotFound
}
