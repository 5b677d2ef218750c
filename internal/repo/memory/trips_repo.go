package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/triple/internal/domain/trip"
	"github.com/google/uuid"
)

type TripsRepo struct {
	mu    sync.RWMutex
	items map[string]trip.Trip
	now   func() time.Time
	last  time.Time // latest CreatedAt handed out
}

func NewTripsRepo() *TripsRepo {
	return &TripsRepo{
		items: make(map[string]trip.Trip),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *TripsRepo) ListByOwner(_ context.Context, ownerID string) ([]trip.Trip, error) {
	r.mu.RLock()
	out := make([]trip.Trip, 0)
	for _, t := range r.items {
		if t.UserID == ownerID {
			out = append(out, cloneTrip(t))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (r *TripsRepo) Create(_ context.Context, nt trip.NewTrip) (trip.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// creation order must survive equal clock readings
	now := r.now().Truncate(time.Microsecond)
	if !now.After(r.last) {
		now = r.last.Add(time.Microsecond)
	}
	r.last = now

	t := trip.Trip{
		ID:           uuid.NewString(),
		UserID:       nt.UserID,
		Title:        nt.Title,
		Description:  nt.Description,
		StartDate:    nt.StartDate,
		EndDate:      nt.EndDate,
		Destinations: append([]string{}, nt.Destinations...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.items[t.ID] = t

	return cloneTrip(t), nil
}

func (r *TripsRepo) GetByID(_ context.Context, ownerID, id string) (trip.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[id]
	if !ok || t.UserID != ownerID {
		return trip.Trip{}, trip.ErrNotFound
	}

	return cloneTrip(t), nil
}

func (r *TripsRepo) Update(_ context.Context, ownerID, id string, p trip.Patch) (trip.Trip, error) {
	if p.IsEmpty() {
		return trip.Trip{}, trip.ErrEmptyPatch
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok || t.UserID != ownerID {
		return trip.Trip{}, trip.ErrNotFound
	}

	t = p.Apply(t, r.now())
	r.items[id] = t

	return cloneTrip(t), nil
}

func (r *TripsRepo) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok || t.UserID != ownerID {
		return trip.ErrNotFound
	}

	delete(r.items, id)
	return nil
}

func cloneTrip(t trip.Trip) trip.Trip {
	t.Destinations = append([]string{}, t.Destinations...)
	if t.Description != nil {
		d := *t.Description
		t.Description = &d
	}
	return t
}
