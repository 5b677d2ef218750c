package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/triple/internal/domain/trip"
	"github.com/geocoder89/triple/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tripColumns = `id, user_id, title, description, start_date, end_date, destinations, created_at, updated_at`

// TripsRepo scopes every statement by user_id. A trip owned by someone else
// behaves exactly like a missing one.
type TripsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTripsRepo(pool *pgxpool.Pool, prom *observability.Prom) *TripsRepo {
	return &TripsRepo{pool: pool, prom: prom}
}

func (r *TripsRepo) ListByOwner(ctx context.Context, ownerID string) ([]trip.Trip, error) {
	output := make([]trip.Trip, 0)

	err := r.prom.ObserveDB("trips.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+tripColumns+`
			FROM trips
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC`,
			ownerID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTrip(rows)
			if err != nil {
				return err
			}
			output = append(output, t)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}

	return output, nil
}

func (r *TripsRepo) Create(ctx context.Context, nt trip.NewTrip) (trip.Trip, error) {
	var t trip.Trip

	err := r.prom.ObserveDB("trips.create", func() error {
		var err error
		t, err = scanTrip(r.pool.QueryRow(ctx,
			`INSERT INTO trips (user_id, title, description, start_date, end_date, destinations)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+tripColumns,
			nt.UserID, nt.Title, nt.Description, nt.StartDate.Time, nt.EndDate.Time, nt.Destinations,
		))
		return err
	})

	if err != nil {
		return trip.Trip{}, fmt.Errorf("insert trip: %w", err)
	}

	return t, nil
}

func (r *TripsRepo) GetByID(ctx context.Context, ownerID, id string) (trip.Trip, error) {
	var t trip.Trip

	err := r.prom.ObserveDB("trips.get", func() error {
		var err error
		t, err = scanTrip(r.pool.QueryRow(ctx,
			`SELECT `+tripColumns+` FROM trips WHERE id = $1 AND user_id = $2`,
			id, ownerID,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return trip.Trip{}, trip.ErrNotFound
		}
		return trip.Trip{}, fmt.Errorf("get trip: %w", err)
	}

	return t, nil
}

// Update applies the patch in one conditional statement, so the ownership
// check and the write cannot be separated by a concurrent request.
func (r *TripsRepo) Update(ctx context.Context, ownerID, id string, p trip.Patch) (trip.Trip, error) {
	if p.IsEmpty() {
		return trip.Trip{}, trip.ErrEmptyPatch
	}

	sets, args := buildTripUpdate(p)

	args = append(args, id, ownerID)
	query := fmt.Sprintf(
		`UPDATE trips SET %s WHERE id = $%d AND user_id = $%d RETURNING `+tripColumns,
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	var t trip.Trip

	err := r.prom.ObserveDB("trips.update", func() error {
		var err error
		t, err = scanTrip(r.pool.QueryRow(ctx, query, args...))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return trip.Trip{}, trip.ErrNotFound
		}
		return trip.Trip{}, fmt.Errorf("update trip: %w", err)
	}

	return t, nil
}

func (r *TripsRepo) Delete(ctx context.Context, ownerID, id string) error {
	var deleted string

	err := r.prom.ObserveDB("trips.delete", func() error {
		return r.pool.QueryRow(ctx,
			`DELETE FROM trips WHERE id = $1 AND user_id = $2 RETURNING id`,
			id, ownerID,
		).Scan(&deleted)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return trip.ErrNotFound
		}
		return fmt.Errorf("delete trip: %w", err)
	}

	return nil
}

// buildTripUpdate turns a patch into SET clauses with positional args.
// Column names are fixed here; only values travel as parameters.
func buildTripUpdate(p trip.Patch) ([]string, []interface{}) {
	var sets []string
	var args []interface{}

	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if p.Title != nil {
		add("title", *p.Title)
	}

	if p.Description.Set {
		add("description", p.Description.Value)
	}

	if p.StartDate != nil {
		add("start_date", p.StartDate.Time)
	}

	if p.EndDate != nil {
		add("end_date", p.EndDate.Time)
	}

	if p.Destinations != nil {
		add("destinations", *p.Destinations)
	}

	sets = append(sets, "updated_at = NOW()")

	return sets, args
}

func scanTrip(row pgx.Row) (trip.Trip, error) {
	var t trip.Trip
	var start, end time.Time

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&start,
		&end,
		&t.Destinations,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return trip.Trip{}, err
	}

	t.StartDate = trip.DateOf(start)
	t.EndDate = trip.DateOf(end)

	if t.Destinations == nil {
		t.Destinations = []string{}
	}

	return t, nil
}
