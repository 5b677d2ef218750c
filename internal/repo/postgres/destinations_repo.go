package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/triple/internal/domain/destination"
	"github.com/geocoder89/triple/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const destinationColumns = `id, name, COALESCE(description, ''), COALESCE(location, ''), COALESCE(category, ''),
	COALESCE(image_url, ''), latitude, longitude, rating, created_at`

type DestinationsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

// constructor function

func NewDestinationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *DestinationsRepo {
	return &DestinationsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *DestinationsRepo) List(ctx context.Context, filter destination.ListFilter) ([]destination.Destination, error) {
	query := `SELECT ` + destinationColumns + ` FROM destinations`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.Category != nil {
		conds = append(conds, fmt.Sprintf("category = $%d", argsPosition))
		args = append(args, *filter.Category)
		argsPosition++
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// id breaks created_at ties so offset pages never overlap
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, filter.Limit, filter.Offset)

	var out []destination.Destination

	err := r.prom.ObserveDB("destinations.list", func() error {
		var err error
		out, err = r.query(ctx, query, args...)
		return err
	})

	return out, err
}

// Search matches q as a case-insensitive substring of name, description or
// location. LIKE wildcards in q are matched literally.
func (r *DestinationsRepo) Search(ctx context.Context, q string) ([]destination.Destination, error) {
	pattern := "%" + escapeLike(q) + "%"

	var out []destination.Destination

	err := r.prom.ObserveDB("destinations.search", func() error {
		var err error
		out, err = r.query(ctx,
			`SELECT `+destinationColumns+`
			FROM destinations
			WHERE name ILIKE $1 ESCAPE '\' OR description ILIKE $1 ESCAPE '\' OR location ILIKE $1 ESCAPE '\'
			ORDER BY created_at DESC, id DESC`,
			pattern,
		)
		return err
	})

	return out, err
}

func (r *DestinationsRepo) GetByID(ctx context.Context, id string) (destination.Destination, error) {
	var d destination.Destination

	err := r.prom.ObserveDB("destinations.get", func() error {
		return scanDestination(r.pool.QueryRow(ctx, `SELECT `+destinationColumns+` FROM destinations WHERE id = $1`, id), &d)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return destination.Destination{}, destination.ErrNotFound
		}
		return destination.Destination{}, fmt.Errorf("get destination: %w", err)
	}

	return d, nil
}

// Insert is used by the dev seed; the API never writes destinations.
func (r *DestinationsRepo) Insert(ctx context.Context, d destination.Destination) error {
	return r.prom.ObserveDB("destinations.insert", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO destinations (name, description, location, category, image_url, latitude, longitude, rating)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			d.Name, d.Description, d.Location, d.Category, d.ImageURL, d.Latitude, d.Longitude, d.Rating,
		)
		return err
	})
}

func (r *DestinationsRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.prom.ObserveDB("destinations.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM destinations`).Scan(&n)
	})
	return n, err
}

func (r *DestinationsRepo) query(ctx context.Context, query string, args ...interface{}) ([]destination.Destination, error) {
	rows, err := r.pool.Query(ctx, query, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	output := make([]destination.Destination, 0)

	for rows.Next() {
		var d destination.Destination

		if err := scanDestination(rows, &d); err != nil {
			return nil, err
		}

		output = append(output, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return output, nil
}

func scanDestination(row pgx.Row, d *destination.Destination) error {
	return row.Scan(
		&d.ID,
		&d.Name,
		&d.Description,
		&d.Location,
		&d.Category,
		&d.ImageURL,
		&d.Latitude,
		&d.Longitude,
		&d.Rating,
		&d.CreatedAt,
	)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
