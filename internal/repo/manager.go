// Package repo picks the storage backend and hands out its repositories.
package repo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/triple/internal/config"
	"github.com/geocoder89/triple/internal/db"
	"github.com/geocoder89/triple/internal/domain/destination"
	"github.com/geocoder89/triple/internal/domain/trip"
	"github.com/geocoder89/triple/internal/domain/user"
	"github.com/geocoder89/triple/internal/observability"
	"github.com/geocoder89/triple/internal/repo/memory"
	"github.com/geocoder89/triple/internal/repo/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Users interface {
	Create(ctx context.Context, email, passwordHash, name string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type Destinations interface {
	List(ctx context.Context, filter destination.ListFilter) ([]destination.Destination, error)
	Search(ctx context.Context, q string) ([]destination.Destination, error)
	GetByID(ctx context.Context, id string) (destination.Destination, error)
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, d destination.Destination) error
}

type Trips interface {
	ListByOwner(ctx context.Context, ownerID string) ([]trip.Trip, error)
	Create(ctx context.Context, nt trip.NewTrip) (trip.Trip, error)
	GetByID(ctx context.Context, ownerID, id string) (trip.Trip, error)
	Update(ctx context.Context, ownerID, id string, p trip.Patch) (trip.Trip, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Manager owns one backend's repositories and its connection lifecycle.
type Manager struct {
	Users        Users
	Destinations Destinations
	Trips        Trips

	pool *pgxpool.Pool
}

// NewMemoryManager is backed by process memory; nothing survives a restart.
func NewMemoryManager() *Manager {
	return &Manager{
		Users:        memory.NewUsersRepo(),
		Destinations: memory.NewDestinationsRepo(),
		Trips:        memory.NewTripsRepo(),
	}
}

func NewPostgresManager(pool *pgxpool.Pool, prom *observability.Prom) *Manager {
	return &Manager{
		Users:        postgres.NewUsersRepo(pool, prom),
		Destinations: postgres.NewDestinationsRepo(pool, prom),
		Trips:        postgres.NewTripsRepo(pool, prom),
		pool:         pool,
	}
}

// Open builds the manager selected by cfg.Storage, running migrations and
// the catalog seed when they are enabled.
func Open(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (*Manager, error) {
	var m *Manager

	switch cfg.Storage {
	case config.StorageMemory:
		m = NewMemoryManager()

	case config.StoragePostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			return nil, err
		}

		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			log.Info("migrations applied")
		}

		m = NewPostgresManager(pool, prom)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	if cfg.SeedCatalog {
		n, err := db.SeedCatalog(ctx, m.Destinations)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		if n > 0 {
			log.Info("catalog seeded", "destinations", n)
		}
	}

	return m, nil
}

// Ping reports storage reachability; memory is always reachable.
func (m *Manager) Ping(ctx context.Context) error {
	if m.pool == nil {
		return nil
	}
	return m.pool.Ping(ctx)
}

func (m *Manager) Close() {
	if m.pool != nil {
		m.pool.Close()
	}
}
