package handlers_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/geocoder89/triple/internal/domain/destination"
	"github.com/geocoder89/triple/internal/domain/trip"
	"github.com/geocoder89/triple/internal/domain/user"
	"github.com/geocoder89/triple/internal/http/handlers"
	"github.com/geocoder89/triple/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
	handlers.RegisterValidators()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Fake implementations of the handler interfaces

type fakeCredentials struct {
	registerFn     func(ctx context.Context, email, password, name string) (user.User, error)
	authenticateFn func(ctx context.Context, email, password string) (user.User, error)
	findByIDFn     func(ctx context.Context, id string) (user.User, error)
}

func (f *fakeCredentials) Register(ctx context.Context, email, password, name string) (user.User, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, email, password, name)
	}
	return user.User{}, nil
}

func (f *fakeCredentials) Authenticate(ctx context.Context, email, password string) (user.User, error) {
	if f.authenticateFn != nil {
		return f.authenticateFn(ctx, email, password)
	}
	return user.User{}, nil
}

func (f *fakeCredentials) FindByID(ctx context.Context, id string) (user.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return user.User{}, user.ErrNotFound
}

type fakeIssuer struct {
	token string
	err   error
}

func (f fakeIssuer) Issue(userID, email string) (string, error) {
	return f.token, f.err
}

type fakeDestinationsRepo struct {
	listFn   func(ctx context.Context, filter destination.ListFilter) ([]destination.Destination, error)
	searchFn func(ctx context.Context, q string) ([]destination.Destination, error)
	getFn    func(ctx context.Context, id string) (destination.Destination, error)
	calls    int
}

func (f *fakeDestinationsRepo) List(ctx context.Context, filter destination.ListFilter) ([]destination.Destination, error) {
	f.calls++
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return []destination.Destination{}, nil
}

func (f *fakeDestinationsRepo) Search(ctx context.Context, q string) ([]destination.Destination, error) {
	f.calls++
	if f.searchFn != nil {
		return f.searchFn(ctx, q)
	}
	return []destination.Destination{}, nil
}

func (f *fakeDestinationsRepo) GetByID(ctx context.Context, id string) (destination.Destination, error) {
	f.calls++
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return destination.Destination{}, destination.ErrNotFound
}

type fakeTripsRepo struct {
	listFn   func(ctx context.Context, ownerID string) ([]trip.Trip, error)
	createFn func(ctx context.Context, nt trip.NewTrip) (trip.Trip, error)
	getFn    func(ctx context.Context, ownerID, id string) (trip.Trip, error)
	updateFn func(ctx context.Context, ownerID, id string, p trip.Patch) (trip.Trip, error)
	deleteFn func(ctx context.Context, ownerID, id string) error
}

func (f *fakeTripsRepo) ListByOwner(ctx context.Context, ownerID string) ([]trip.Trip, error) {
	if f.listFn != nil {
		return f.listFn(ctx, ownerID)
	}
	return []trip.Trip{}, nil
}

func (f *fakeTripsRepo) Create(ctx context.Context, nt trip.NewTrip) (trip.Trip, error) {
	if f.createFn != nil {
		return f.createFn(ctx, nt)
	}
	return trip.Trip{}, nil
}

func (f *fakeTripsRepo) GetByID(ctx context.Context, ownerID, id string) (trip.Trip, error) {
	if f.getFn != nil {
		return f.getFn(ctx, ownerID, id)
	}
	return trip.Trip{}, trip.ErrNotFound
}

func (f *fakeTripsRepo) Update(ctx context.Context, ownerID, id string, p trip.Patch) (trip.Trip, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, ownerID, id, p)
	}
	return trip.Trip{}, trip.ErrNotFound
}

func (f *fakeTripsRepo) Delete(ctx context.Context, ownerID, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, ownerID, id)
	}
	return trip.ErrNotFound
}

// small helper which returns a gin engine with one handler mounted

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

// setupAuthedRouter mounts h behind a stub that marks the request as userID's.
func setupAuthedRouter(method, path, userID string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, func(ctx *gin.Context) {
		ctx.Set(middlewares.CtxUserID, userID)
		ctx.Next()
	}, h)

	return r
}
