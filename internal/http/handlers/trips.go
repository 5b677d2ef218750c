package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/triple/internal/domain/trip"
	"github.com/geocoder89/triple/internal/http/middlewares"
	"github.com/geocoder89/triple/internal/utils"
	"github.com/gin-gonic/gin"
)

// TripsStore is owner scoped: every call takes the caller's id and a trip
// owned by anyone else is reported as trip.ErrNotFound.
type TripsStore interface {
	ListByOwner(ctx context.Context, ownerID string) ([]trip.Trip, error)
	Create(ctx context.Context, nt trip.NewTrip) (trip.Trip, error)
	GetByID(ctx context.Context, ownerID, id string) (trip.Trip, error)
	Update(ctx context.Context, ownerID, id string, p trip.Patch) (trip.Trip, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type TripsHandler struct {
	repo TripsStore
	log  *slog.Logger
}

func NewTripsHandler(repo TripsStore, log *slog.Logger) *TripsHandler {
	return &TripsHandler{repo: repo, log: log}
}

func (h *TripsHandler) List(ctx *gin.Context) {
	ownerID, ok := owner(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	trips, err := h.repo.ListByOwner(cctx, ownerID)

	if err != nil {
		RespondInternal(ctx, h.log, "trips.list", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"trips": trips})
}

func (h *TripsHandler) Create(ctx *gin.Context) {
	ownerID, ok := owner(ctx)
	if !ok {
		return
	}

	var req trip.CreateTripRequest

	if !BindJSON(ctx, &req) {
		return
	}

	nt, err := req.ToNewTrip(ownerID)

	if err != nil {
		// binding already checked the dates, so this is unreachable in practice
		RespondBadRequest(ctx, "Valid start date and end date required")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.repo.Create(cctx, nt)

	if err != nil {
		RespondInternal(ctx, h.log, "trips.create", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"trip": t})
}

func (h *TripsHandler) Get(ctx *gin.Context) {
	ownerID, ok := owner(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Trip not found")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.repo.GetByID(cctx, ownerID, id)

	if err != nil {
		h.respondTripError(ctx, "trips.get", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"trip": t})
}

func (h *TripsHandler) Update(ctx *gin.Context) {
	ownerID, ok := owner(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Trip not found")
		return
	}

	var req trip.UpdateTripRequest

	if !BindJSON(ctx, &req) {
		return
	}

	patch, fieldErrs := req.Patch()

	if len(fieldErrs) > 0 {
		out := make([]FieldError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, FieldError{Field: fe.Field, Rule: fe.Rule, Message: fe.Message})
		}
		RespondValidation(ctx, out)
		return
	}

	if patch.IsEmpty() {
		RespondBadRequest(ctx, "No fields to update")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.repo.Update(cctx, ownerID, id, patch)

	if err != nil {
		h.respondTripError(ctx, "trips.update", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"trip": t})
}

func (h *TripsHandler) Delete(ctx *gin.Context) {
	ownerID, ok := owner(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Trip not found")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.repo.Delete(cctx, ownerID, id); err != nil {
		h.respondTripError(ctx, "trips.delete", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Trip deleted successfully"})
}

func (h *TripsHandler) respondTripError(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, trip.ErrNotFound):
		RespondNotFound(ctx, "Trip not found")
	case errors.Is(err, trip.ErrEmptyPatch):
		RespondBadRequest(ctx, "No fields to update")
	default:
		RespondInternal(ctx, h.log, op, err)
	}
}

// owner reads the authenticated user id. Routes are mounted behind
// RequireAuth, so a miss means the router was wired wrong.
func owner(ctx *gin.Context) (string, bool) {
	id, ok := middlewares.UserIDFromContext(ctx)

	if !ok || id == "" {
		RespondUnauthorized(ctx, "Access token required")
		return "", false
	}

	return id, true
}
