package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/triple/internal/cache"
	"github.com/geocoder89/triple/internal/domain/destination"
	"github.com/geocoder89/triple/internal/observability"
	"github.com/geocoder89/triple/internal/utils"
	"github.com/gin-gonic/gin"
)

type DestinationsReader interface {
	List(ctx context.Context, filter destination.ListFilter) ([]destination.Destination, error)
	Search(ctx context.Context, q string) ([]destination.Destination, error)
	GetByID(ctx context.Context, id string) (destination.Destination, error)
}

type DestinationsHandler struct {
	repo  DestinationsReader
	cache cache.Store
	prom  *observability.Prom
	log   *slog.Logger
}

func NewDestinationsHandler(repo DestinationsReader, store cache.Store, prom *observability.Prom, log *slog.Logger) *DestinationsHandler {
	if store == nil {
		store = cache.Noop{}
	}

	return &DestinationsHandler{
		repo:  repo,
		cache: store,
		prom:  prom,
		log:   log,
	}
}

func (h *DestinationsHandler) List(ctx *gin.Context) {
	var q destination.ListQuery

	if !BindQuery(ctx, &q) {
		return
	}

	filter := q.Filter()
	key := utils.BuildDestinationsListCacheKey(filter.Limit, filter.Offset, filter.Category)

	h.serveCached(ctx, key, "destinations.list", func(cctx context.Context) (interface{}, error) {
		items, err := h.repo.List(cctx, filter)
		if err != nil {
			return nil, err
		}
		return gin.H{"destinations": items}, nil
	})
}

func (h *DestinationsHandler) Search(ctx *gin.Context) {
	q := strings.TrimSpace(ctx.Query("q"))

	if q == "" {
		RespondBadRequest(ctx, "Search query is required")
		return
	}

	if len(q) > 200 {
		RespondBadRequest(ctx, "Search query is too long")
		return
	}

	h.serveCached(ctx, utils.BuildDestinationsSearchCacheKey(q), "destinations.search", func(cctx context.Context) (interface{}, error) {
		items, err := h.repo.Search(cctx, q)
		if err != nil {
			return nil, err
		}
		return gin.H{"destinations": items}, nil
	})
}

func (h *DestinationsHandler) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	// ids are UUIDs; anything else cannot exist
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Destination not found")
		return
	}

	h.serveCached(ctx, utils.BuildDestinationCacheKey(id), "destinations.get", func(cctx context.Context) (interface{}, error) {
		d, err := h.repo.GetByID(cctx, id)
		if err != nil {
			return nil, err
		}
		return gin.H{"destination": d}, nil
	})
}

// serveCached answers from the cache when it can, otherwise loads, encodes and
// stores the payload. Errors are never cached.
func (h *DestinationsHandler) serveCached(ctx *gin.Context, key, op string, load func(context.Context) (interface{}, error)) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if body, ok := h.cache.Get(cctx, key); ok {
		h.prom.ObserveCache(true)
		ctx.Header("X-Cache", "HIT")
		RespondJSONBytesWithETag(ctx, http.StatusOK, body)
		return
	}

	h.prom.ObserveCache(false)

	payload, err := load(cctx)

	if err != nil {
		if errors.Is(err, destination.ErrNotFound) {
			RespondNotFound(ctx, "Destination not found")
			return
		}

		RespondInternal(ctx, h.log, op, err)
		return
	}

	body, err := json.Marshal(payload)

	if err != nil {
		RespondInternal(ctx, h.log, op+".encode", err)
		return
	}

	h.cache.Set(cctx, key, body)

	ctx.Header("X-Cache", "MISS")
	RespondJSONBytesWithETag(ctx, http.StatusOK, body)
}
