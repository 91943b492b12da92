package history

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/patrickmn/go-cache"
	"golang.org/x/exp/slog"

	resp "go-fairwheel/internal/lib/api/response"
	"go-fairwheel/internal/lib/logger/sl"
	"go-fairwheel/internal/model"
)

const (
	defaultLimit  = 50
	maxLimit      = 100
	cacheTTL      = 2 * time.Second
	cacheSweepTTL = time.Minute
)

type ResultLister interface {
	RecentResults(ctx context.Context, limit int) ([]model.RoundSummary, error)
}

type Response struct {
	resp.Response
	Results []model.RoundSummary `json:"results"`
}

// Handler serves the public result history. Rows are immutable once a
// round completes, so a short cache in front of the repository absorbs
// the polling clients between rounds.
type Handler struct {
	log    *slog.Logger
	rounds ResultLister
	cache  *cache.Cache
}

func New(log *slog.Logger, rounds ResultLister) *Handler {
	return &Handler{
		log:    log,
		rounds: rounds,
		cache:  cache.New(cacheTTL, cacheSweepTTL),
	}
}

func (h *Handler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.round.history.Get"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		limit := parseLimit(r.URL.Query().Get("limit"))
		cacheKey := "recent_results:" + strconv.Itoa(limit)

		if cached, found := h.cache.Get(cacheKey); found {
			render.JSON(w, r, Response{
				Response: resp.OK(),
				Results:  cached.([]model.RoundSummary),
			})

			return
		}

		results, err := h.rounds.RecentResults(r.Context(), limit)
		if err != nil {
			log.Error("failed to load recent results", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to load recent results", http.StatusInternalServerError))

			return
		}

		h.cache.Set(cacheKey, results, cache.DefaultExpiration)

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Results:  results,
		})
	}
}

// parseLimit clamps the client-supplied page size; anything unparseable
// falls back to the default.
func parseLimit(raw string) int {
	if raw == "" {
		return defaultLimit
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return defaultLimit
	}

	if limit > maxLimit {
		return maxLimit
	}

	return limit
}
