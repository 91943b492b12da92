package current

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/exp/slog"

	"go-fairwheel/internal/game"
	resp "go-fairwheel/internal/lib/api/response"
)

type Snapshotter interface {
	Snapshot() *game.RoundSnapshot
}

type Response struct {
	resp.Response
	Round *game.RoundSnapshot `json:"round"`
}

type Handler struct {
	log       *slog.Logger
	scheduler Snapshotter
}

func New(log *slog.Logger, scheduler Snapshotter) *Handler {
	return &Handler{
		log:       log,
		scheduler: scheduler,
	}
}

// Get serves the phase-redacted view of the round in play. While betting
// is open the result fields are absent; the commitment hashes are always
// included.
func (h *Handler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.round.current.Get"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		snapshot := h.scheduler.Snapshot()
		if snapshot == nil {
			log.Info("no round in play")

			render.JSON(w, r, resp.Error("no round in play", http.StatusNotFound))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Round:    snapshot,
		})
	}
}
