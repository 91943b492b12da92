package verify

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/exp/slog"

	"go-fairwheel/internal/game"
	resp "go-fairwheel/internal/lib/api/response"
	"go-fairwheel/internal/lib/logger/sl"
	"go-fairwheel/internal/model"
)

type RoundFinder interface {
	FindRoundByUUID(ctx context.Context, uuidStr string) (*model.Round, error)
}

type Response struct {
	resp.Response
	Verification *game.VerificationResult `json:"verification"`
}

type Handler struct {
	log      *slog.Logger
	rounds   RoundFinder
	verifier *game.Verifier
}

func New(log *slog.Logger, rounds RoundFinder, verifier *game.Verifier) *Handler {
	return &Handler{
		log:      log,
		rounds:   rounds,
		verifier: verifier,
	}
}

// Get recomputes a round's outcome from its seed material. Before the
// seed's reveal window passes the response carries only the commitment
// hashes.
func (h *Handler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verify.Get"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		uuidStr := chi.URLParam(r, "uuid")

		round, err := h.rounds.FindRoundByUUID(r.Context(), uuidStr)
		if err != nil {
			log.Error("failed to find round", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to find round", http.StatusInternalServerError))

			return
		}

		if round == nil {
			render.JSON(w, r, resp.Error("round not found", http.StatusNotFound))

			return
		}

		verification, err := h.verifier.Verify(r.Context(), round, time.Now())
		if err != nil {
			log.Error("verification failed", sl.Err(err))

			render.JSON(w, r, resp.Error("verification failed", http.StatusInternalServerError))

			return
		}

		render.JSON(w, r, Response{
			Response:     resp.OK(),
			Verification: verification,
		})
	}
}
