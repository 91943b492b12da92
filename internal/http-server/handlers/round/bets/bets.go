package bets

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/exp/slog"

	resp "go-fairwheel/internal/lib/api/response"
	"go-fairwheel/internal/lib/logger/sl"
	"go-fairwheel/internal/model"
)

type RoundFinder interface {
	FindRoundByUUID(ctx context.Context, uuidStr string) (*model.Round, error)
}

type BetLister interface {
	BetsByRound(ctx context.Context, roundID int64) ([]model.Bet, error)
}

type Response struct {
	resp.Response
	Bets []model.Bet `json:"bets"`
}

type Handler struct {
	log    *slog.Logger
	rounds RoundFinder
	bets   BetLister
}

func New(log *slog.Logger, rounds RoundFinder, bets BetLister) *Handler {
	return &Handler{
		log:    log,
		rounds: rounds,
		bets:   bets,
	}
}

func (h *Handler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.round.bets.Get"

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

		betList, err := h.bets.BetsByRound(r.Context(), round.ID)
		if err != nil {
			log.Error("failed to load bets", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to load bets", http.StatusInternalServerError))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Bets:     betList,
		})
	}
}
