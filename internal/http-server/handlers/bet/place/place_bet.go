package place

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"

	"go-fairwheel/internal/config"
	"go-fairwheel/internal/game"
	resp "go-fairwheel/internal/lib/api/response"
	"go-fairwheel/internal/lib/logger/sl"
	"go-fairwheel/internal/model"
)

type Request struct {
	UserID int64  `json:"user_id" validate:"required,min=1"`
	Color  string `json:"color" validate:"required,oneof=green red black"`
	Amount string `json:"amount" validate:"required"`
}

type Response struct {
	resp.Response
	Bet *model.Bet `json:"bet,omitempty"`
}

type CurrentRound interface {
	Current() *model.Round
}

type BetPlacer interface {
	PlaceBet(
		ctx context.Context,
		userID int64,
		round *model.Round,
		color config.Color,
		amount decimal.Decimal,
		now time.Time) (*model.Bet, error)
}

type Handler struct {
	log       *slog.Logger
	validator *validator.Validate
	scheduler CurrentRound
	ledger    BetPlacer
}

func New(log *slog.Logger, scheduler CurrentRound, ledger BetPlacer) *Handler {
	return &Handler{
		log:       log,
		validator: validator.New(),
		scheduler: scheduler,
		ledger:    ledger,
	}
}

// New admits a bet on the round addressed by the URL. Bets are only valid
// against the round in play; a stale UUID is a state conflict, not a 404,
// so clients can tell "round moved on" from "no such round".
func (h *Handler) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bet.place.New"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		if err := h.validator.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			render.JSON(w, r, resp.Rejection(string(game.ReasonValidation),
				"amount is not a valid decimal", http.StatusBadRequest))

			return
		}

		round := h.scheduler.Current()

		uuidStr := chi.URLParam(r, "uuid")
		if round == nil || round.UUID.String() != uuidStr {
			render.JSON(w, r, resp.Rejection(string(game.ReasonStateConflict),
				"round is no longer accepting bets", http.StatusConflict))

			return
		}

		bet, err := h.ledger.PlaceBet(r.Context(), req.UserID, round, config.Color(req.Color), amount, time.Now())
		if err != nil {
			reason, ok := game.ReasonOf(err)
			if !ok {
				log.Error("bet admission failed", sl.Err(err))

				render.JSON(w, r, resp.Rejection(string(game.ReasonTransient),
					"bet could not be processed", http.StatusServiceUnavailable))

				return
			}

			log.Info("bet rejected",
				slog.Int64("user_id", req.UserID),
				slog.String("reason", string(reason)))

			render.JSON(w, r, resp.Rejection(string(reason), err.Error(), statusFor(reason)))

			return
		}

		log.Info("bet admitted",
			slog.Int64("bet_id", bet.ID),
			slog.Int64("user_id", req.UserID),
			slog.String("color", req.Color))

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Bet:      bet,
		})
	}
}

func statusFor(reason game.Reason) int {
	switch reason {
	case game.ReasonValidation:
		return http.StatusBadRequest
	case game.ReasonStateConflict:
		return http.StatusConflict
	case game.ReasonInsufficientFunds:
		return http.StatusPaymentRequired
	case game.ReasonRateLimit:
		return http.StatusTooManyRequests
	case game.ReasonIntegrity:
		return http.StatusInternalServerError
	default:
		return http.StatusServiceUnavailable
	}
}
