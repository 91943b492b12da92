package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/pusher/pusher-http-go/v5"
	"golang.org/x/exp/slog"

	"go-fairwheel/internal/config"
	"go-fairwheel/internal/event"
	"go-fairwheel/internal/game"
	"go-fairwheel/internal/http-server/handlers/bet/place"
	"go-fairwheel/internal/http-server/handlers/round/bets"
	"go-fairwheel/internal/http-server/handlers/round/current"
	"go-fairwheel/internal/http-server/handlers/round/history"
	"go-fairwheel/internal/http-server/handlers/verify"
	mwlogger "go-fairwheel/internal/http-server/middleware/logger"
	"go-fairwheel/internal/job"
	"go-fairwheel/internal/lib/logger/handler/slogpretty"
	"go-fairwheel/internal/lib/logger/sl"
	"go-fairwheel/internal/repository"
	"go-fairwheel/internal/storage/mysql"
	"go-fairwheel/internal/wallet"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const settleWorkers = 4

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting wheel engine", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	db, err := sql.Open("mysql", cfg.Storage.DSN)
	if err != nil {
		log.Error("failed to open storage", sl.Err(err))
		os.Exit(1)
	}

	if err = db.Ping(); err != nil {
		log.Error("failed to reach storage", sl.Err(err))
		os.Exit(1)
	}

	handler := mysql.New(db)

	seedRepo := repository.NewSeedRepository(*handler)
	roundRepo := repository.NewRoundRepository(*handler)
	betRepo := repository.NewBetRepository(*handler)
	userWallet := wallet.NewMySQLWallet(*handler, log)

	broadcaster, err := setupBroadcaster(log, cfg)
	if err != nil {
		log.Error("failed to connect broadcast transport", sl.Err(err))
		os.Exit(1)
	}

	sequencer := event.NewRoundSequencer(broadcaster)

	jobs := job.NewQueue(64)
	job.NewWorkerPool(settleWorkers, jobs).Start()

	vault := game.NewSeedVault(log, seedRepo, cfg.Game.RevealAfter)
	ledger := game.NewLedger(log, betRepo, userWallet, sequencer, cfg.Game)
	settler := game.NewSettler(log, betRepo, roundRepo, userWallet, cfg.Game.SettleAttempts)
	scheduler := game.NewScheduler(log, roundRepo, vault, ledger, settler, sequencer, jobs, cfg.Game)
	verifier := game.NewVerifier(log, vault)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Get("/rounds/current", current.New(log, scheduler).Get())
	router.Get("/rounds/recent", history.New(log, roundRepo).Get())
	router.Get("/rounds/{uuid}/bets", bets.New(log, roundRepo, betRepo).Get())
	router.Post("/rounds/{uuid}/bets", place.New(log, scheduler, ledger).New())
	router.Get("/rounds/{uuid}/verify", verify.New(log, roundRepo, verifier).Get())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := scheduler.Run(ctx); err != nil {
			log.Error("wheel stopped", sl.Err(err))

			stop()
		}
	}()

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.Timeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", sl.Err(err))
		}
	}()

	log.Info("server started", slog.String("address", cfg.HTTPServer.Address))

	if err = srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server failed", sl.Err(err))
	}

	log.Info("server stopped")
}

func setupBroadcaster(log *slog.Logger, cfg *config.Config) (event.Broadcaster, error) {
	if cfg.Broadcast.Driver == "pusher" {
		client := &pusher.Client{
			AppID:  cfg.Broadcast.PusherAppID,
			Key:    cfg.Broadcast.PusherKey,
			Secret: cfg.Broadcast.PusherSecret,
			Host:   cfg.Broadcast.PusherHost,
		}

		return event.NewPusherClient(log, client), nil
	}

	conn, _, err := websocket.DefaultDialer.Dial(cfg.Broadcast.WSURL, nil)
	if err != nil {
		return nil, err
	}

	return event.NewWSClient(log, conn), nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlogLogger()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlogLogger() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
