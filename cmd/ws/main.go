package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"

	"go-fairwheel/internal/config"
	"go-fairwheel/internal/lib/logger/handler/slogpretty"
	"go-fairwheel/internal/lib/logger/sl"
	"go-fairwheel/internal/ws/handler"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting broadcast hub", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	hub := handler.NewHub(log)
	hub.RunServer()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleConnection)

	srv := &http.Server{
		Addr:        cfg.WSServer.Address,
		Handler:     mux,
		IdleTimeout: cfg.WSServer.IdleTimeout,
	}

	log.Info("hub started", slog.String("address", cfg.WSServer.Address))

	if err := srv.ListenAndServe(); err != nil {
		log.Error("hub failed", sl.Err(err))
	}

	log.Info("hub stopped")
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
