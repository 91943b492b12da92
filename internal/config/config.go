package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	WSServer   `yaml:"ws_server"`
	Storage    `yaml:"storage"`
	Game       `yaml:"game"`
	Broadcast  `yaml:"broadcast"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type WSServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8081"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Storage struct {
	DSN string `yaml:"dsn" env:"STORAGE_DSN" env-required:"true"`
}

type Game struct {
	BettingDuration  time.Duration `yaml:"betting_duration" env-default:"15s"`
	SpinDuration     time.Duration `yaml:"spin_duration" env-default:"3s"`
	TickInterval     time.Duration `yaml:"tick_interval" env-default:"100ms"`
	MinBet           string        `yaml:"min_bet" env-default:"1"`
	MaxBet           string        `yaml:"max_bet" env-default:"1000"`
	MinBetInterval   time.Duration `yaml:"min_bet_interval" env-default:"1s"`
	MaxBetsPerRound  int           `yaml:"max_bets_per_round" env-default:"10"`
	MaxTotalPerRound string        `yaml:"max_total_per_round" env-default:"5000"`
	RevealAfter      time.Duration `yaml:"reveal_after" env-default:"24h"`
	SettleAttempts   int           `yaml:"settle_attempts" env-default:"5"`
	CallTimeout      time.Duration `yaml:"call_timeout" env-default:"2s"`
}

type Broadcast struct {
	Driver       string `yaml:"driver" env-default:"ws"`
	WSURL        string `yaml:"ws_url" env-default:"ws://localhost:8081/ws?room=wheel"`
	PusherAppID  string `yaml:"pusher_app_id" env:"PUSHER_APP_ID"`
	PusherKey    string `yaml:"pusher_key" env:"PUSHER_KEY"`
	PusherSecret string `yaml:"pusher_secret" env:"PUSHER_SECRET"`
	PusherHost   string `yaml:"pusher_host"`
}

func (g Game) MinBetAmount() decimal.Decimal {
	return decimal.RequireFromString(g.MinBet)
}

func (g Game) MaxBetAmount() decimal.Decimal {
	return decimal.RequireFromString(g.MaxBet)
}

func (g Game) MaxTotalPerRoundAmount() decimal.Decimal {
	return decimal.RequireFromString(g.MaxTotalPerRound)
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return &cfg
}
