package server

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Port          string        `env:"PORT"                      envDefault:"8080"`
	TurnLimit     time.Duration `env:"PROSPECTOR_TURN_LIMIT"     envDefault:"60s"`
	IdleTimeout   time.Duration `env:"PROSPECTOR_IDLE_TIMEOUT"   envDefault:"10m"`
	SweepInterval time.Duration `env:"PROSPECTOR_SWEEP_INTERVAL" envDefault:"10s"`
	MaxRecordings int           `env:"PROSPECTOR_MAX_RECORDINGS" envDefault:"100"`
	MessageRate   float64       `env:"PROSPECTOR_MESSAGE_RATE"   envDefault:"10"`
	MessageBurst  int           `env:"PROSPECTOR_MESSAGE_BURST"  envDefault:"20"`
	WriteTimeout  time.Duration `env:"PROSPECTOR_WRITE_TIMEOUT"  envDefault:"5s"`
	PingInterval  time.Duration `env:"PROSPECTOR_PING_INTERVAL"  envDefault:"30s"`
	SendBuffer    int           `env:"PROSPECTOR_SEND_BUFFER"    envDefault:"16"`
	Seed          int64         `env:"PROSPECTOR_SEED"`
	LogLevel      string        `env:"PROSPECTOR_LOG_LEVEL"      envDefault:"info"`
	LogJSON       bool          `env:"PROSPECTOR_LOG_JSON"`
}

// DefaultConfig is the configuration with every variable unset.
func DefaultConfig() Config {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: map[string]string{}})
	if err != nil {
		panic(err)
	}
	return cfg
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TurnLimit <= 0 {
		return cfg, fmt.Errorf("PROSPECTOR_TURN_LIMIT must be positive, got %v", cfg.TurnLimit)
	}
	if cfg.SweepInterval <= 0 {
		return cfg, fmt.Errorf("PROSPECTOR_SWEEP_INTERVAL must be positive, got %v", cfg.SweepInterval)
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 16
	}
	return cfg, nil
}

// SetupLogging points logrus at the configured level and format.
func SetupLogging(cfg Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(level)
	if cfg.LogJSON {
		log.SetFormatter(&log.JSONFormatter{})
	}
	return nil
}
