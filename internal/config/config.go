package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"8000" validate:"min=1000,max=65535"`

	RoomTarget int `env:"ROOM_TARGET"  envDefault:"5"  validate:"min=1"`
	MaxNameLen int `env:"MAX_NAME_LEN" envDefault:"32" validate:"min=1,max=32"`

	WriteWait  time.Duration `env:"WRITE_WAIT"  envDefault:"10s" validate:"gt=0"`
	PongWait   time.Duration `env:"PONG_WAIT"   envDefault:"60s" validate:"gt=0"`
	PingPeriod time.Duration `env:"PING_PERIOD" envDefault:"20s" validate:"gt=0,ltfield=PongWait"`

	// 0 disables the stale-connection sweep.
	StaleAfter    time.Duration `env:"STALE_AFTER"    envDefault:"0"   validate:"min=0"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"15s" validate:"gt=0"`

	BoardSyncInterval time.Duration `env:"BOARD_SYNC_INTERVAL" envDefault:"2s"  validate:"gt=0"`
	BoardTTL          time.Duration `env:"BOARD_TTL"           envDefault:"30s" validate:"gtfield=BoardSyncInterval"`

	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort uint16 `env:"REDIS_PORT" envDefault:"6379" validate:"min=1000,max=65535"`

	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"repcount_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"repcount_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"repcount_db"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}
	return parse()
}

func parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
