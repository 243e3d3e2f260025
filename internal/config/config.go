package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gorm.io/gorm/logger"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"8008"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	// CORSAllowedOrigins is a comma separated list.
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type AuthEnv struct {
	JWTSecret   string        `envconfig:"JWT_SECRET"`
	JWTIssuer   string        `envconfig:"JWT_ISSUER" default:"taskdesk-api"`
	JWTAudience string        `envconfig:"JWT_AUDIENCE" default:"taskdesk"`
	JWTTTL      time.Duration `envconfig:"JWT_TTL" default:"24h"`
}

type StorageEnv struct {
	Type       string `envconfig:"STORAGE_TYPE" default:"sqlite"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"taskdesk.db"`
	// Mongo settings (used when Type == "mongo")
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"taskdesk"`
}

type Env struct {
	BaseEnv
	AuthEnv
	StorageEnv
}

const namespace = "TASKDESK"

// localJWTSecret is only accepted when ENV=local.
const localJWTSecret = "taskdesk-local-secret"

// LoadEnv reads .env (if present) and then the process environment.
func LoadEnv() (*Env, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if err := env.validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

func (e *Env) validate() error {
	switch e.StorageEnv.Type {
	case "sqlite", "mongo":
	default:
		return fmt.Errorf("unknown storage type %q", e.StorageEnv.Type)
	}
	if e.JWTSecret == "" {
		if e.Env != "local" {
			return errors.New("TASKDESK_JWT_SECRET is required outside local")
		}
		e.JWTSecret = localJWTSecret
	}
	return nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

// GormLogLevel keeps SQL statement logging for debug runs only.
func (e *BaseEnv) GormLogLevel() logger.LogLevel {
	if e.SlogLevel() <= slog.LevelDebug {
		return logger.Info
	}
	return logger.Warn
}

func (e *BaseEnv) Addr() string {
	return e.HTTPHost + ":" + e.HTTPPort
}
