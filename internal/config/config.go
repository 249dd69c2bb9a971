package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreDynamo   = "dynamodb"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`

	BackendURL       string        `env:"WIDGET_BACKEND_URL,required"`
	BackendTimeout   time.Duration `env:"WIDGET_BACKEND_TIMEOUT" envDefault:"60s"`
	AcceptLocaleEcho bool          `env:"WIDGET_ACCEPT_LOCALE_ECHO" envDefault:"true"`
	MaxMessages      int           `env:"WIDGET_MAX_MESSAGES" envDefault:"100"`

	PageURL      string `env:"WIDGET_PAGE_URL"`
	PageLanguage string `env:"WIDGET_PAGE_LANGUAGE"`

	EphemeralStore   string        `env:"WIDGET_EPHEMERAL_STORE" envDefault:"memory"`
	DurableStore     string        `env:"WIDGET_DURABLE_STORE" envDefault:"memory"`
	EphemeralTTL     time.Duration `env:"WIDGET_EPHEMERAL_TTL" envDefault:"30m"`
	DurableTTL       time.Duration `env:"WIDGET_DURABLE_TTL" envDefault:"24h"`
	MemoryQuotaBytes int           `env:"WIDGET_MEMORY_QUOTA_BYTES" envDefault:"5242880"`

	DatabaseURL   string `env:"DATABASE_URL"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	DynamoTable   string `env:"WIDGET_DYNAMO_TABLE"`

	JWTSecret           string        `env:"JWT_SECRET"`
	JWTSecretParam      string        `env:"JWT_SECRET_PARAM"`
	ContextTokenTTL     time.Duration `env:"CONTEXT_TOKEN_TTL" envDefault:"30m"`
	BootRateLimitMax    int           `env:"BOOT_RATE_LIMIT_MAX" envDefault:"20"`
	BootRateLimitWindow time.Duration `env:"BOOT_RATE_LIMIT_WINDOW" envDefault:"1m"`

	AllowedOrigins []string `env:"WIDGET_ALLOWED_ORIGINS" envSeparator:","`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa combinaciones que env no puede expresar con tags.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.BackendURL) == "" {
		errs = append(errs, errors.New("WIDGET_BACKEND_URL must not be empty"))
	}
	for name, kind := range map[string]string{"WIDGET_EPHEMERAL_STORE": c.EphemeralStore, "WIDGET_DURABLE_STORE": c.DurableStore} {
		switch kind {
		case StoreMemory:
		case StoreRedis:
			if c.RedisAddr == "" {
				errs = append(errs, fmt.Errorf("%s=redis requires REDIS_ADDR", name))
			}
		case StorePostgres:
			if c.DatabaseURL == "" {
				errs = append(errs, fmt.Errorf("%s=postgres requires DATABASE_URL", name))
			}
		case StoreDynamo:
			if c.DynamoTable == "" {
				errs = append(errs, fmt.Errorf("%s=dynamodb requires WIDGET_DYNAMO_TABLE", name))
			}
		default:
			errs = append(errs, fmt.Errorf("%s: unknown store %q", name, kind))
		}
	}
	if c.MaxMessages <= 0 {
		errs = append(errs, errors.New("WIDGET_MAX_MESSAGES must be positive"))
	}
	return errors.Join(errs...)
}

// UsesRedis indica si algun componente necesita el cliente de Redis.
func (c *Config) UsesRedis() bool {
	return c.EphemeralStore == StoreRedis || c.DurableStore == StoreRedis || c.RedisAddr != ""
}

// UsesPostgres indica si algun scope vive en Postgres.
func (c *Config) UsesPostgres() bool {
	return c.EphemeralStore == StorePostgres || c.DurableStore == StorePostgres
}

// UsesDynamo indica si algun scope vive en DynamoDB.
func (c *Config) UsesDynamo() bool {
	return c.EphemeralStore == StoreDynamo || c.DurableStore == StoreDynamo
}

// UsesAWS indica si hace falta cargar la configuracion del SDK de AWS.
func (c *Config) UsesAWS() bool {
	return c.UsesDynamo() || c.JWTSecretParam != ""
}
