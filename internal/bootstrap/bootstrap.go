// Package bootstrap abre las conexiones externas que comparten los binarios.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"support-widget/internal/config"
	"support-widget/internal/db"
	"support-widget/internal/paramstore"
	"support-widget/internal/repository"
)

// Resources son los clientes abiertos segun la configuracion.
type Resources struct {
	Backends repository.ScopeBackends
	// RedisReady es false si Redis esta configurado pero no respondio al ping.
	RedisReady bool

	closers []func()
}

// Open conecta Postgres, Redis y AWS solo si la configuracion los usa.
// Si JWT_SECRET_PARAM esta definido, cfg.JWTSecret se reemplaza por el valor del Parameter Store.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Resources, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	res := &Resources{}

	if cfg.UsesPostgres() {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		res.closers = append(res.closers, pool.Close)
		if err := db.Ping(ctx, pool); err != nil {
			res.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		res.Backends.Pool = pool
	}

	if cfg.UsesRedis() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		res.closers = append(res.closers, func() { _ = client.Close() })
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := client.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			res.RedisReady = true
		}
		cancel()
		res.Backends.Redis = client
	}

	if cfg.UsesAWS() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			res.Close()
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		if cfg.UsesDynamo() {
			res.Backends.Dynamo = dynamodb.NewFromConfig(awsCfg)
		}
		if cfg.JWTSecretParam != "" {
			params, err := paramstore.New(ssm.NewFromConfig(awsCfg))
			if err != nil {
				res.Close()
				return nil, err
			}
			if err := ResolveJWTSecret(ctx, cfg, params); err != nil {
				res.Close()
				return nil, err
			}
			logger.Info("jwt secret loaded from parameter store", zap.String("param", cfg.JWTSecretParam))
		}
	}

	return res, nil
}

// ResolveJWTSecret carga el secreto de firma desde el Parameter Store.
func ResolveJWTSecret(ctx context.Context, cfg *config.Config, params paramstore.Getter) error {
	if cfg.JWTSecretParam == "" {
		return nil
	}
	secret, err := params.GetParameter(ctx, cfg.JWTSecretParam)
	if err != nil {
		return fmt.Errorf("resolve jwt secret: %w", err)
	}
	cfg.JWTSecret = secret
	return nil
}

// Close cierra los clientes en orden inverso.
func (r *Resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}
