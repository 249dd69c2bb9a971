package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"support-widget/internal/config"
)

var ErrScopeBackendMissing = errors.New("scope backend not configured")

const durableNamespace = "durable"

// ScopeBackends agrupa los clientes de almacenamiento ya construidos. Los nil no estan disponibles.
type ScopeBackends struct {
	Redis  *redis.Client
	Pool   *pgxpool.Pool
	Dynamo DynamoAPI
}

// ScopeFactory construye los scopes de cada contexto de navegacion.
// El scope efimero es propio del contexto; el durable es compartido y sus claves van por session id.
type ScopeFactory struct {
	cfg      *config.Config
	backends ScopeBackends

	mu            sync.Mutex
	sharedDurable Scope
}

func NewScopeFactory(cfg *config.Config, backends ScopeBackends) *ScopeFactory {
	return &ScopeFactory{cfg: cfg, backends: backends}
}

// EnsureSchema prepara la tabla de Postgres si algun scope la usa.
func (f *ScopeFactory) EnsureSchema(ctx context.Context) error {
	if !f.cfg.UsesPostgres() {
		return nil
	}
	if f.backends.Pool == nil {
		return fmt.Errorf("%w: postgres", ErrScopeBackendMissing)
	}
	return NewPgScope(f.backends.Pool, durableNamespace, 0).EnsureSchema(ctx)
}

// Ephemeral devuelve el scope de sesion del contexto.
func (f *ScopeFactory) Ephemeral(contextID string) (Scope, error) {
	return f.build(f.cfg.EphemeralStore, contextID, f.cfg.EphemeralTTL)
}

// Durable devuelve el scope persistente compartido.
func (f *ScopeFactory) Durable() (Scope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sharedDurable != nil {
		return f.sharedDurable, nil
	}
	scope, err := f.build(f.cfg.DurableStore, durableNamespace, f.cfg.DurableTTL)
	if err != nil {
		return nil, err
	}
	f.sharedDurable = scope
	return scope, nil
}

func (f *ScopeFactory) build(kind, namespace string, ttl time.Duration) (Scope, error) {
	switch kind {
	case "", config.StoreMemory:
		return NewMemoryScope(f.cfg.MemoryQuotaBytes, ttl), nil
	case config.StoreRedis:
		if f.backends.Redis == nil {
			return nil, fmt.Errorf("%w: redis", ErrScopeBackendMissing)
		}
		return NewRedisScope(f.backends.Redis, "widget:"+namespace+":", ttl), nil
	case config.StorePostgres:
		if f.backends.Pool == nil {
			return nil, fmt.Errorf("%w: postgres", ErrScopeBackendMissing)
		}
		return NewPgScope(f.backends.Pool, namespace, ttl), nil
	case config.StoreDynamo:
		if f.backends.Dynamo == nil {
			return nil, fmt.Errorf("%w: dynamodb", ErrScopeBackendMissing)
		}
		return NewDynamoScope(f.backends.Dynamo, f.cfg.DynamoTable, namespace, ttl)
	}
	return nil, fmt.Errorf("unknown store kind %q", kind)
}
