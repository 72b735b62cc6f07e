package searchcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arenahq/searchcore/internal/store"
	storeMemory "github.com/arenahq/searchcore/internal/store/memory"
	storeRedis "github.com/arenahq/searchcore/internal/store/redis"
)

const defaultReadinessTimeout = 10 * time.Second

// Option configures Open.
type Option func(*openConfig)

type openConfig struct {
	driver    string // "memory" or "redis"
	addrs     []string
	password  string
	keyPrefix string
	logger    *zap.Logger
	opts      Options
}

// WithMemory backs the engine with a process-local store. This is the
// default when no store option is given.
func WithMemory() Option {
	return func(c *openConfig) {
		c.driver = "memory"
	}
}

// WithRedis backs the engine with a Redis instance.
func WithRedis(addr, password string) Option {
	return func(c *openConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithKeyPrefix namespaces all Redis keys. Defaults to "searchcore:".
func WithKeyPrefix(prefix string) Option {
	return func(c *openConfig) {
		c.keyPrefix = prefix
	}
}

// WithLogger enables structured logging of engine operations.
func WithLogger(l *zap.Logger) Option {
	return func(c *openConfig) {
		c.logger = l
	}
}

// WithOptions overrides the engine defaults.
func WithOptions(opts Options) Option {
	return func(c *openConfig) {
		c.opts = opts
	}
}

// Open creates an engine with a store chosen by options. It is the
// library-level entry point; services embedding the engine into a larger
// composition root should wire New directly.
func Open(ctx context.Context, opts ...Option) (*Engine, error) {
	cfg := &openConfig{
		driver: "memory",
		opts:   DefaultOptions(),
	}
	for _, o := range opts {
		o(cfg)
	}

	querier, kv, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(ctx, querier, kv, cfg.logger, cfg.opts)
}

func openStore(ctx context.Context, cfg *openConfig) (store.Querier, store.KV, error) {
	switch cfg.driver {
	case "memory":
		mem := storeMemory.New()
		return mem, mem, nil
	case "redis":
		if len(cfg.addrs) == 0 {
			return nil, nil, errors.New("searchcore: redis address required")
		}
		s, err := storeRedis.NewStore(storeRedis.Config{
			Addrs:     cfg.addrs,
			Password:  cfg.password,
			KeyPrefix: cfg.keyPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("searchcore: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("searchcore: store not ready: %w", err)
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("searchcore: unknown driver %q", cfg.driver)
	}
}
