package captchacache

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/captchacache/store"
)

// Cache is a store known to carry the mCaptcha cache module.
// Construction verifies the module once; after that, Conn hands out
// connections without further checks.
type Cache struct {
	pool *store.Pool
	exec store.Executor
	opts options
}

// New connects to the store described by config and verifies the module.
// Any error here should abort startup.
func New(ctx context.Context, config store.Config, opts ...Option) (*Cache, error) {
	pool, err := store.NewPool(ctx, config)
	if err != nil {
		if errors.Is(err, store.ErrConnection) {
			return nil, fmt.Errorf("%w: %w", ErrConnection, err)
		}
		return nil, err
	}

	cache, err := NewFromPool(ctx, pool, opts...)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return cache, nil
}

// NewFromPool verifies the module over an existing pool.
// The Cache takes ownership of the pool and closes it on Close.
func NewFromPool(ctx context.Context, pool *store.Pool, opts ...Option) (*Cache, error) {
	cache, err := NewWithExecutor(ctx, pool.Conn(), opts...)
	if err != nil {
		return nil, err
	}
	cache.pool = pool
	return cache, nil
}

// NewWithExecutor verifies the module behind any Executor, such as a
// store.MemoryExtension.
func NewWithExecutor(ctx context.Context, exec store.Executor, opts ...Option) (*Cache, error) {
	if exec == nil {
		return nil, fmt.Errorf("%w: executor cannot be nil", ErrInvalidOption)
	}

	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	cache := &Cache{exec: exec, opts: o}
	if err := cache.Conn().verify(ctx); err != nil {
		return nil, err
	}
	return cache, nil
}

// Conn returns a connection handle. It never fails; pool checkout and I/O
// errors surface from the command calls.
func (c *Cache) Conn() *Conn {
	return &Conn{
		exec:     c.exec,
		catalog:  c.opts.catalog,
		logger:   c.opts.logger,
		recorder: c.opts.recorder,
		encoder:  c.opts.encoder,
	}
}

// Close releases the underlying pool, if the Cache owns one
func (c *Cache) Close() error {
	if c.pool == nil {
		return nil
	}
	return c.pool.Close()
}
