package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Pool owns the connection pool to a single node or a cluster.
// Commands issued through it check out a connection for exactly one
// request/response, so concurrent callers never share a wire exchange.
type Pool struct {
	client redis.UniversalClient
	mode   Mode
}

// Ensure both go-redis clients can serve as executors
var (
	_ Executor = (*redis.Client)(nil)
	_ Executor = (*redis.ClusterClient)(nil)
)

// NewPool creates the pool described by config and checks it can reach the store.
func NewPool(ctx context.Context, config Config) (*Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var client redis.UniversalClient
	switch config.Mode {
	case ModeCluster:
		opts, err := clusterOptions(config)
		if err != nil {
			return nil, err
		}
		client = redis.NewClusterClient(opts)
	default:
		opts, err := singleOptions(config)
		if err != nil {
			return nil, err
		}
		client = redis.NewClient(opts)
	}

	pool := &Pool{client: client, mode: config.Mode}
	if err := pool.Ping(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return pool, nil
}

// Conn returns a handle for issuing commands. It never fails; a connection
// is only leased from the pool when a command runs.
func (p *Pool) Conn() Executor {
	return p.client
}

// Mode reports whether the pool talks to a single node or a cluster
func (p *Pool) Mode() Mode {
	return p.mode
}

// AddHook installs a go-redis hook on every command sent through the pool
func (p *Pool) AddHook(hook redis.Hook) {
	p.client.AddHook(hook)
}

// Ping checks if the store is reachable
func (p *Pool) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return nil
}

// Close releases every pooled connection
func (p *Pool) Close() error {
	return p.client.Close()
}

func singleOptions(config Config) (*redis.Options, error) {
	opts := &redis.Options{Addr: config.Addr, DB: config.DB}
	if config.URL != "" {
		parsed, err := redis.ParseURL(config.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		opts = parsed
	}

	if config.Username != "" {
		opts.Username = config.Username
	}
	if config.Password != "" {
		opts.Password = config.Password
	}
	opts.Protocol = config.Protocol
	opts.MaxRetries = maxRetries(config.Retries)
	opts.PoolSize = config.PoolSize
	opts.MinIdleConns = config.MinIdleConns
	opts.DialTimeout = config.DialTimeout
	opts.ReadTimeout = config.ReadTimeout
	opts.WriteTimeout = config.WriteTimeout
	opts.PoolTimeout = config.PoolTimeout

	return opts, nil
}

func clusterOptions(config Config) (*redis.ClusterOptions, error) {
	opts := &redis.ClusterOptions{
		Addrs:        append([]string(nil), config.Addrs...),
		Username:     config.Username,
		Password:     config.Password,
		Protocol:     config.Protocol,
		MaxRetries:   maxRetries(config.Retries),
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolTimeout:  config.PoolTimeout,
	}

	// Credentials in seed URLs apply cluster-wide unless set explicitly
	for _, raw := range config.URLs {
		parsed, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		opts.Addrs = append(opts.Addrs, parsed.Addr)
		if opts.Username == "" {
			opts.Username = parsed.Username
		}
		if opts.Password == "" {
			opts.Password = parsed.Password
		}
	}

	return opts, nil
}

// maxRetries converts the config's retry count to go-redis semantics,
// where 0 means "use the default" and -1 disables retries.
func maxRetries(retries int) int {
	if retries == 0 {
		return -1
	}
	return retries
}
