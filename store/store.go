package store

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Executor sends one command and returns its reply.
// *redis.Client, *redis.ClusterClient and MemoryExtension all satisfy it.
type Executor interface {
	Do(ctx context.Context, args ...interface{}) *redis.Cmd
}
