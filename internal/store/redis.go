package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis holds the shared client backing the detection queue. Timeouts are
// short: the queue write path is fire-and-forget and must never hold up a
// recognize response waiting on a dead broker.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds a client for the given address. Connectivity is not
// verified here; Healthy reports it and the caller decides what degraded
// means for it.
func NewRedis(addr string) *Redis {
	return &Redis{Client: redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})}
}

// Healthy pings redis. A nil receiver reports unhealthy so the memory-queue
// configuration can share the health handler.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// Close releases the client's connection pool.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
