package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Read models kept per outlet. Order writes delete them; readers rebuild.
var outletKeys = []string{"active-sessions", "live-orders", "tables", "stock"}

// OutletKey returns the Redis key of one outlet read model.
func OutletKey(outletID uuid.UUID, model string) string {
	return fmt.Sprintf("outlet:%s:%s", outletID, model)
}

// Invalidator drops cached outlet read models from Redis.
type Invalidator struct {
	rdb redis.Cmdable
}

func NewInvalidator(rdb redis.Cmdable) *Invalidator {
	return &Invalidator{rdb: rdb}
}

// Connect parses a redis:// URL and checks the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// InvalidateOutlet deletes every read model of the outlet in one round trip.
func (i *Invalidator) InvalidateOutlet(ctx context.Context, outletID uuid.UUID) error {
	keys := make([]string, 0, len(outletKeys))
	for _, model := range outletKeys {
		keys = append(keys, OutletKey(outletID, model))
	}
	if err := i.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete outlet cache: %w", err)
	}
	return nil
}
