package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Dedup marks post ids as seen so a redelivered Telegram update cannot create
// a second candidate. Redis being unavailable degrades to no de-duplication;
// intake keeps working.
type Dedup struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewDedup(client *redis.Client, ttl time.Duration, log zerolog.Logger) *Dedup {
	return &Dedup{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// FirstSeen returns true the first time a key is observed within the TTL.
func (d *Dedup) FirstSeen(ctx context.Context, key string) bool {
	if d.client == nil {
		return true
	}

	ok, err := d.client.SetNX(ctx, "mediarelay:"+key, 1, d.ttl).Result()
	if err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("dedup check failed, admitting")
		return true
	}
	return ok
}
