package pricecache

import (
	"context"
	"fmt"
	"time"

	"profitscout/internal/adapters/redis"
	"profitscout/internal/domain/pricehistory"
	"profitscout/pkg/logger"
)

// DefaultTTL keeps cached closes fresh for one trading session chunk
const DefaultTTL = 15 * time.Minute

type cachedClose struct {
	Close float64   `json:"close"`
	Date  time.Time `json:"date"`
}

// Cache is a read-through Redis cache over the latest close per ticker.
// Selection hits this once per ticker per run, so a short TTL removes most of
// the repeated point lookups against the price store.
type Cache struct {
	store  pricehistory.Repository
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// New creates a price cache. A nil client disables caching and every read
// goes straight to the store.
func New(store pricehistory.Repository, client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		store:  store,
		client: client,
		ttl:    ttl,
		log:    logger.Get().With("component", "price_cache"),
	}
}

// LatestClose returns the most recent close for a ticker, serving from Redis
// when possible. Cache failures degrade to a direct store read.
func (c *Cache) LatestClose(ctx context.Context, ticker string) (float64, time.Time, error) {
	key := c.key(ticker)

	if c.client != nil {
		var hit cachedClose
		err := c.client.Get(ctx, key, &hit)
		if err == nil {
			return hit.Close, hit.Date, nil
		}
		if !redis.IsMiss(err) {
			c.log.Warnw("price cache read failed", "ticker", ticker, "error", err)
		}
	}

	close, date, err := c.store.GetLatestClose(ctx, ticker)
	if err != nil {
		return 0, time.Time{}, err
	}

	if c.client != nil {
		if err := c.client.Set(ctx, key, cachedClose{Close: close, Date: date}, c.ttl); err != nil {
			c.log.Warnw("price cache write failed", "ticker", ticker, "error", err)
		}
	}
	return close, date, nil
}

func (c *Cache) key(ticker string) string {
	return fmt.Sprintf("price:latest_close:%s", ticker)
}
