package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/laura2ndrea/payment-links/internal/domain"
)

// LinkCacheTTL keeps cached links short-lived: sweeps flip statuses without
// going through the cache, so staleness is bounded by this value.
const LinkCacheTTL = 10 * time.Second

const linkCachePrefix = "cache:link:"

// LinkCache caches payment link reads in Redis. Entries are keyed per
// merchant so a cached link can never leak across tenants.
type LinkCache struct {
	client *redis.Client
}

// NewLinkCache creates a new LinkCache.
func NewLinkCache(client *redis.Client) *LinkCache {
	return &LinkCache{client: client}
}

func linkCacheKey(merchantID, identifier string) string {
	return linkCachePrefix + merchantID + ":" + identifier
}

// Get retrieves a link from cache by ID or reference. Returns nil on a miss.
func (c *LinkCache) Get(ctx context.Context, merchantID, identifier string) (*domain.PaymentLink, error) {
	data, err := c.client.Get(ctx, linkCacheKey(merchantID, identifier)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var link domain.PaymentLink
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// Set stores a link in cache under both its ID and its reference, so lookups
// by either identifier hit.
func (c *LinkCache) Set(ctx context.Context, link *domain.PaymentLink) error {
	data, err := json.Marshal(link)
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, linkCacheKey(link.MerchantID, link.ID), data, LinkCacheTTL)
	pipe.Set(ctx, linkCacheKey(link.MerchantID, link.Reference), data, LinkCacheTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// Invalidate removes a link from cache after a status change.
func (c *LinkCache) Invalidate(ctx context.Context, link *domain.PaymentLink) error {
	return c.client.Del(ctx,
		linkCacheKey(link.MerchantID, link.ID),
		linkCacheKey(link.MerchantID, link.Reference),
	).Err()
}
