package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lalithlochan/returns-notifier/internal/metrics"
)

// SettingsSource is the authoritative store behind SettingsCache.
type SettingsSource interface {
	SenderEmail(ctx context.Context, resellerID int64) (string, error)
	RecipientEmails(ctx context.Context, resellerID int64, permit string) ([]string, error)
	StatusName(ctx context.Context, code int64) (string, error)
	ResellerLocale(ctx context.Context, resellerID int64) (string, error)
}

// SettingsCache is a read-through cache for per-reseller settings and status
// names. Redis failures fall back to the source; they never fail a lookup.
type SettingsCache struct {
	client *Client
	source SettingsSource
	ttl    time.Duration
	logger *zap.Logger
}

func NewSettingsCache(client *Client, source SettingsSource, ttl time.Duration, logger *zap.Logger) *SettingsCache {
	return &SettingsCache{
		client: client,
		source: source,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *SettingsCache) SenderEmail(ctx context.Context, resellerID int64) (string, error) {
	var email string
	err := c.readThrough(ctx, fmt.Sprintf("settings:%d:sender", resellerID), &email, func() (any, error) {
		return c.source.SenderEmail(ctx, resellerID)
	})
	return email, err
}

func (c *SettingsCache) RecipientEmails(ctx context.Context, resellerID int64, permit string) ([]string, error) {
	var emails []string
	err := c.readThrough(ctx, fmt.Sprintf("settings:%d:recipients:%s", resellerID, permit), &emails, func() (any, error) {
		return c.source.RecipientEmails(ctx, resellerID, permit)
	})
	return emails, err
}

func (c *SettingsCache) StatusName(ctx context.Context, code int64) (string, error) {
	var name string
	err := c.readThrough(ctx, fmt.Sprintf("status:%d:name", code), &name, func() (any, error) {
		return c.source.StatusName(ctx, code)
	})
	return name, err
}

func (c *SettingsCache) ResellerLocale(ctx context.Context, resellerID int64) (string, error) {
	var locale string
	err := c.readThrough(ctx, fmt.Sprintf("settings:%d:locale", resellerID), &locale, func() (any, error) {
		return c.source.ResellerLocale(ctx, resellerID)
	})
	return locale, err
}

// Invalidate drops every cached setting of a reseller.
func (c *SettingsCache) Invalidate(ctx context.Context, resellerID int64) error {
	iter := c.client.rdb.Scan(ctx, 0, fmt.Sprintf("settings:%d:*", resellerID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// readThrough decodes the cached JSON value at key into dst, or loads it from
// the source and caches it. Empty values are cached too.
func (c *SettingsCache) readThrough(ctx context.Context, key string, dst any, load func() (any, error)) error {
	val, err := c.client.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		jsonErr := json.Unmarshal(val, dst)
		if jsonErr == nil {
			metrics.RecordSettingsCache(true)
			return nil
		}
		c.logger.Warn("discarding corrupt settings cache entry", zap.String("key", key), zap.Error(jsonErr))
	case err != redis.Nil:
		c.logger.Warn("settings cache read failed", zap.String("key", key), zap.Error(err))
	}
	metrics.RecordSettingsCache(false)

	loaded, err := load()
	if err != nil {
		return err
	}

	data, err := json.Marshal(loaded)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}

	if err := c.client.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("settings cache write failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}
