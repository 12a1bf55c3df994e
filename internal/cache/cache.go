// Package cache keeps candidate lists in Redis in front of a catalog store.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pricebid-recon/internal/reconcile/model"
	"pricebid-recon/internal/reconcile/service"
)

const keyPrefix = "pricebid"

// fingerprinter is implemented by stores that can digest everything deciding candidacy
// (ids, lifecycle status, normalized text).
type fingerprinter interface {
	Fingerprint(ctx context.Context, kind model.FileType) (string, error)
}

// Catalog wraps a CatalogStore. Keys carry a per-kind generation that is bumped on refresh
// whenever the store's fingerprint moved (every refresh when the store has none), so lists
// built before a text or status change are never read back. Redis errors are logged and
// the call goes to the store.
type Catalog struct {
	next   service.CatalogStore
	rdb    redis.Cmdable
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCatalog(next service.CatalogStore, rdb redis.Cmdable, ttl time.Duration, logger zerolog.Logger) *Catalog {
	return &Catalog{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With().Str("component", "candidate_cache").Logger(),
	}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

func genKey(kind model.FileType) string {
	return fmt.Sprintf("%s:gen:%s", keyPrefix, kind)
}

func fingerprintKey(kind model.FileType) string {
	return fmt.Sprintf("%s:fp:%s", keyPrefix, kind)
}

func candidatesKey(kind model.FileType, gen string, status model.Status, limit int, normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%s:cand:%s:%s:%d:%d:%s", keyPrefix, kind, gen, int(status), limit, hex.EncodeToString(sum[:]))
}

func (c *Catalog) generation(ctx context.Context, kind model.FileType) (string, error) {
	gen, err := c.rdb.Get(ctx, genKey(kind)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (c *Catalog) QueryByDistance(ctx context.Context, kind model.FileType, normalized string, status model.Status, limit int) ([]model.CatalogEntry, error) {
	gen, err := c.generation(ctx, kind)
	if err != nil {
		c.logger.Warn().Err(err).Msg("generation lookup failed, bypassing cache")
		return c.next.QueryByDistance(ctx, kind, normalized, status, limit)
	}
	key := candidatesKey(kind, gen, status, limit, normalized)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out []model.CatalogEntry
		jerr := json.Unmarshal(raw, &out)
		if jerr == nil {
			return out, nil
		}
		c.logger.Warn().Err(jerr).Str("key", key).Msg("dropping undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	out, err := c.next.QueryByDistance(ctx, kind, normalized, status, limit)
	if err != nil {
		return nil, err
	}
	if b, jerr := json.Marshal(out); jerr == nil {
		if serr := c.rdb.Set(ctx, key, b, c.ttl).Err(); serr != nil {
			c.logger.Warn().Err(serr).Str("key", key).Msg("cache write failed")
		}
	}
	return out, nil
}

func (c *Catalog) RefreshNormalizedText(ctx context.Context, kind model.FileType) error {
	if err := c.next.RefreshNormalizedText(ctx, kind); err != nil {
		return err
	}

	fp, ok := c.next.(fingerprinter)
	if !ok {
		c.bump(ctx, kind)
		return nil
	}
	sum, err := fp.Fingerprint(ctx, kind)
	if err != nil {
		c.logger.Warn().Err(err).Str("kind", kind.String()).Msg("catalog fingerprint failed")
		c.bump(ctx, kind)
		return nil
	}
	if prev, err := c.rdb.Get(ctx, fingerprintKey(kind)).Result(); err == nil && prev == sum {
		return nil
	}
	if c.bump(ctx, kind) {
		if err := c.rdb.Set(ctx, fingerprintKey(kind), sum, 0).Err(); err != nil {
			c.logger.Warn().Err(err).Str("kind", kind.String()).Msg("fingerprint write failed")
		}
	}
	return nil
}

// bump moves kind to a new generation; cached lists of older generations are never read again.
func (c *Catalog) bump(ctx context.Context, kind model.FileType) bool {
	if err := c.rdb.Incr(ctx, genKey(kind)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("kind", kind.String()).Msg("generation bump failed")
		return false
	}
	return true
}
