package lookup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"rideshare_backend/internal/autocomplete"
	"rideshare_backend/platform/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKeyPrefix = "lookup:"

	// sharedCallTimeout bounds an upstream call once it no longer follows
	// any single caller's context.
	sharedCallTimeout = 15 * time.Second
)

// CachedSource memoises a remote source in Redis and collapses concurrent
// identical lookups into one upstream call. Redis failures are logged and
// bypassed; they never fail a lookup.
type CachedSource struct {
	name  string
	next  autocomplete.RemoteSource
	rdb   redis.Cmdable
	ttl   time.Duration
	group singleflight.Group
	log   *logger.Logger
}

func NewCachedSource(name string, next autocomplete.RemoteSource, rdb redis.Cmdable, ttl time.Duration, log *logger.Logger) *CachedSource {
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedSource{name: name, next: next, rdb: rdb, ttl: ttl, log: log}
}

func (c *CachedSource) Lookup(ctx context.Context, query string, scope autocomplete.Scope) ([]autocomplete.Candidate, error) {
	key := c.key("search", normalizeQuery(query), scopeKey(scope))

	var cached []autocomplete.Candidate
	if c.load(ctx, key, &cached) {
		return cached, nil
	}

	v, err := c.shared(ctx, key, func(ctx context.Context) (any, error) {
		candidates, err := c.next.Lookup(ctx, query, scope)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, candidates)
		return candidates, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]autocomplete.Candidate)), nil
}

func (c *CachedSource) ResolveDetails(ctx context.Context, ref string) (autocomplete.Fields, error) {
	key := c.key("details", ref)

	var cached autocomplete.Fields
	if c.load(ctx, key, &cached) {
		return cached, nil
	}

	v, err := c.shared(ctx, key, func(ctx context.Context) (any, error) {
		fields, err := c.next.ResolveDetails(ctx, ref)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, fields)
		return fields, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(autocomplete.Fields).Clone(), nil
}

// shared runs fn once per key for all concurrent callers. The upstream call is
// detached from the first caller's cancellation; each caller stops waiting
// when its own context ends.
func (c *CachedSource) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
		defer cancel()
		return fn(callCtx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *CachedSource) load(ctx context.Context, key string, out any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("lookup cache read failed", "source", c.name, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Warn("lookup cache entry corrupt", "source", c.name, "error", err)
		return false
	}
	return true
}

func (c *CachedSource) store(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("lookup cache write failed", "source", c.name, "error", err)
	}
}

func (c *CachedSource) key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return cacheKeyPrefix + c.name + ":" + hex.EncodeToString(sum[:16])
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

func scopeKey(scope autocomplete.Scope) string {
	keys := make([]string, 0, len(scope))
	for k := range scope {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.ToLower(scope[k]))
		b.WriteByte(';')
	}
	return b.String()
}
