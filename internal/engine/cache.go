package engine

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Byte cache for proxied thumbnails and channel icons: L1 in-memory LRU,
// optional L2 Redis that survives restarts.
var thumbCache *tieredCache

// Cache metrics.
var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

type tieredCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front = most recent
	rdb        *redis.Client
	ttl        time.Duration
	maxEntries int
}

type cacheEntry struct {
	key       string
	data      []byte
	expiresAt time.Time
}

// InitCache sets up the byte cache. redisURL can be empty to disable L2.
func InitCache(redisURL string, ttl time.Duration, maxEntries int) {
	c := &tieredCache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
	}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			slog.Warn("cache: invalid redis URL, L2 disabled", slog.Any("error", err))
		} else {
			rdb := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				slog.Warn("cache: redis unreachable, L2 disabled", slog.Any("error", err))
			} else {
				c.rdb = rdb
				slog.Info("cache: L2 redis connected", slog.String("addr", opts.Addr))
			}
		}
	}

	thumbCache = c
	slog.Info("cache: initialized", slog.Duration("ttl", ttl), slog.Bool("redis", c.rdb != nil), slog.Int("max_entries", maxEntries))
}

// CacheGetBytes tries L1, then L2. On an L2 hit the entry is pulled back
// into L1.
func CacheGetBytes(ctx context.Context, key string) ([]byte, bool) {
	if thumbCache == nil {
		cacheMisses.Add(1)
		return nil, false
	}

	thumbCache.mu.Lock()
	if el, ok := thumbCache.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			thumbCache.order.MoveToFront(el)
			thumbCache.mu.Unlock()
			cacheHits.Add(1)
			return entry.data, true
		}
		thumbCache.order.Remove(el)
		delete(thumbCache.entries, key)
	}
	thumbCache.mu.Unlock()

	if thumbCache.rdb != nil {
		data, err := thumbCache.rdb.Get(ctx, "yt:"+key).Bytes()
		if err == nil {
			cacheHits.Add(1)
			storeL1(key, data)
			return data, true
		}
	}

	cacheMisses.Add(1)
	return nil, false
}

// CacheSetBytes stores data in L1 and, when available, L2.
func CacheSetBytes(ctx context.Context, key string, data []byte) {
	if thumbCache == nil {
		return
	}
	storeL1(key, data)
	if thumbCache.rdb != nil {
		if err := thumbCache.rdb.Set(ctx, "yt:"+key, data, thumbCache.ttl).Err(); err != nil {
			slog.Debug("cache: L2 set failed", slog.String("key", key), slog.Any("error", err))
		}
	}
}

func storeL1(key string, data []byte) {
	thumbCache.mu.Lock()
	defer thumbCache.mu.Unlock()

	if el, ok := thumbCache.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.data = data
		entry.expiresAt = time.Now().Add(thumbCache.ttl)
		thumbCache.order.MoveToFront(el)
		return
	}

	el := thumbCache.order.PushFront(&cacheEntry{
		key:       key,
		data:      data,
		expiresAt: time.Now().Add(thumbCache.ttl),
	})
	thumbCache.entries[key] = el

	for thumbCache.maxEntries > 0 && thumbCache.order.Len() > thumbCache.maxEntries {
		oldest := thumbCache.order.Back()
		if oldest == nil {
			break
		}
		thumbCache.order.Remove(oldest)
		delete(thumbCache.entries, oldest.Value.(*cacheEntry).key)
	}
}

// CacheStats returns hit/miss counters.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}
