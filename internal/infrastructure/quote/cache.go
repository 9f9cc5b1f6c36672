package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vitos/stock_grid/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultQuoteTTL   = 10 * time.Second
	DefaultHistoryTTL = 60 * time.Second
	DefaultNewsTTL    = 5 * time.Minute
)

var ErrCacheMiss = errors.New("cache miss")

// Store is a JSON value cache with per-key expiry.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

type MemoryStore struct {
	mu      sync.RWMutex
	items   map[string]memoryItem
	timeNow func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem), timeNow: time.Now}
}

func (m *MemoryStore) Get(ctx context.Context, key string, dest any) error {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return ErrCacheMiss
	}
	if !item.expiresAt.IsZero() && m.timeNow().After(item.expiresAt) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return ErrCacheMiss
	}
	return json.Unmarshal(item.data, dest)
}

func (m *MemoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.timeNow().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = memoryItem{data: b, expiresAt: expiresAt}
	m.mu.Unlock()
	return nil
}

// RedisStore shares the cache between gridwatch instances.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client, prefix: "gridwatch:"}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string, dest any) error {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+key, data, ttl).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// CachedSource serves repeated reads from a Store. Failures are never cached,
// and a broken store only costs a trip to the upstream source.
type CachedSource struct {
	cacheIO
	next       domain.QuoteSource
	quoteTTL   time.Duration
	historyTTL time.Duration
}

func NewCachedSource(next domain.QuoteSource, store Store, quoteTTL, historyTTL time.Duration, logger *zap.Logger) *CachedSource {
	if quoteTTL <= 0 {
		quoteTTL = DefaultQuoteTTL
	}
	if historyTTL <= 0 {
		historyTTL = DefaultHistoryTTL
	}
	return &CachedSource{
		cacheIO:    cacheIO{store: store, logger: logger},
		next:       next,
		quoteTTL:   quoteTTL,
		historyTTL: historyTTL,
	}
}

func (c *CachedSource) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	q, err := c.GetQuote(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return q.Price, nil
}

func (c *CachedSource) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	key := "quote:" + symbol
	var q domain.Quote
	if c.lookup(ctx, key, &q) {
		return &q, nil
	}
	fresh, err := c.next.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, fresh, c.quoteTTL)
	return fresh, nil
}

func (c *CachedSource) GetHistory(ctx context.Context, symbol, period, interval string) ([]domain.Candle, error) {
	key := fmt.Sprintf("history:%s:%s:%s", symbol, period, interval)
	var candles []domain.Candle
	if c.lookup(ctx, key, &candles) {
		return candles, nil
	}
	fresh, err := c.next.GetHistory(ctx, symbol, period, interval)
	if err != nil {
		return nil, err
	}
	if len(fresh) > 0 {
		c.save(ctx, key, fresh, c.historyTTL)
	}
	return fresh, nil
}

type cacheIO struct {
	store  Store
	logger *zap.Logger
}

func (c cacheIO) lookup(ctx context.Context, key string, dest any) bool {
	err := c.store.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (c cacheIO) save(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := c.store.Set(ctx, key, value, ttl); err != nil {
		c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// CachedNews serves repeated headline reads from a Store.
type CachedNews struct {
	cacheIO
	next domain.NewsSource
	ttl  time.Duration
}

func NewCachedNews(next domain.NewsSource, store Store, ttl time.Duration, logger *zap.Logger) *CachedNews {
	if ttl <= 0 {
		ttl = DefaultNewsTTL
	}
	return &CachedNews{cacheIO: cacheIO{store: store, logger: logger}, next: next, ttl: ttl}
}

func (c *CachedNews) GetNews(ctx context.Context, query string, limit int) ([]domain.NewsItem, error) {
	key := fmt.Sprintf("news:%s:%d", query, limit)
	var items []domain.NewsItem
	if c.lookup(ctx, key, &items) {
		return items, nil
	}
	fresh, err := c.next.GetNews(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(fresh) > 0 {
		c.save(ctx, key, fresh, c.ttl)
	}
	return fresh, nil
}
