package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// TreeCache holds the category forest between backend fetches.
type TreeCache interface {
	Get(ctx context.Context) ([]domain.Category, error)
	Set(ctx context.Context, tree []domain.Category) error
	Delete(ctx context.Context) error
}

const treeKey = "catalog:categories"

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

func (r *RedisCache) Get(ctx context.Context) ([]domain.Category, error) {
	data, err := r.client.Get(ctx, treeKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var tree []domain.Category
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("unmarshal categories failed: %w", err)
	}
	return tree, nil
}

// Set stores the tree with up to 20% jitter on the TTL so instances do not
// all refetch at once.
func (r *RedisCache) Set(ctx context.Context, tree []domain.Category) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("marshal categories failed: %w", err)
	}

	ttl := r.baseTTL
	if spread := int64(r.baseTTL / 5); spread > 0 {
		ttl += time.Duration(rand.Int63n(spread))
	}
	if err := r.client.Set(ctx, treeKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, treeKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// MemoryCache is an in-process TreeCache for tests.
type MemoryCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	tree    []domain.Category
	expires time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tree == nil || !m.now().Before(m.expires) {
		return nil, ErrCacheMiss
	}
	return m.tree, nil
}

func (m *MemoryCache) Set(_ context.Context, tree []domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree = tree
	m.expires = m.now().Add(m.ttl)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree = nil
	return nil
}
