package adapters

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// MemoryCache は有効期限付きのインメモリ ImageCacher です。
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]cacheEntry
	now   func() time.Time
}

// NewMemoryCache は空の MemoryCache を作成します。
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]cacheEntry), now: time.Now}
}

// Get は有効期限内の値を返します。期限切れの値は削除されます。
func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.items, key)
		return nil, false
	}
	return e.value, true
}

// Set は値を保存します。d が 0 以下の場合は期限なしになります。
func (c *MemoryCache) Set(key string, value any, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := cacheEntry{value: value}
	if d > 0 {
		e.expiresAt = c.now().Add(d)
	}
	c.items[key] = e
}
