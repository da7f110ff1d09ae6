package cache

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache 是进程内的 TTL 键值缓存，读取时惰性判断过期。
// 单用户应用下无需外部缓存组件；写路径在返回前同步失效相关键，
// 避免后续读请求命中过期数据。
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration
}

// Stats 汇总缓存条目统计。
type Stats struct {
	TotalEntries   int
	ActiveEntries  int
	ExpiredEntries int
}

// New 构造缓存实例，defaultTTL<=0 时回退为 5 分钟。
func New(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &Cache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
	}
}

// Get 返回未过期的缓存值；过期条目在读取时被删除。
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if time.Now().After(item.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	return item.value, true
}

// Set 写入缓存，ttl<=0 时使用默认过期时间。
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
}

// SetDefaultTTL 调整后续写入的默认过期时间，已有条目不受影响。
func (c *Cache) SetDefaultTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.defaultTTL = ttl
}

// Invalidate 删除指定键。
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// InvalidatePrefix 删除所有以 prefix 开头的键。
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

// Clear 清空全部缓存条目。
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
}

// Has 判断键是否存在且未过期。
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Stats 返回当前条目的有效/过期统计。
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{TotalEntries: len(c.entries)}
	now := time.Now()
	for _, item := range c.entries {
		if now.After(item.expiresAt) {
			stats.ExpiredEntries++
		} else {
			stats.ActiveEntries++
		}
	}

	return stats
}

// CleanupExpired 移除全部过期条目并返回删除数量。
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, item := range c.entries {
		if now.After(item.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}

	return removed
}

// StartSweeper 启动后台清理协程，stop 关闭后退出。
// 惰性过期已经保证正确性，清理只是为了控制内存占用。
func (c *Cache) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.CleanupExpired()
			case <-stop:
				return
			}
		}
	}()
}
