package cache

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := New(time.Minute)

	c.Set("dashboard:public:30", "payload", 0)

	value, ok := c.Get("dashboard:public:30")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if value.(string) != "payload" {
		t.Fatalf("unexpected cached value: %v", value)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected cache miss for unknown key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(time.Minute)

	c.Set("short", 42, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Fatal("expected entry to expire")
	}

	// 过期条目在读取时被删除
	if stats := c.Stats(); stats.TotalEntries != 0 {
		t.Fatalf("expected 0 entries after lazy eviction, got %d", stats.TotalEntries)
	}
}

func TestCacheSetDefaultTTL(t *testing.T) {
	c := New(time.Minute)

	c.Set("before", 1, 0)
	c.SetDefaultTTL(10 * time.Millisecond)
	c.Set("after", 2, 0)

	time.Sleep(30 * time.Millisecond)

	// 已有条目保持旧的过期时间，只有后续写入受影响
	if !c.Has("before") {
		t.Fatal("expected existing entry to keep its original ttl")
	}
	if c.Has("after") {
		t.Fatal("expected entry written after SetDefaultTTL to expire")
	}

	// 非法时长被忽略
	c.SetDefaultTTL(0)
	c.Set("guarded", 3, 0)
	time.Sleep(30 * time.Millisecond)
	if !c.Has("guarded") {
		t.Fatal("expected zero ttl to be ignored")
	}
}

func TestCacheInvalidatePrefix(t *testing.T) {
	c := New(time.Minute)

	c.Set("dashboard:public:30", 1, 0)
	c.Set("dashboard:heatmap:2024", 2, 0)
	c.Set("settings", 3, 0)

	c.InvalidatePrefix("dashboard:")

	if c.Has("dashboard:public:30") || c.Has("dashboard:heatmap:2024") {
		t.Fatal("expected dashboard keys to be invalidated")
	}
	if !c.Has("settings") {
		t.Fatal("expected unrelated key to survive")
	}
}

func TestCacheCleanupExpired(t *testing.T) {
	c := New(time.Minute)

	c.Set("a", 1, 5*time.Millisecond)
	c.Set("b", 2, time.Minute)
	time.Sleep(20 * time.Millisecond)

	if removed := c.CleanupExpired(); removed != 1 {
		t.Fatalf("expected 1 removed entry, got %d", removed)
	}

	stats := c.Stats()
	if stats.TotalEntries != 1 || stats.ActiveEntries != 1 {
		t.Fatalf("unexpected stats after cleanup: %+v", stats)
	}
}
