package utils

import (
	"testing"
	"time"
)

func TestTTLCache(t *testing.T) {
	cache := NewTTLCache[string, int](time.Hour)

	if _, ok := cache.Get("missing"); ok {
		t.Error("empty cache must miss")
	}

	cache.Set("answer", 42)
	if value, ok := cache.Get("answer"); !ok || value != 42 {
		t.Errorf("Get() = %d, %v; want 42, true", value, ok)
	}

	cache.Set("answer", 43)
	if value, _ := cache.Get("answer"); value != 43 {
		t.Errorf("Get() = %d, want the overwritten value", value)
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	cache := NewTTLCache[string, int](10 * time.Millisecond)
	cache.Set("answer", 42)

	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.Get("answer"); ok {
		t.Error("an entry past its TTL must miss")
	}
}
