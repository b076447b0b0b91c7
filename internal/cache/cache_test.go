package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/billaudit/internal/model"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("native", []byte("%PDF-1.4 a"))
	b := CacheKey("native", []byte("%PDF-1.4 a"))
	c := CacheKey("pdftotext", []byte("%PDF-1.4 a"))
	d := CacheKey("native", []byte("%PDF-1.4 b"))

	if a != b {
		t.Error("expected identical content to share a key")
	}
	if a == c {
		t.Error("expected backend to be part of the key")
	}
	if a == d {
		t.Error("expected different content to get different keys")
	}
	if !strings.HasPrefix(a, "billaudit:v1:native:") {
		t.Errorf("unexpected key format: %s", a)
	}
}

func TestNew(t *testing.T) {
	if New(model.CacheConfig{Enabled: false}) != nil {
		t.Error("expected nil cache when disabled")
	}
	if _, ok := New(model.CacheConfig{Enabled: true}).(*MemoryCache); !ok {
		t.Error("expected memory cache without disk dir")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, DiskDir: t.TempDir()}).(*LayeredCache); !ok {
		t.Error("expected layered cache with disk dir")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("k"); found {
		t.Fatal("expected miss on empty cache")
	}
	if err := c.Set("k", []byte("texto"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, found := c.Get("k"); !found || string(v) != "texto" {
		t.Errorf("expected hit with stored value, got %q %v", v, found)
	}
	_ = c.Delete("k")
	if _, found := c.Get("k"); found {
		t.Error("expected miss after delete")
	}
}

func TestDiskCache_ExpiryAndDelete(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := CacheKey("native", []byte("doc"))

	if err := c.Set(key, []byte("CARGOS: 1.00"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, found := c.Get(key); !found || string(v) != "CARGOS: 1.00" {
		t.Errorf("expected hit, got %q %v", v, found)
	}

	if err := c.Set(key, []byte("old"), -time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("expected expired entry to miss")
	}

	if err := c.Delete(key); err != nil {
		t.Errorf("expected deleting a missing entry to succeed, got %v", err)
	}
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	key := CacheKey("native", []byte("doc"))

	if err := NewDiskCache(dir, time.Hour).Set(key, []byte("persisted"), 0); err != nil {
		t.Fatalf("seed disk: %v", err)
	}

	layered := NewLayeredCache(time.Minute, dir, time.Hour)
	if v, found := layered.Get(key); !found || string(v) != "persisted" {
		t.Fatalf("expected disk hit, got %q %v", v, found)
	}
	if v, found := layered.memory.Get(key); !found || string(v) != "persisted" {
		t.Errorf("expected value promoted to memory, got %q %v", v, found)
	}
}
