package cache

import (
	"testing"
	"time"
)

func TestKey_Stable(t *testing.T) {
	k1 := Key(`"Hospital A" Springfield WA labor delivery`)
	k2 := Key(`"Hospital A" Springfield WA labor delivery`)
	if k1 != k2 {
		t.Error("same query should produce the same key")
	}
	if k1 == Key("other query") {
		t.Error("different queries should produce different keys")
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found || string(val) != "v" {
		t.Errorf("Get = %q, %v; want v, true", val, found)
	}

	if _, found := c.Get("missing"); found {
		t.Error("expected miss for unknown key")
	}
}

func TestDiskCache_SetGet(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set(Key("q"), []byte("payload"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get(Key("q"))
	if !found || string(val) != "payload" {
		t.Errorf("Get = %q, %v; want payload, true", val, found)
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expired entry should miss")
	}
}

func TestLayeredCache_PromotesDiskHit(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Minute)

	// Write through the disk layer only, then read through the stack.
	if err := c.disk.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("disk Set failed: %v", err)
	}

	val, found := c.Get("k")
	if !found || string(val) != "v" {
		t.Fatalf("layered Get = %q, %v; want v, true", val, found)
	}

	// After promotion the memory layer should hit directly.
	if _, found := c.memory.Get("k"); !found {
		t.Error("disk hit was not promoted to memory")
	}
}
