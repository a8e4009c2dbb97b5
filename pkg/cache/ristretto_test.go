package cache

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestCache(t *testing.T) *RistrettoCache {
	t.Helper()
	c, err := NewRistrettoCache(&RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewRistrettoCache: %v", err)
	}
	t.Cleanup(c.Close)
	return c.(*RistrettoCache)
}

func TestRistrettoCache_SetAndGet(t *testing.T) {
	c := newTestCache(t)

	if !c.Set("k", "v", time.Hour) {
		t.Fatal("Set rejected")
	}
	c.Wait()

	got, found := c.Get("k")
	if !found || got != "v" {
		t.Errorf("Get = (%v, %v), want (v, true)", got, found)
	}
}

func TestRistrettoCache_MissingKey(t *testing.T) {
	c := newTestCache(t)

	if _, found := c.Get("nonexistent"); found {
		t.Error("unexpected hit")
	}
}

func TestRistrettoCache_Delete(t *testing.T) {
	c := newTestCache(t)

	c.Set("k", "v", time.Hour)
	c.Wait()
	if _, found := c.Get("k"); !found {
		t.Skip("entry not admitted")
	}

	c.Delete("k")
	if _, found := c.Get("k"); found {
		t.Error("entry survived delete")
	}
}

func TestRistrettoCache_TTLExpiration(t *testing.T) {
	c := newTestCache(t)

	c.Set("k", "v", 200*time.Millisecond)
	c.Wait()
	if _, found := c.Get("k"); !found {
		t.Skip("entry not admitted")
	}

	time.Sleep(300 * time.Millisecond)
	if _, found := c.Get("k"); found {
		t.Error("entry survived its TTL")
	}
}

func TestRistrettoCache_Clear(t *testing.T) {
	c := newTestCache(t)

	c.Set("k1", "v1", time.Hour)
	c.Set("k2", "v2", time.Hour)
	c.Wait()

	_, found1 := c.Get("k1")
	_, found2 := c.Get("k2")
	if !found1 || !found2 {
		// Ristretto admission is probabilistic.
		t.Skip("entries not admitted")
	}

	c.Clear()
	if _, found := c.Get("k1"); found {
		t.Error("k1 survived clear")
	}
	if _, found := c.Get("k2"); found {
		t.Error("k2 survived clear")
	}
}
