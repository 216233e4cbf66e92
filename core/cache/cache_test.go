package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/FocuswithJustin/mdf/core/page"
	"github.com/FocuswithJustin/mdf/internal/mdftest"
)

func TestLRUCacheBasic(t *testing.T) {
	c := NewLRUCache[string, int](Config{MaxSize: 10})

	if _, ok := c.Get("missing"); ok {
		t.Error("empty cache returned a value")
	}

	c.Put("a", 1)
	c.Put("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = (%d, %v), want (1, true)", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	// Overwrite keeps a single entry.
	c.Put("a", 3)
	if v, _ := c.Get("a"); v != 3 {
		t.Errorf("Get(a) after overwrite = %d, want 3", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len() after overwrite = %d, want 2", c.Len())
	}

	c.Remove("a")
	if _, ok := c.Get("a"); ok {
		t.Error("removed entry still present")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}

func TestLRUCacheEviction(t *testing.T) {
	var evicted []interface{}
	c := NewLRUCache[int, string](Config{
		MaxSize: 3,
		OnEvict: func(key, value interface{}) { evicted = append(evicted, key) },
	})

	c.Put(1, "one")
	c.Put(2, "two")
	c.Put(3, "three")

	// Touch 1 so 2 becomes the oldest.
	c.Get(1)
	c.Put(4, "four")

	if _, ok := c.Get(2); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get(1); !ok {
		t.Error("recently used entry was evicted")
	}
	if len(evicted) != 1 || evicted[0] != 2 {
		t.Errorf("evicted = %v, want [2]", evicted)
	}
}

func TestLRUCacheStats(t *testing.T) {
	c := NewLRUCache[string, int](Config{MaxSize: 2})

	c.Put("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("miss")
	c.Put("b", 2)
	c.Put("c", 3) // evicts a

	s := c.Stats()
	if s.Hits != 2 {
		t.Errorf("hits = %d, want 2", s.Hits)
	}
	if s.Misses != 1 {
		t.Errorf("misses = %d, want 1", s.Misses)
	}
	if s.Evictions != 1 {
		t.Errorf("evictions = %d, want 1", s.Evictions)
	}
	if s.Size != 2 || s.MaxSize != 2 {
		t.Errorf("size = %d/%d, want 2/2", s.Size, s.MaxSize)
	}
}

func TestLRUCacheUnlimited(t *testing.T) {
	c := NewLRUCache[int, int](Config{MaxSize: 0})
	for i := 0; i < 1000; i++ {
		c.Put(i, i)
	}
	if c.Len() != 1000 {
		t.Errorf("Len() = %d, want 1000", c.Len())
	}
	if c.Stats().Evictions != 0 {
		t.Error("unlimited cache evicted entries")
	}
}

func TestLRUCacheConcurrent(t *testing.T) {
	c := NewLRUCache[int, int](Config{MaxSize: 64})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.Put(i%100, w)
				c.Get(i % 100)
			}
		}(w)
	}
	wg.Wait()

	if c.Len() > 64 {
		t.Errorf("Len() = %d exceeds max size", c.Len())
	}
}

func TestPageCache(t *testing.T) {
	p := mdftest.NewProvider()
	ptr := page.Pointer{FileID: 1, PageID: 5}
	mdftest.NewPage(page.TypeData, ptr).Into(p)

	c := NewPageCache(8)
	pg, err := c.Get(p, ptr)
	if err != nil {
		t.Fatal(err)
	}
	if pg.Header.Type != page.TypeData {
		t.Errorf("type = %v", pg.Header.Type)
	}

	// A second fetch is served from the cache even after the provider loses
	// the page.
	p.Delete(ptr)
	again, err := c.Get(p, ptr)
	if err != nil {
		t.Fatal(err)
	}
	if again != pg {
		t.Error("second fetch did not return the cached page")
	}

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("stats = %d hits / %d misses, want 1/1", s.Hits, s.Misses)
	}
}

func TestPageCacheError(t *testing.T) {
	p := mdftest.NewProvider()
	c := NewPageCache(8)

	// A failed fetch must not be cached.
	if _, err := c.Get(p, page.Pointer{FileID: 9, PageID: 1}); err == nil {
		t.Fatal("expected error for unknown file")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after a failed fetch", c.Len())
	}
}

func TestPageCacheEviction(t *testing.T) {
	p := mdftest.NewProvider()
	c := NewPageCache(4)

	for i := uint32(0); i < 10; i++ {
		ptr := page.Pointer{FileID: 1, PageID: i}
		mdftest.NewPage(page.TypeData, ptr).Into(p)
		if _, err := c.Get(p, ptr); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 4 {
		t.Errorf("Len() = %d, want 4", c.Len())
	}

	c.Remove(page.Pointer{FileID: 1, PageID: 9})
	if c.Len() != 3 {
		t.Errorf("Len() after Remove = %d, want 3", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}

func BenchmarkLRUCacheGet(b *testing.B) {
	c := NewLRUCache[string, int](Config{MaxSize: 1000})
	for i := 0; i < 1000; i++ {
		c.Put(fmt.Sprintf("key-%d", i), i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(fmt.Sprintf("key-%d", i%1000))
	}
}
