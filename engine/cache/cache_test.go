package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/podsift/podsift/engine/domain"
)

func resultsFor(id string) []domain.ScoredResult {
	return []domain.ScoredResult{
		{Fragment: domain.TranscriptFragment{EpisodeID: domain.EpisodeID(id), ChunkIndex: 0, Text: "text"}, Score: 0.9, Source: domain.SourceVector},
	}
}

func TestKey_Deterministic(t *testing.T) {
	a := Key("openai", 10, 0.5)
	b := Key("openai", 10, 0.5)
	if a != b {
		t.Errorf("same inputs must derive same key: %q vs %q", a, b)
	}
}

func TestKey_ParameterSensitive(t *testing.T) {
	base := Key("openai", 10, 0.5)
	if Key("anthropic", 10, 0.5) == base {
		t.Error("different query must change key")
	}
	if Key("openai", 20, 0.5) == base {
		t.Error("different limit must change key")
	}
	if Key("openai", 10, 0.6) == base {
		t.Error("different min score must change key")
	}
}

func TestGetPut(t *testing.T) {
	c := New(10, time.Minute)

	if _, ok := c.Get(Key("q", 10, 0.5)); ok {
		t.Fatal("expected miss on empty cache")
	}

	k := Key("q", 10, 0.5)
	c.Put(k, resultsFor("ep-1"))

	got, ok := c.Get(k)
	if !ok {
		t.Fatal("expected hit")
	}
	if len(got) != 1 || got[0].Fragment.EpisodeID != "ep-1" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	c := New(10, time.Minute)
	k := Key("q", 10, 0.5)
	c.Put(k, resultsFor("ep-1"))

	first, _ := c.Get(k)
	first[0].Score = 0.0

	second, _ := c.Get(k)
	if second[0].Score != 0.9 {
		t.Error("mutating a returned payload must not affect the cached entry")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(10, 20*time.Millisecond)
	k := Key("q", 10, 0.5)
	c.Put(k, resultsFor("ep-1"))

	if _, ok := c.Get(k); !ok {
		t.Fatal("expected hit before TTL")
	}

	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get(k); ok {
		t.Error("expected miss after TTL expiry")
	}
}

func TestCapacityEviction_LRU(t *testing.T) {
	c := New(2, time.Minute)
	k1 := Key("one", 10, 0.5)
	k2 := Key("two", 10, 0.5)
	k3 := Key("three", 10, 0.5)

	c.Put(k1, resultsFor("ep-1"))
	c.Put(k2, resultsFor("ep-2"))

	// Touch k1 so k2 becomes least recently used.
	if _, ok := c.Get(k1); !ok {
		t.Fatal("expected hit on k1")
	}

	c.Put(k3, resultsFor("ep-3"))

	if _, ok := c.Get(k2); ok {
		t.Error("expected LRU entry k2 to be evicted")
	}
	if _, ok := c.Get(k1); !ok {
		t.Error("recently used k1 must survive")
	}
	if _, ok := c.Get(k3); !ok {
		t.Error("newly inserted k3 must be present")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(50, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				k := Key(fmt.Sprintf("query-%d", j%10), 10, 0.5)
				c.Put(k, resultsFor(fmt.Sprintf("ep-%d", i)))
				c.Get(k)
			}
		}(i)
	}
	wg.Wait()
}
