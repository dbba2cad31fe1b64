package metadata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/podsift/podsift/engine/domain"
)

type fakeStore struct {
	meta  map[domain.EpisodeID]domain.EpisodeMetadata
	err   error
	calls int
	ids   []domain.EpisodeID
}

func (f *fakeStore) BatchGet(_ context.Context, ids []domain.EpisodeID) (map[domain.EpisodeID]domain.EpisodeMetadata, error) {
	f.calls++
	f.ids = ids
	return f.meta, f.err
}

func scored(id string, chunk int, slug string) domain.ScoredResult {
	return domain.ScoredResult{
		Fragment: domain.TranscriptFragment{EpisodeID: domain.EpisodeID(id), ChunkIndex: chunk, FeedSlug: slug},
		Score:    0.8,
		Source:   domain.SourceVector,
	}
}

func TestEnrich_JoinsMetadata(t *testing.T) {
	published := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{meta: map[domain.EpisodeID]domain.EpisodeMetadata{
		"ep-1": {EpisodeID: "ep-1", PodcastName: "Deep Dive", EpisodeTitle: "Fusion Energy", PublishedAt: &published, Topics: []string{"energy"}},
	}}
	e := NewEnricher(store, time.Second, nil)

	out := e.Enrich(context.Background(), []domain.ScoredResult{scored("ep-1", 0, "deep-dive")})
	if out[0].PodcastName != "Deep Dive" || out[0].EpisodeTitle != "Fusion Energy" {
		t.Errorf("metadata not joined: %+v", out[0])
	}
	if out[0].PublishedAt == nil || !out[0].PublishedAt.Equal(published) {
		t.Errorf("published_at not joined: %v", out[0].PublishedAt)
	}
}

func TestEnrich_OrphanGetsFallbacks(t *testing.T) {
	store := &fakeStore{meta: map[domain.EpisodeID]domain.EpisodeMetadata{}}
	e := NewEnricher(store, time.Second, nil)

	out := e.Enrich(context.Background(), []domain.ScoredResult{scored("ghost-ep", 0, "orphan-feed")})
	if len(out) != 1 {
		t.Fatal("orphaned reference must never drop the result")
	}
	if out[0].PodcastName != "orphan-feed" {
		t.Errorf("podcast_name must default to feed_slug, got %q", out[0].PodcastName)
	}
	if out[0].EpisodeTitle != domain.UnknownEpisodeTitle {
		t.Errorf("episode_title must default to placeholder, got %q", out[0].EpisodeTitle)
	}
	if out[0].PublishedAt != nil || len(out[0].Topics) != 0 {
		t.Errorf("expected nil published_at and empty topics: %+v", out[0])
	}
}

func TestEnrich_StoreFailureDegrades(t *testing.T) {
	store := &fakeStore{err: errors.New("neo4j unreachable")}
	e := NewEnricher(store, time.Second, nil)

	out := e.Enrich(context.Background(), []domain.ScoredResult{scored("ep-1", 0, "slug-1")})
	if len(out) != 1 {
		t.Fatal("store failure must never drop results")
	}
	if out[0].PodcastName != "slug-1" || out[0].EpisodeTitle != domain.UnknownEpisodeTitle {
		t.Errorf("expected fallbacks on store failure: %+v", out[0])
	}
}

func TestEnrich_SingleBatchDedupedIDs(t *testing.T) {
	store := &fakeStore{meta: map[domain.EpisodeID]domain.EpisodeMetadata{}}
	e := NewEnricher(store, time.Second, nil)

	e.Enrich(context.Background(), []domain.ScoredResult{
		scored("ep-1", 0, "a"),
		scored("ep-1", 1, "a"),
		scored("ep-2", 0, "b"),
	})
	if store.calls != 1 {
		t.Errorf("expected exactly one batch lookup, got %d", store.calls)
	}
	if len(store.ids) != 2 {
		t.Errorf("expected 2 deduplicated ids, got %v", store.ids)
	}
}

func TestEnrich_EmptyResultsNoLookup(t *testing.T) {
	store := &fakeStore{}
	e := NewEnricher(store, time.Second, nil)
	e.Enrich(context.Background(), nil)
	if store.calls != 0 {
		t.Error("no lookup expected for empty results")
	}
}
