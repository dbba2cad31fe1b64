package metadata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/podsift/podsift/engine/domain"
)

// --- Mocks ---

type mockResult struct {
	records []*neo4j.Record
	pos     int
}

func (m *mockResult) Next(_ context.Context) bool {
	if m.pos < len(m.records) {
		m.pos++
		return true
	}
	return false
}

func (m *mockResult) Record() *neo4j.Record { return m.records[m.pos-1] }

type mockRunner struct {
	res    *mockResult
	err    error
	cypher string
	params map[string]any
}

func (m *mockRunner) Run(_ context.Context, cypher string, params map[string]any) (result, error) {
	m.cypher = cypher
	m.params = params
	return m.res, m.err
}

func (m *mockRunner) Close(_ context.Context) error { return nil }

func record(id, podcast, title string, published any, topics []any) *neo4j.Record {
	return &neo4j.Record{
		Keys:   []string{"id", "podcast_name", "episode_title", "published_at", "topics"},
		Values: []any{id, podcast, title, published, topics},
	}
}

func storeWith(r *mockRunner) *Neo4jStore {
	return &Neo4jStore{newSession: func(_ context.Context) runner { return r }}
}

// --- Tests ---

func TestBatchGet_DecodesRecords(t *testing.T) {
	published := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	rn := &mockRunner{res: &mockResult{records: []*neo4j.Record{
		record("ep-1", "Hard Fork", "The AI Episode", published, []any{"ai", "tech"}),
		record("uuid-77aa", "Acquired", "NVIDIA Part III", nil, nil),
	}}}
	s := storeWith(rn)

	meta, err := s.BatchGet(context.Background(), []domain.EpisodeID{"ep-1", "uuid-77aa", "missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meta) != 2 {
		t.Fatalf("expected 2 records, got %d", len(meta))
	}

	m1 := meta["ep-1"]
	if m1.PodcastName != "Hard Fork" || m1.EpisodeTitle != "The AI Episode" {
		t.Errorf("unexpected record: %+v", m1)
	}
	if m1.PublishedAt == nil || !m1.PublishedAt.Equal(published) {
		t.Errorf("unexpected published_at: %v", m1.PublishedAt)
	}
	if len(m1.Topics) != 2 {
		t.Errorf("unexpected topics: %v", m1.Topics)
	}

	m2 := meta["uuid-77aa"]
	if m2.PublishedAt != nil || m2.Topics != nil {
		t.Errorf("absent optionals must stay nil: %+v", m2)
	}

	// Opaque IDs are passed through untouched.
	ids, _ := rn.params["ids"].([]string)
	if len(ids) != 3 {
		t.Errorf("expected all 3 ids in one batch, got %v", ids)
	}
}

func TestBatchGet_RunError(t *testing.T) {
	s := storeWith(&mockRunner{err: errors.New("unreachable")})
	_, err := s.BatchGet(context.Background(), []domain.EpisodeID{"ep-1"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestBatchGet_StringPublishedAt(t *testing.T) {
	rn := &mockRunner{res: &mockResult{records: []*neo4j.Record{
		record("ep-1", "Show", "Title", "2025-06-01T10:00:00Z", nil),
	}}}
	s := storeWith(rn)

	meta, err := s.BatchGet(context.Background(), []domain.EpisodeID{"ep-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := meta["ep-1"].PublishedAt
	if got == nil || got.Year() != 2025 || got.Month() != 6 {
		t.Errorf("RFC3339 string published_at must decode, got %v", got)
	}
}
