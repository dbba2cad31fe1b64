// Package metadata joins raw fragment hits with episode/podcast records
// from the metadata store. A missing record never drops a result; the
// fragment is returned with explicit fallback fields instead.
package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/podsift/podsift/engine/domain"
)

// Store is the metadata lookup consumed by the enricher. IDs absent from
// the store are simply absent from the returned map.
type Store interface {
	BatchGet(ctx context.Context, ids []domain.EpisodeID) (map[domain.EpisodeID]domain.EpisodeMetadata, error)
}

// result is the minimal interface needed from a neo4j result.
type result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
}

// runner is the minimal interface needed from a neo4j session.
type runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (result, error)
	Close(ctx context.Context) error
}

// Neo4jStore reads episode metadata from a
// (:Podcast)-[:HAS_EPISODE]->(:Episode) graph.
type Neo4jStore struct {
	driver     neo4j.DriverWithContext
	newSession func(ctx context.Context) runner // for testing
}

// NewNeo4jStore creates a Neo4j-backed metadata store.
func NewNeo4jStore(driver neo4j.DriverWithContext) *Neo4jStore {
	return &Neo4jStore{driver: driver}
}

var _ Store = (*Neo4jStore)(nil)

type neo4jSessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a *neo4jSessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (result, error) {
	return a.sess.Run(ctx, cypher, params)
}

func (a *neo4jSessionAdapter) Close(ctx context.Context) error {
	return a.sess.Close(ctx)
}

func (s *Neo4jStore) session(ctx context.Context) runner {
	if s.newSession != nil {
		return s.newSession(ctx)
	}
	return &neo4jSessionAdapter{sess: s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})}
}

const batchGetCypher = `
UNWIND $ids AS id
MATCH (p:Podcast)-[:HAS_EPISODE]->(e:Episode {id: id})
RETURN e.id AS id, p.name AS podcast_name, e.title AS episode_title,
       e.published_at AS published_at, e.topics AS topics`

// BatchGet looks up all ids in a single round trip. Episode identifiers are
// opaque strings; no format is assumed when matching.
func (s *Neo4jStore) BatchGet(ctx context.Context, ids []domain.EpisodeID) (map[domain.EpisodeID]domain.EpisodeMetadata, error) {
	sess := s.session(ctx)
	defer sess.Close(ctx)

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = string(id)
	}

	res, err := sess.Run(ctx, batchGetCypher, map[string]any{"ids": strIDs})
	if err != nil {
		return nil, fmt.Errorf("metadata: batch get: %w", err)
	}

	out := make(map[domain.EpisodeID]domain.EpisodeMetadata, len(ids))
	for res.Next(ctx) {
		meta := recordToMetadata(res.Record())
		if !meta.EpisodeID.IsZero() {
			out[meta.EpisodeID] = meta
		}
	}
	return out, nil
}

// recordToMetadata decodes one row, tolerating missing or oddly typed
// properties from the loosely schemed graph.
func recordToMetadata(rec *neo4j.Record) domain.EpisodeMetadata {
	meta := domain.EpisodeMetadata{}
	if v, ok := rec.Get("id"); ok {
		if s, ok := v.(string); ok {
			meta.EpisodeID = domain.EpisodeID(s)
		}
	}
	if v, ok := rec.Get("podcast_name"); ok {
		if s, ok := v.(string); ok {
			meta.PodcastName = s
		}
	}
	if v, ok := rec.Get("episode_title"); ok {
		if s, ok := v.(string); ok {
			meta.EpisodeTitle = s
		}
	}
	if v, ok := rec.Get("published_at"); ok {
		switch tv := v.(type) {
		case time.Time:
			meta.PublishedAt = &tv
		case string:
			if ts, err := time.Parse(time.RFC3339, tv); err == nil {
				meta.PublishedAt = &ts
			}
		}
	}
	if v, ok := rec.Get("topics"); ok {
		if raw, ok := v.([]any); ok {
			for _, item := range raw {
				if s, ok := item.(string); ok {
					meta.Topics = append(meta.Topics, s)
				}
			}
		}
	}
	return meta
}
