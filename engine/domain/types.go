// Package domain defines core domain types, constants, and validation for the
// podsift search pipeline. It acts as the validation gate at pipeline entry points.
package domain

import (
	"fmt"
	"time"
)

// EpisodeID is an opaque episode identifier. The corpus mixes UUIDs,
// platform-prefixed IDs, and slugs, so no format beyond non-empty is assumed.
type EpisodeID string

// IsZero reports whether the ID is empty.
func (id EpisodeID) IsZero() bool { return id == "" }

// TranscriptFragment is a time-bounded slice of an episode transcript.
// Fragments are written by the ingestion pipeline and read-only here.
type TranscriptFragment struct {
	EpisodeID  EpisodeID `json:"episode_id"`
	FeedSlug   string    `json:"feed_slug"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	StartTime  float64   `json:"start_time"`
	EndTime    float64   `json:"end_time"`
	Speaker    *string   `json:"speaker,omitempty"`
}

// Key identifies a fragment within the corpus for dedup purposes.
func (f TranscriptFragment) Key() string {
	return fmt.Sprintf("%s#%d", f.EpisodeID, f.ChunkIndex)
}

// EpisodeMetadata holds the episode/podcast record joined in during
// enrichment. May be entirely absent for a fragment (orphaned reference).
type EpisodeMetadata struct {
	EpisodeID    EpisodeID  `json:"episode_id"`
	PodcastName  string     `json:"podcast_name"`
	EpisodeTitle string     `json:"episode_title"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	Topics       []string   `json:"topics,omitempty"`
}

// Source records which search path produced a result.
type Source string

const (
	SourceVector  Source = "vector"
	SourceLexical Source = "lexical"
	SourceBoth    Source = "both"
)

// Search methods reported to the caller.
const (
	MethodVector = "vector"
	MethodText   = "text"
	MethodHybrid = "hybrid"
)

// UnknownEpisodeTitle is attached when the metadata join misses.
const UnknownEpisodeTitle = "Unknown episode"

// ScoredResult is a fragment plus its fused score and, after enrichment,
// the joined episode metadata (fallback values when the join misses).
type ScoredResult struct {
	Fragment TranscriptFragment `json:"fragment"`
	Score    float64            `json:"score"`
	Source   Source             `json:"source"`

	PodcastName  string     `json:"podcast_name"`
	EpisodeTitle string     `json:"episode_title"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	Topics       []string   `json:"topics,omitempty"`
}

// Citation grounds one claim in the synthesized answer to an exact fragment.
type Citation struct {
	Index        int       `json:"index"`
	EpisodeID    EpisodeID `json:"episode_id"`
	EpisodeTitle string    `json:"episode_title"`
	PodcastName  string    `json:"podcast_name"`
	Timestamp    string    `json:"timestamp"`
	StartSeconds float64   `json:"start_seconds"`
	ChunkText    string    `json:"chunk_text"`
}

// SynthesizedAnswer is either fully present or absent; there is no
// partially-synthesized state.
type SynthesizedAnswer struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}

// SearchRequest is the inbound search payload.
type SearchRequest struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// Timespan is the audio window a result covers, in seconds.
type Timespan struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ResultItem is the outward-facing shape of one ranked result.
type ResultItem struct {
	EpisodeID    EpisodeID  `json:"episode_id"`
	FeedSlug     string     `json:"feed_slug"`
	ChunkIndex   int        `json:"chunk_index"`
	Speaker      *string    `json:"speaker,omitempty"`
	Score        float64    `json:"score"`
	Source       Source     `json:"source"`
	PodcastName  string     `json:"podcast_name"`
	EpisodeTitle string     `json:"episode_title"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	Topics       []string   `json:"topics,omitempty"`
	Excerpt      string     `json:"excerpt"`
	Timestamp    Timespan   `json:"timestamp"`
}

// SearchResponse is the assembled search payload.
type SearchResponse struct {
	Results          []ResultItem       `json:"results"`
	Answer           *SynthesizedAnswer `json:"answer"`
	TotalResults     int                `json:"total_results"`
	SearchMethod     string             `json:"search_method"`
	CacheHit         bool               `json:"cache_hit"`
	ProcessingTimeMs int64              `json:"processing_time_ms"`
}

// FormatTimestamp renders seconds as M:SS or H:MM:SS for citations.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
