package semantic

import (
	pb "github.com/qdrant/go-client/qdrant"

	"github.com/podsift/podsift/engine/domain"
)

// Payload field names under which fragment attributes are stored in Qdrant.
// The ingestion pipeline owns the write side of this contract.
const (
	fieldEpisodeID  = "episode_id"
	fieldFeedSlug   = "feed_slug"
	fieldChunkIndex = "chunk_index"
	fieldText       = "text"
	fieldStartTime  = "start_time"
	fieldEndTime    = "end_time"
	fieldSpeaker    = "speaker"
)

// Hit is one raw search hit: a fragment and its path-specific score.
// Vector hits carry cosine similarity in [0,1]; lexical hits carry the
// fraction of query terms matched. Fusion maps both onto one scale.
type Hit struct {
	Fragment domain.TranscriptFragment
	Score    float64
}

// SearchParams controls one vector search execution.
type SearchParams struct {
	// Limit is the number of results to return after filtering.
	Limit int
	// MinScore drops candidates below this similarity.
	MinScore float64
	// PoolMultiplier oversizes the candidate fetch to compensate for
	// post-filtering. Zero means DefaultPoolMultiplier.
	PoolMultiplier int
}

// DefaultPoolMultiplier is the candidate-pool oversizing factor.
const DefaultPoolMultiplier = 10

func (p SearchParams) pool() int {
	m := p.PoolMultiplier
	if m <= 0 {
		m = DefaultPoolMultiplier
	}
	return p.Limit * m
}

// decodeFragment rebuilds a TranscriptFragment from a point payload.
func decodeFragment(payload map[string]*pb.Value) domain.TranscriptFragment {
	f := domain.TranscriptFragment{
		EpisodeID:  domain.EpisodeID(payloadString(payload, fieldEpisodeID)),
		FeedSlug:   payloadString(payload, fieldFeedSlug),
		ChunkIndex: int(payloadInt(payload, fieldChunkIndex)),
		Text:       payloadString(payload, fieldText),
		StartTime:  payloadFloat(payload, fieldStartTime),
		EndTime:    payloadFloat(payload, fieldEndTime),
	}
	if s := payloadString(payload, fieldSpeaker); s != "" {
		f.Speaker = &s
	}
	return f
}

func payloadString(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func payloadInt(payload map[string]*pb.Value, key string) int64 {
	if v, ok := payload[key]; ok {
		return v.GetIntegerValue()
	}
	return 0
}

func payloadFloat(payload map[string]*pb.Value, key string) float64 {
	if v, ok := payload[key]; ok {
		if d := v.GetDoubleValue(); d != 0 {
			return d
		}
		// Whole-number seconds may arrive as integers.
		return float64(v.GetIntegerValue())
	}
	return 0
}
