// Package semantic owns all Qdrant operations for the search pipeline:
// candidate-pool similarity search with score-threshold filtering, and the
// full-text scroll backing the lexical fallback.
package semantic

import (
	"context"
	"errors"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ErrBadVector is returned for a malformed or undersized query embedding.
// This is an input error on the executor, not an upstream degrade.
var ErrBadVector = errors.New("bad embedding vector")

// pointsAPI is the slice of Qdrant's PointsClient this store needs.
type pointsAPI interface {
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
	Scroll(ctx context.Context, in *pb.ScrollPoints, opts ...grpc.CallOption) (*pb.ScrollResponse, error)
}

// VectorStore executes searches against one Qdrant collection of
// transcript fragments. The fragment corpus is read-only to this service;
// the ingestion pipeline owns writes.
type VectorStore struct {
	conn       *grpc.ClientConn
	points     pointsAPI
	collection string
	dims       int
}

// New connects to Qdrant at the given gRPC address.
func New(addr, collection string, dims int) (*VectorStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &VectorStore{
		conn:       conn,
		points:     pb.NewPointsClient(conn),
		collection: collection,
		dims:       dims,
	}, nil
}

// NewWithClients builds a store around an existing points client. Used by tests.
func NewWithClients(points pointsAPI, collection string, dims int) *VectorStore {
	return &VectorStore{points: points, collection: collection, dims: dims}
}

// Close closes the underlying gRPC connection.
func (v *VectorStore) Close() error {
	if v.conn == nil {
		return nil
	}
	return v.conn.Close()
}

// Dims returns the embedding dimensionality the collection was built with.
func (v *VectorStore) Dims() int { return v.dims }

// Search fetches an oversized candidate pool, filters to score >= MinScore,
// and truncates to Limit. Equal scores keep the store's original ordering so
// cache entries and pagination stay deterministic.
func (v *VectorStore) Search(ctx context.Context, embedding []float32, p SearchParams) ([]Hit, error) {
	if len(embedding) != v.dims {
		return nil, fmt.Errorf("semantic: embedding has %d dimensions, want %d: %w", len(embedding), v.dims, ErrBadVector)
	}
	if p.Limit <= 0 {
		return nil, nil
	}

	threshold := float32(p.MinScore)
	resp, err := v.points.Search(ctx, &pb.SearchPoints{
		CollectionName: v.collection,
		Vector:         embedding,
		Limit:          uint64(p.pool()),
		ScoreThreshold: &threshold,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: search: %w", err)
	}

	hits := make([]Hit, 0, p.Limit)
	for _, r := range resp.GetResult() {
		score := float64(r.GetScore())
		if score < p.MinScore {
			continue
		}
		hits = append(hits, Hit{
			Fragment: decodeFragment(r.GetPayload()),
			Score:    score,
		})
		if len(hits) == p.Limit {
			break
		}
	}
	return hits, nil
}
