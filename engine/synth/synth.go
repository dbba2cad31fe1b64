// Package synth produces the short, citation-grounded answer from the top
// enriched results. The LLM is an unreliable collaborator: any failure,
// timeout, or citation-contract violation yields an absent answer, never a
// failed request and never a partially validated one.
package synth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/podsift/podsift/engine/domain"
	"github.com/podsift/podsift/pkg/resilience"
)

// LLMClient maps a prompt to completion text.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Publisher emits offline-review events. May be nil.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
}

// ViolationSubject carries synthesis contract violations for offline review.
const ViolationSubject = "podsift.synth.violation"

// ViolationEvent describes one rejected LLM response.
type ViolationEvent struct {
	Query  string    `json:"query"`
	Reply  string    `json:"reply"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// Options configures the synthesizer.
type Options struct {
	// MaxSources is the number of top results sent as numbered passages.
	MaxSources int
	// WordBudget is the hard word limit demanded of the answer.
	WordBudget int
	// Timeout bounds the LLM call.
	Timeout time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxSources: 6,
		WordBudget: 70,
		Timeout:    10 * time.Second,
	}
}

// Synthesizer orchestrates prompt building, the guarded LLM call, and
// structural citation validation.
type Synthesizer struct {
	llm     LLMClient
	breaker *resilience.Breaker
	events  Publisher
	opts    Options
	logger  *slog.Logger
}

// New creates a Synthesizer. breaker and events may be nil.
func New(llm LLMClient, breaker *resilience.Breaker, events Publisher, opts Options, logger *slog.Logger) *Synthesizer {
	if opts.MaxSources <= 0 {
		opts.MaxSources = DefaultOptions().MaxSources
	}
	if opts.WordBudget <= 0 {
		opts.WordBudget = DefaultOptions().WordBudget
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{llm: llm, breaker: breaker, events: events, opts: opts, logger: logger}
}

// Synthesize returns a validated answer, or nil when synthesis is not
// possible. The caller decides whether results clear the relevance bar for
// invoking synthesis at all.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, results []domain.ScoredResult) *domain.SynthesizedAnswer {
	if len(results) == 0 {
		return nil
	}

	sources := results
	if len(sources) > s.opts.MaxSources {
		sources = sources[:s.opts.MaxSources]
	}

	prompt := buildPrompt(question, sources, s.opts.WordBudget)

	llmCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	reply, err := s.generate(llmCtx, prompt)
	if err != nil {
		s.logger.Warn("synth: llm call failed, omitting answer", "err", err)
		return nil
	}

	reply = strings.TrimSpace(reply)
	cited, err := citedIndexes(reply, len(sources))
	if err != nil {
		s.reportViolation(ctx, question, reply, err)
		return nil
	}

	citations := make([]domain.Citation, len(cited))
	for i, idx := range cited {
		src := sources[idx-1]
		citations[i] = domain.Citation{
			Index:        idx,
			EpisodeID:    src.Fragment.EpisodeID,
			EpisodeTitle: src.EpisodeTitle,
			PodcastName:  src.PodcastName,
			Timestamp:    domain.FormatTimestamp(src.Fragment.StartTime),
			StartSeconds: src.Fragment.StartTime,
			ChunkText:    src.Fragment.Text,
		}
	}

	return &domain.SynthesizedAnswer{Text: reply, Citations: citations}
}

func (s *Synthesizer) generate(ctx context.Context, prompt string) (string, error) {
	if s.breaker == nil {
		return s.llm.Generate(ctx, prompt)
	}
	return resilience.Do(ctx, s.breaker, func(ctx context.Context) (string, error) {
		return s.llm.Generate(ctx, prompt)
	})
}

// reportViolation logs and publishes a rejected reply for offline review.
// Not retried within the request.
func (s *Synthesizer) reportViolation(ctx context.Context, question, reply string, cause error) {
	s.logger.Warn("synth: citation validation failed, omitting answer", "err", cause)
	if s.events == nil {
		return
	}
	event := ViolationEvent{
		Query:  question,
		Reply:  reply,
		Reason: cause.Error(),
		At:     time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, ViolationSubject, event); err != nil {
		s.logger.Warn("synth: violation event publish failed", "err", err)
	}
}
