package search

import (
	"strings"
	"testing"

	"github.com/podsift/podsift/engine/domain"
)

func TestMethodOf(t *testing.T) {
	res := func(sources ...domain.Source) []domain.ScoredResult {
		out := make([]domain.ScoredResult, len(sources))
		for i, s := range sources {
			out[i].Source = s
		}
		return out
	}

	tests := []struct {
		name    string
		results []domain.ScoredResult
		want    string
	}{
		{"empty", nil, domain.MethodVector},
		{"vector only", res(domain.SourceVector, domain.SourceVector), domain.MethodVector},
		{"lexical only", res(domain.SourceLexical), domain.MethodText},
		{"mixed", res(domain.SourceVector, domain.SourceLexical), domain.MethodHybrid},
		{"both source", res(domain.SourceBoth), domain.MethodHybrid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := methodOf(tt.results); got != tt.want {
				t.Errorf("methodOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMakeExcerpt(t *testing.T) {
	short := "a short fragment"
	if got := makeExcerpt("  " + short + "  "); got != short {
		t.Errorf("short text should pass through trimmed, got %q", got)
	}

	long := strings.Repeat("podcast transcription words here ", 40)
	got := makeExcerpt(long)
	if len([]rune(got)) > maxExcerptRunes+1 {
		t.Errorf("excerpt too long: %d runes", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated excerpt should end with ellipsis: %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Errorf("excerpt has mangled spacing: %q", got)
	}
	body := strings.TrimSuffix(got, "…")
	if !strings.HasSuffix(body, "here") && !strings.HasSuffix(body, "words") && !strings.HasSuffix(body, "transcription") && !strings.HasSuffix(body, "podcast") {
		t.Errorf("excerpt split mid-word: %q", body)
	}
}
