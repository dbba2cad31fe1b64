package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/podsift/podsift/engine/search"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := loadConfig()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Collection != "podsift" {
		t.Errorf("Collection = %q, want podsift", cfg.Collection)
	}
	if cfg.EmbedDims != 768 {
		t.Errorf("EmbedDims = %d, want 768", cfg.EmbedDims)
	}
	if cfg.MinScore != 0.5 || cfg.SynthMinScore != 0.7 {
		t.Errorf("thresholds = %v / %v, want 0.5 / 0.7", cfg.MinScore, cfg.SynthMinScore)
	}
	if cfg.NatsURL != "" {
		t.Errorf("NatsURL should default empty, got %q", cfg.NatsURL)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("SYNTH_MIN_SCORE", "0.85")
	t.Setenv("CACHE_TTL_SECONDS", "60")

	cfg := loadConfig()
	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Port)
	}
	if cfg.SynthMinScore != 0.85 {
		t.Errorf("SynthMinScore = %v, want 0.85", cfg.SynthMinScore)
	}
	if cfg.CacheTTL.Seconds() != 60 {
		t.Errorf("CacheTTL = %v, want 60s", cfg.CacheTTL)
	}
}

func TestEnvHelpersIgnoreGarbage(t *testing.T) {
	t.Setenv("EMBED_DIMS", "not a number")
	t.Setenv("SEARCH_MIN_SCORE", "also not")

	if got := envInt("EMBED_DIMS", 768); got != 768 {
		t.Errorf("envInt = %d, want fallback", got)
	}
	if got := envFloat("SEARCH_MIN_SCORE", 0.5); got != 0.5 {
		t.Errorf("envFloat = %v, want fallback", got)
	}
}

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	handleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}

// validation failures surface before any collaborator is touched, so a
// service with no wired dependencies is enough to exercise the 400 paths.
func emptyService(t *testing.T) *search.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return search.New(nil, nil, nil, nil, nil, nil, nil, nil, search.Options{}, nil, logger)
}

func TestHandleSearchRejectsBadJSON(t *testing.T) {
	h := handleSearch(emptyService(t), slog.Default())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader("{not json")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSearchRejectsInvalidRequest(t *testing.T) {
	h := handleSearch(emptyService(t), slog.Default())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"query":"x","limit":-1}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] == "" {
		t.Error("error body should name the validation failure")
	}
}
