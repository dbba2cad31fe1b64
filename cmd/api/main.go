// Package main implements the podsift API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/podsift/podsift/engine/cache"
	"github.com/podsift/podsift/engine/domain"
	"github.com/podsift/podsift/engine/metadata"
	"github.com/podsift/podsift/engine/search"
	"github.com/podsift/podsift/engine/semantic"
	"github.com/podsift/podsift/engine/synth"
	"github.com/podsift/podsift/pkg/metrics"
	"github.com/podsift/podsift/pkg/mid"
	"github.com/podsift/podsift/pkg/natsutil"
	"github.com/podsift/podsift/pkg/ollama"
	"github.com/podsift/podsift/pkg/resilience"
)

// Config holds all environment-based configuration.
type Config struct {
	Port       string
	QdrantURL  string
	Collection string
	EmbedDims  int
	Neo4jURL   string
	Neo4jUser  string
	Neo4jPass  string
	OllamaURL  string
	EmbedModel string
	GenModel   string
	NatsURL    string
	CORSOrigin string

	SearchLimit      int
	MinScore         float64
	SynthMinScore    float64
	MinVectorResults int

	CacheSize int
	CacheTTL  time.Duration

	RateRPS   float64
	RateBurst int
}

func loadConfig() Config {
	return Config{
		Port:       envOr("PORT", "8080"),
		QdrantURL:  envOr("QDRANT_URL", "localhost:6334"),
		Collection: envOr("QDRANT_COLLECTION", "podsift"),
		EmbedDims:  envInt("EMBED_DIMS", 768),
		Neo4jURL:   envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:  envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:  envOr("NEO4J_PASS", "password"),
		OllamaURL:  envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel: envOr("EMBED_MODEL", "nomic-embed-text"),
		GenModel:   envOr("GENERATE_MODEL", "llama3.1"),
		NatsURL:    os.Getenv("NATS_URL"), // empty disables eventing
		CORSOrigin: envOr("CORS_ORIGIN", "*"),

		SearchLimit:      envInt("SEARCH_LIMIT", 30),
		MinScore:         envFloat("SEARCH_MIN_SCORE", 0.5),
		SynthMinScore:    envFloat("SYNTH_MIN_SCORE", 0.7),
		MinVectorResults: envInt("MIN_VECTOR_RESULTS", 3),

		CacheSize: envInt("CACHE_SIZE", cache.DefaultSize),
		CacheTTL:  time.Duration(envInt("CACHE_TTL_SECONDS", int(cache.DefaultTTL.Seconds()))) * time.Second,

		RateRPS:   envFloat("RATE_LIMIT_RPS", 20),
		RateBurst: envInt("RATE_LIMIT_BURST", 40),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Connect to Qdrant ---
	vectorStore, err := semantic.New(cfg.QdrantURL, cfg.Collection, cfg.EmbedDims)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vectorStore.Close()

	// --- Connect to Neo4j ---
	neo4jDriver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer neo4jDriver.Close(ctx)

	enricher := metadata.NewEnricher(metadata.NewNeo4jStore(neo4jDriver), metadata.DefaultTimeout, logger)

	// --- Connect to NATS (optional) ---
	var bus *natsutil.Bus
	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL, nats.Name("podsift-api"))
		if err != nil {
			logger.Warn("nats connect failed, eventing disabled", "err", err)
		} else {
			defer nc.Drain()
			bus = natsutil.NewBus(nc)
		}
	}

	// --- Ollama clients behind breakers ---
	embedClient := ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel)
	genClient := ollama.NewGenerateClient(cfg.OllamaURL, cfg.GenModel)
	embedBreaker := resilience.NewBreaker(resilience.DefaultBreakerOpts)
	llmBreaker := resilience.NewBreaker(resilience.DefaultBreakerOpts)

	// --- Build pipeline ---
	reg := metrics.New()

	synthesizer := synth.New(genClient, llmBreaker, publisherOrNil(bus), synth.DefaultOptions(), logger)

	svc := search.New(
		embedClient,
		embedBreaker,
		vectorStore,
		vectorStore,
		enricher,
		synthesizer,
		cache.New(cfg.CacheSize, cfg.CacheTTL),
		publisherOrNil(bus),
		search.Options{
			SearchLimit:      cfg.SearchLimit,
			MinScore:         cfg.MinScore,
			SynthMinScore:    cfg.SynthMinScore,
			MinVectorResults: cfg.MinVectorResults,
			Dims:             cfg.EmbedDims,
		},
		reg,
		logger,
	)

	// --- Build HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/search", handleSearch(svc, logger))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.OTel("podsift-api"),
		mid.CORS(cfg.CORSOrigin),
		mid.Throttle(resilience.NewLimiter(cfg.RateRPS, cfg.RateBurst)),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// publisherOrNil avoids handing a typed-nil *Bus to an interface field.
func publisherOrNil(bus *natsutil.Bus) search.Publisher {
	if bus == nil {
		return nil
	}
	return bus
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleSearch(svc *search.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.Search(r.Context(), req)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				writeError(w, http.StatusBadRequest, verr.Error())
				return
			}
			logger.Error("search failed", "err", err, "request_id", mid.RequestIDFrom(r.Context()))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
