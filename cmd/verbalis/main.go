// Command verbalis is the main entry point for the Verbalis pronunciation
// coaching server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/verbalis-ai/verbalis/internal/config"
	"github.com/verbalis-ai/verbalis/internal/eval"
	"github.com/verbalis-ai/verbalis/internal/health"
	"github.com/verbalis-ai/verbalis/internal/observe"
	"github.com/verbalis-ai/verbalis/internal/pipeline"
	"github.com/verbalis-ai/verbalis/internal/server"
	"github.com/verbalis-ai/verbalis/internal/store"
	"github.com/verbalis-ai/verbalis/internal/store/postgres"
	"github.com/verbalis-ai/verbalis/internal/tutor"
	"github.com/verbalis-ai/verbalis/pkg/provider/stt"
	sttmock "github.com/verbalis-ai/verbalis/pkg/provider/stt/mock"
	"github.com/verbalis-ai/verbalis/pkg/provider/stt/vosk"
	"github.com/verbalis-ai/verbalis/pkg/provider/stt/whisper"
	"github.com/verbalis-ai/verbalis/pkg/provider/tts"
	"github.com/verbalis-ai/verbalis/pkg/provider/tts/coqui"
	"github.com/verbalis-ai/verbalis/pkg/provider/tts/elevenlabs"
	ttsmock "github.com/verbalis-ai/verbalis/pkg/provider/tts/mock"
	"github.com/verbalis-ai/verbalis/pkg/types"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "verbalis: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "verbalis: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("verbalis starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Engines ───────────────────────────────────────────────────────────────
	sttEngine, err := buildSTT(cfg.Providers.STT)
	if err != nil {
		slog.Error("failed to build recognition engine", "err", err)
		return 1
	}
	ttsEngine, err := buildTTS(cfg.Providers.TTS)
	if err != nil {
		slog.Error("failed to build synthesis engine", "err", err)
		return 1
	}
	slog.Info("engines ready",
		"stt", cfg.Providers.STT.Name,
		"tts", cfg.Providers.TTS.Name,
	)

	// ── Tutors ────────────────────────────────────────────────────────────────
	us, uk, err := buildTutors(cfg, sttEngine, ttsEngine)
	if err != nil {
		slog.Error("failed to build tutors", "err", err)
		return 1
	}

	// ── Attempt store ─────────────────────────────────────────────────────────
	attempts, checkers, err := buildStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to build attempt store", "err", err)
		return 1
	}
	defer attempts.Close()

	// ── Pipeline and server ───────────────────────────────────────────────────
	graph, err := pipeline.BuildCoachingGraph(us, uk, attempts, logger)
	if err != nil {
		slog.Error("failed to build coaching graph", "err", err)
		return 1
	}

	srv, err := server.New(graph, attempts, health.New(checkers...), server.WithLogger(logger))
	if err != nil {
		slog.Error("failed to build server", "err", err)
		return 1
	}

	listenAddr := cfg.Server.ListenAddr
	if listenAddr == "" {
		listenAddr = ":8080"
	}
	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server ready — press Ctrl+C to shut down", "addr", listenAddr)
		if cfg.Server.TLS != nil {
			errCh <- httpServer.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
		} else {
			errCh <- httpServer.ListenAndServe()
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			return 1
		}
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Engine wiring ─────────────────────────────────────────────────────────────

// buildSTT constructs the recognition engine named in entry.
func buildSTT(entry config.ProviderEntry) (stt.Engine, error) {
	switch entry.Name {
	case "whisper":
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		return whisper.New(entry.BaseURL, opts...)
	case "vosk":
		return vosk.New(entry.BaseURL)
	case "mock":
		// Recognizes nothing; useful for wiring tests without a real backend.
		return &sttmock.Engine{Transcript: &types.Transcript{WordConfidence: map[string]float64{}}}, nil
	default:
		return nil, fmt.Errorf("unknown stt engine %q", entry.Name)
	}
}

// buildTTS constructs the synthesis engine named in entry.
func buildTTS(entry config.ProviderEntry) (tts.Engine, error) {
	switch entry.Name {
	case "coqui":
		return coqui.New(entry.BaseURL)
	case "coqui-xtts":
		return coqui.New(entry.BaseURL, coqui.WithAPIMode(coqui.APIModeXTTS))
	case "elevenlabs":
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	case "mock":
		return &ttsmock.Engine{}, nil
	default:
		return nil, fmt.Errorf("unknown tts engine %q", entry.Name)
	}
}

// buildTutors creates the two accent personas the coaching graph expects.
// Both share the same engine instances; personas differ only in language tag
// and voice.
func buildTutors(cfg *config.Config, sttEngine stt.Engine, ttsEngine tts.Engine) (us, uk *tutor.Tutor, err error) {
	var opts []tutor.Option
	if cfg.Scoring.GraceSeconds > 0 {
		opts = append(opts, tutor.WithScorer(eval.NewScorer(eval.WithGraceSeconds(cfg.Scoring.GraceSeconds))))
	}

	build := func(name string) (*tutor.Tutor, error) {
		for _, tc := range cfg.Tutors {
			if tc.Name != name {
				continue
			}
			persona := tutor.Persona{
				Name:     tc.Name,
				Language: tc.Language,
				Voice: tts.VoiceProfile{
					ID:       tc.VoiceID,
					Name:     tc.VoiceName,
					Language: tc.Language,
				},
			}
			return tutor.New(persona, sttEngine, ttsEngine, opts...)
		}
		return nil, fmt.Errorf("no tutor named %q configured", name)
	}

	if us, err = build("us"); err != nil {
		return nil, nil, err
	}
	if uk, err = build("uk"); err != nil {
		return nil, nil, err
	}
	return us, uk, nil
}

// buildStore selects the attempt store: PostgreSQL when a DSN is configured,
// otherwise in-process memory. The returned checkers feed the readiness probe.
func buildStore(ctx context.Context, cfg *config.Config) (store.AttemptStore, []health.Checker, error) {
	if cfg.Storage.PostgresDSN == "" {
		slog.Info("using in-memory attempt store")
		return store.NewMemoryStore(), nil, nil
	}

	pg, err := postgres.NewStore(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("connected to postgres attempt store")
	checkers := []health.Checker{{Name: "database", Check: pg.Ping}}
	return pg, checkers, nil
}

// ── Logger ────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
