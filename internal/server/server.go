// Package server exposes the evaluation pipeline over HTTP.
//
// Endpoints:
//
//   - POST /v1/evaluate  — multipart form (audio file, target sentence,
//     optional speaker name); runs the full pipeline and returns the complete
//     response object: both tutors' evaluations, the merge log, and any
//     per-stage errors.
//   - GET /v1/attempts   — recent persisted attempts, optionally filtered by
//     user.
//   - GET /healthz, /readyz, /metrics — operational endpoints.
//
// The caller always receives a complete response: engine failures surface as
// degraded scores and stage-error entries, never as 5xx statuses.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verbalis-ai/verbalis/internal/health"
	"github.com/verbalis-ai/verbalis/internal/observe"
	"github.com/verbalis-ai/verbalis/internal/pipeline"
	"github.com/verbalis-ai/verbalis/internal/session"
	"github.com/verbalis-ai/verbalis/internal/store"
	"github.com/verbalis-ai/verbalis/internal/tutor"
	"github.com/verbalis-ai/verbalis/pkg/types"
)

const (
	// maxUploadBytes bounds one evaluation request body. A minute of 48 kHz
	// stereo 16-bit WAV is ~11 MiB; anything bigger is not a sentence.
	maxUploadBytes = 16 << 20

	// requestTimeout bounds one full pipeline run, including both engine
	// round-trips per tutor.
	requestTimeout = 5 * time.Minute
)

// Server handles Verbalis HTTP traffic. Construct with [New].
type Server struct {
	graph    *pipeline.Graph
	attempts store.AttemptStore
	health   *health.Handler
	logger   *slog.Logger
	metrics  *observe.Metrics
}

// Option is a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets the structured logger. Defaults to [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a Server around a built coaching graph and attempt store.
func New(graph *pipeline.Graph, attempts store.AttemptStore, healthHandler *health.Handler, opts ...Option) (*Server, error) {
	if graph == nil {
		return nil, errors.New("server: graph must not be nil")
	}
	if attempts == nil {
		return nil, errors.New("server: attempt store must not be nil")
	}
	s := &Server{
		graph:    graph,
		attempts: attempts,
		health:   healthHandler,
		logger:   slog.Default(),
		metrics:  observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Handler returns the fully wired HTTP handler, including the observability
// middleware, metrics endpoint, and health probes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("GET /v1/attempts", s.handleAttempts)
	mux.Handle("GET /metrics", promhttp.Handler())
	if s.health != nil {
		s.health.Register(mux)
	}
	return observe.Middleware(s.metrics)(mux)
}

// evaluateResponse is the JSON body returned by POST /v1/evaluate.
type evaluateResponse struct {
	AttemptID   string                   `json:"attempt_id,omitempty"`
	Target      string                   `json:"target"`
	Results     []*tutor.Evaluation      `json:"results"`
	Complete    bool                     `json:"complete"`
	StageErrors map[string]string        `json:"stage_errors,omitempty"`
	MergeLog    []pipeline.MergeDecision `json:"merge_log"`
}

// handleEvaluate parses the multipart form, seeds a fresh pipeline state from
// a new session, runs the graph, and assembles the response from the final
// state.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	target := r.FormValue("target")
	if target == "" {
		s.writeError(w, http.StatusBadRequest, "form field \"target\" is required")
		return
	}

	sample, err := s.readAudio(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := session.New(r.FormValue("name"), target, sample)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	s.metrics.ActiveEvaluations.Add(ctx, 1)
	defer s.metrics.ActiveEvaluations.Add(ctx, -1)
	start := time.Now()

	state := pipeline.NewState(sess.Seed())
	if err := s.graph.Run(ctx, state); err != nil {
		// Only context cancellation reaches here; stage failures live in the
		// state.
		s.logger.Error("pipeline run aborted", "session", sess.ID, "error", err)
		s.writeError(w, http.StatusServiceUnavailable, "evaluation timed out")
		return
	}
	s.metrics.PipelineDuration.Record(ctx, time.Since(start).Seconds())

	resp := evaluateResponse{
		Target:      sess.TargetText,
		StageErrors: state.StageErrors(),
		MergeLog:    state.MergeLog(),
	}
	if v, ok := state.Get(pipeline.KeySynthesisDone); ok {
		resp.Complete, _ = v.(bool)
	}
	resp.AttemptID = state.GetString(pipeline.KeyAttemptID)
	for _, key := range []pipeline.Key{pipeline.KeyResultUS, pipeline.KeyResultUK} {
		if v, ok := state.Get(key); ok {
			if ev, ok := v.(*tutor.Evaluation); ok {
				resp.Results = append(resp.Results, ev)
			}
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// readAudio extracts the uploaded audio file. A missing file is not a request
// error; it degrades downstream via the ingest stage, keeping upload-surface
// behavior consistent with the pipeline's error model. Read failures on a
// present file are 4xx.
func (s *Server) readAudio(r *http.Request) (types.AudioSample, error) {
	file, header, err := r.FormFile("audio")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return types.AudioSample{}, nil
		}
		return types.AudioSample{}, errors.New("form field \"audio\" is invalid: " + err.Error())
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return types.AudioSample{}, errors.New("read audio upload: " + err.Error())
	}
	return types.AudioSample{Name: header.Filename, Data: data}, nil
}

// handleAttempts returns recent persisted attempts, newest first.
func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "query parameter \"limit\" must be a positive integer")
			return
		}
		limit = n
	}

	attempts, err := s.attempts.RecentAttempts(r.Context(), r.URL.Query().Get("user"), limit)
	if err != nil {
		s.logger.Error("list attempts failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not list attempts")
		return
	}
	if attempts == nil {
		attempts = []store.Attempt{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
