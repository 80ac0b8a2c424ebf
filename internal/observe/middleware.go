package observe

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Route templates exposed by the Verbalis HTTP surface. Used as span names
// and metric attributes instead of raw request paths.
const (
	RouteEvaluate = "/v1/evaluate"
	RouteAttempts = "/v1/attempts"
	RouteHealthz  = "/healthz"
	RouteReadyz   = "/readyz"
	RouteMetrics  = "/metrics"
)

// routeLabel maps a request path to its route template. Unknown paths fold
// into "other" so scanners probing random URLs cannot inflate the metric
// label space.
func routeLabel(path string) string {
	switch path {
	case RouteEvaluate, RouteAttempts, RouteHealthz, RouteReadyz, RouteMetrics:
		return path
	}
	return "other"
}

// isProbe reports whether the route is an operational probe. Probes are hit
// every few seconds by schedulers and scrapers; they get a duration sample
// but no span and no completion log.
func isProbe(route string) bool {
	return route == RouteHealthz || route == RouteReadyz || route == RouteMetrics
}

// statusRecorder wraps [http.ResponseWriter] to capture the status code
// written by the downstream handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code and delegates to the wrapped writer.
func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware returns an [http.Handler] wrapper for the evaluation API. For
// evaluation traffic it extracts W3C Trace Context from incoming headers,
// starts a server span named after the route template, echoes the trace ID
// as X-Correlation-ID, and logs request completion. All requests, probes
// included, record a duration sample to [Metrics.HTTPRequestDuration] keyed
// by method and route.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	prop := propagation.TraceContext{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := routeLabel(r.URL.Path)
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			if isProbe(route) {
				next.ServeHTTP(rec, r)
				m.HTTPRequestDuration.Record(r.Context(), time.Since(start).Seconds(),
					metric.WithAttributes(
						attribute.String("method", r.Method),
						attribute.String("route", route),
					),
				)
				return
			}

			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := StartSpan(ctx, "HTTP "+r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRoute(route),
					semconv.URLPath(r.URL.Path),
				),
			)
			defer span.End()

			// Evaluations are slow enough (two engine round-trips per tutor)
			// that callers correlate them with server traces by this header.
			cid := CorrelationID(ctx)
			if cid != "" {
				w.Header().Set("X-Correlation-ID", cid)
			}
			prop.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			next.ServeHTTP(rec, r.WithContext(ctx))

			duration := time.Since(start)
			m.HTTPRequestDuration.Record(ctx, duration.Seconds(),
				metric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.String("route", route),
				),
			)
			span.SetAttributes(semconv.HTTPResponseStatusCode(rec.statusCode))

			slog.LogAttrs(ctx, slog.LevelInfo, "request completed",
				slog.String("trace_id", cid),
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Int("status", rec.statusCode),
				slog.Duration("duration", duration),
			)
		})
	}
}
