package observe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/verbalis-ai/verbalis/internal/observe"
)

// newInstrumentedHandler wires the middleware around a stub mux and returns
// the handler together with the reader to collect recorded metrics from.
func newInstrumentedHandler(t *testing.T) (http.Handler, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	m, err := observe.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/attempts", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return observe.Middleware(m)(mux), reader
}

// requestDurations collects the http request duration histogram points.
func requestDurations(t *testing.T, reader *sdkmetric.ManualReader) []metricdata.HistogramDataPoint[float64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "verbalis.http.request.duration" {
				continue
			}
			h, ok := m.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatalf("metric data type = %T, want Histogram[float64]", m.Data)
			}
			return h.DataPoints
		}
	}
	return nil
}

// routeAttr extracts the route attribute of one data point.
func routeAttr(t *testing.T, dp metricdata.HistogramDataPoint[float64]) string {
	t.Helper()
	v, ok := dp.Attributes.Value(attribute.Key("route"))
	if !ok {
		t.Fatalf("data point %v has no route attribute", dp.Attributes)
	}
	return v.AsString()
}

func TestMiddleware_RecordsRouteTemplates(t *testing.T) {
	t.Parallel()
	handler, reader := newInstrumentedHandler(t)

	for _, path := range []string{"/v1/attempts", "/healthz", "/wp-admin/setup.php"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	points := requestDurations(t, reader)
	routes := map[string]bool{}
	for _, dp := range points {
		routes[routeAttr(t, dp)] = true
	}
	for _, want := range []string{"/v1/attempts", "/healthz", "other"} {
		if !routes[want] {
			t.Errorf("no duration sample for route %q (got %v)", want, routes)
		}
	}
	if routes["/wp-admin/setup.php"] {
		t.Error("raw path leaked into the route attribute")
	}
}

func TestMiddleware_ProbeStillMeasured(t *testing.T) {
	t.Parallel()
	handler, reader := newInstrumentedHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	points := requestDurations(t, reader)
	if len(points) != 1 {
		t.Fatalf("got %d data points, want 1", len(points))
	}
	if got := routeAttr(t, points[0]); got != "/healthz" {
		t.Errorf("route = %q, want /healthz", got)
	}
	if points[0].Count != 1 {
		t.Errorf("sample count = %d, want 1", points[0].Count)
	}
}
