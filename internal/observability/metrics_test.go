package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	return rr.Body.String()
}

func TestInitMetrics_CounterAppearsInOutput(t *testing.T) {
	ctx := context.Background()

	handler, shutdown, err := InitMetrics(ctx, "flowplane-test")
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	counter, err := otel.Meter("test-meter").Int64Counter("flowplane.test.submissions")
	if err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}
	counter.Add(ctx, 42, metric.WithAttributes(attribute.String("result", "submitted")))

	body := scrape(t, handler)

	// Prometheus format: dots become underscores, counters get a _total suffix.
	if !strings.Contains(body, "flowplane_test_submissions_total") {
		t.Errorf("expected counter in output, got:\n%s", body)
	}
	if !strings.Contains(body, `result="submitted"`) {
		t.Errorf("expected result label in output, got:\n%s", body)
	}
	if !strings.Contains(body, "42") {
		t.Errorf("expected value '42' in output, got:\n%s", body)
	}
}

func TestInitMetrics_IsolatedRegistry(t *testing.T) {
	ctx := context.Background()

	// Two initialisations must not collide on a shared registry.
	for i := 0; i < 2; i++ {
		_, shutdown, err := InitMetrics(ctx, "flowplane-test")
		if err != nil {
			t.Fatalf("InitMetrics #%d failed: %v", i, err)
		}
		_ = shutdown(ctx)
	}
}
