package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNew_AddsDefaultHeadersAndCounts(t *testing.T) {
	var gotHeader, gotOverride string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Client")
		gotOverride = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	client, err := New(
		WithProviderName("ethereum-rpc"),
		WithMeterProvider(mp),
		WithHeaders(map[string]string{"X-Client": "counter-dapp", "Content-Type": "text/plain"}),
	)
	if err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL, nil)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if gotHeader != "counter-dapp" {
		t.Errorf("expected default header, got %q", gotHeader)
	}
	if gotOverride != "application/json" {
		t.Errorf("expected request header to win, got %q", gotOverride)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != metricRequestCounter {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 1 {
		t.Errorf("expected 1 counted request, got %d", total)
	}
}

func TestNew_RequestTimeout(t *testing.T) {
	client, err := New(WithRequestTimeout(250 * time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if client.Timeout != 250*time.Millisecond {
		t.Errorf("expected timeout applied, got %s", client.Timeout)
	}
	if _, ok := client.Transport.(*countingTransport); !ok {
		t.Errorf("expected instrumented transport, got %T", client.Transport)
	}
}
