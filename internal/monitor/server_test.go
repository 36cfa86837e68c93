package monitor

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gjnave/memo-for-windows/pkg/logging"
)

func testServer(t *testing.T) (*Server, *Exporter, *httptest.Server) {
	t.Helper()
	logger := logging.NewLogger(logging.ERROR, false)
	logger.SetOutput(io.Discard)

	exporter := NewExporter()
	s := NewServer("127.0.0.1:0", exporter, logger)

	ts := httptest.NewServer(s.server.Handler)
	t.Cleanup(ts.Close)
	return s, exporter, ts
}

func TestHealthzReflectsChildState(t *testing.T) {
	_, exporter, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Status before launch = %d, expected 503", resp.StatusCode)
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if snap.Status != "starting" {
		t.Errorf("Status = %q, expected starting", snap.Status)
	}

	exporter.LaunchStarted("memo", "gradio_app.py")
	exporter.ChildStarted(1234)
	exporter.URLDetected("http://127.0.0.1:7860")

	resp2, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Errorf("Status with child up = %d, expected 200", resp2.StatusCode)
	}

	if err := json.NewDecoder(resp2.Body).Decode(&snap); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if snap.Status != "running" || snap.PID != 1234 || snap.URL != "http://127.0.0.1:7860" {
		t.Errorf("Snapshot = %+v", snap)
	}

	exporter.ChildExited(3, time.Second)

	resp3, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Status after exit = %d, expected 503", resp3.StatusCode)
	}
}

func TestMetricsRouteServesExporter(t *testing.T) {
	_, exporter, ts := testServer(t)
	exporter.LaunchStarted("memo", "gradio_app.py")

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status = %d, expected 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "memo_launches_total") {
		t.Errorf("Metrics body missing launch counter:\n%s", body)
	}
}

func TestMetricsRouteRejectsPost(t *testing.T) {
	_, _, ts := testServer(t)

	resp, err := http.Post(ts.URL+"/metrics", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, expected 405", resp.StatusCode)
	}
}
