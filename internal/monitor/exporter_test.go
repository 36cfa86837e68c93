package monitor

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, e *Exporter) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	resp := w.Result()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, expected text/plain", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func TestExporterMetricsLifecycle(t *testing.T) {
	e := NewExporter()
	e.LaunchStarted("memo", "gradio_app.py")
	e.ChildStarted(4242)
	e.URLDetected("http://127.0.0.1:7860")
	e.ProgressUpdated(37.5)

	out := scrape(t, e)

	for _, metric := range []string{
		"memo_launcher_uptime_seconds",
		"memo_app_up 1",
		"memo_app_restarts 0",
		"memo_app_progress_percent 37.5",
		"memo_launches_total 1",
	} {
		if !strings.Contains(out, metric) {
			t.Errorf("Expected metric %q in output:\n%s", metric, out)
		}
	}

	e.ChildExited(7, 90*time.Second)
	e.RestartScheduled(1, time.Second)
	e.LaunchStarted("memo", "gradio_app.py")

	out = scrape(t, e)
	for _, metric := range []string{
		"memo_app_up 0",
		"memo_app_last_exit_code 7",
		"memo_app_last_run_seconds 90.00",
		"memo_app_restarts 1",
		"memo_restarts_total 1",
		"memo_launches_total 2",
		`memo_app_exits_total{code="7"} 1`,
	} {
		if !strings.Contains(out, metric) {
			t.Errorf("Expected metric %q in output:\n%s", metric, out)
		}
	}
}

func TestExporterProgressResetsPerLaunch(t *testing.T) {
	e := NewExporter()
	e.LaunchStarted("memo", "gradio_app.py")
	e.ProgressUpdated(80)
	e.ChildExited(1, time.Second)
	e.LaunchStarted("memo", "gradio_app.py")

	out := scrape(t, e)
	if !strings.Contains(out, "memo_app_progress_percent 0.0") {
		t.Errorf("Progress must reset on a fresh launch:\n%s", out)
	}
}

func TestSnapshotStatus(t *testing.T) {
	e := NewExporter()

	if s := e.Snap(); s.Status != "starting" {
		t.Errorf("Status before launch = %q, expected starting", s.Status)
	}

	e.LaunchStarted("memo", "gradio_app.py")
	e.ChildStarted(99)
	e.URLDetected("http://127.0.0.1:7860")

	s := e.Snap()
	if s.Status != "running" {
		t.Errorf("Status with child up = %q, expected running", s.Status)
	}
	if s.PID != 99 {
		t.Errorf("PID = %d, expected 99", s.PID)
	}
	if s.URL != "http://127.0.0.1:7860" {
		t.Errorf("URL = %q", s.URL)
	}
	if s.Environment != "memo" {
		t.Errorf("Environment = %q", s.Environment)
	}

	e.ChildExited(0, time.Minute)
	if s := e.Snap(); s.Status != "exited" {
		t.Errorf("Status after exit = %q, expected exited", s.Status)
	}
}
