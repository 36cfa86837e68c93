package cmd

import (
	"testing"

	"github.com/gjnave/memo-for-windows/internal/config"
	"github.com/gjnave/memo-for-windows/internal/preflight"
)

func TestBuildDoctorReport(t *testing.T) {
	app := &appContext{cfg: &config.Config{RequireAdmin: true}}

	rep := &preflight.Report{
		Results: []preflight.Result{
			{Name: "about file", Status: preflight.StatusOK, Detail: "about.txt (120 bytes)", Fatal: true},
			{Name: "ffmpeg", Status: preflight.StatusWarn, Detail: "ffmpeg not found"},
			{Name: "conda", Status: preflight.StatusOK, Detail: "/opt/conda", Fatal: true},
		},
	}

	report := buildDoctorReport(app, rep)

	if len(report.Checks) != len(rep.Results)+1 {
		t.Fatalf("Expected %d checks, got %d", len(rep.Results)+1, len(report.Checks))
	}
	if report.Checks[0].Name != "administrator" {
		t.Errorf("Expected administrator check first, got %s", report.Checks[0].Name)
	}
	if !report.Healthy {
		t.Error("Report with no fatal failure should be healthy")
	}

	// The administrator row depends on who runs the tests, so count it
	// from what was actually reported
	expectedWarnings := 1
	if report.Checks[0].Status == string(preflight.StatusWarn) {
		expectedWarnings++
	}
	if report.Warnings != expectedWarnings {
		t.Errorf("Expected %d warnings, got %d", expectedWarnings, report.Warnings)
	}
}

func TestBuildDoctorReportUnhealthy(t *testing.T) {
	app := &appContext{cfg: &config.Config{}}

	rep := &preflight.Report{
		Results: []preflight.Result{
			{Name: "conda", Status: preflight.StatusFail, Detail: "no conda installation found", Fatal: true},
			{Name: "environment", Status: preflight.StatusSkip, Detail: "conda not found", Fatal: true},
		},
	}

	report := buildDoctorReport(app, rep)

	if report.Healthy {
		t.Error("Report with a fatal failure should be unhealthy")
	}

	found := false
	for _, c := range report.Checks {
		if c.Name == "conda" && c.Status == "fail" && c.Fatal {
			found = true
		}
	}
	if !found {
		t.Error("Expected the conda failure to appear in the checks")
	}
}
