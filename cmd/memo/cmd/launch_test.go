package cmd

import (
	"reflect"
	"testing"

	"github.com/spf13/cobra"

	"github.com/gjnave/memo-for-windows/internal/config"
)

func TestStripElevateFlag(t *testing.T) {
	tests := []struct {
		args     []string
		expected []string
		desc     string
	}{
		{[]string{"--elevate"}, []string{}, "lone flag"},
		{[]string{"launch", "--elevate"}, []string{"launch"}, "after subcommand"},
		{[]string{"--elevate=true", "--env", "memo-dev"}, []string{"--env", "memo-dev"}, "explicit true form"},
		{[]string{"--env", "memo-dev"}, []string{"--env", "memo-dev"}, "not present"},
		{[]string{}, []string{}, "empty args"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			result := stripElevateFlag(tt.args)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("stripElevateFlag(%v) = %v, expected %v", tt.args, result, tt.expected)
			}
		})
	}
}

func TestApplyLaunchOverrides(t *testing.T) {
	restore := func() {
		launchEnv = ""
		launchEntry = ""
		launchSupervise = false
		launchMetrics = ""
	}
	defer restore()

	newCmd := func(t *testing.T, args ...string) *cobra.Command {
		t.Helper()
		restore()
		c := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
		c.Flags().StringVar(&launchEnv, "env", "", "")
		c.Flags().StringVar(&launchEntry, "entry", "", "")
		c.Flags().BoolVar(&launchSupervise, "supervise", false, "")
		c.Flags().StringVar(&launchMetrics, "metrics-addr", "", "")
		c.SetArgs(args)
		if err := c.Execute(); err != nil {
			t.Fatalf("flag parsing failed: %v", err)
		}
		return c
	}

	t.Run("environment and entry point", func(t *testing.T) {
		c := newCmd(t, "--env", "memo-dev", "--entry", "app.py")
		cfg := &config.Config{Environment: "memo", EntryPoint: "gradio_app.py"}

		applyLaunchOverrides(cfg, c)

		if cfg.Environment != "memo-dev" {
			t.Errorf("Expected environment memo-dev, got %s", cfg.Environment)
		}
		if cfg.EntryPoint != "app.py" {
			t.Errorf("Expected entry point app.py, got %s", cfg.EntryPoint)
		}
	})

	t.Run("supervise only when set", func(t *testing.T) {
		c := newCmd(t)
		cfg := &config.Config{Supervise: config.SuperviseConfig{Enabled: true}}

		applyLaunchOverrides(cfg, c)

		if !cfg.Supervise.Enabled {
			t.Error("Unset flag should not touch configured supervision")
		}
	})

	t.Run("supervise false disables configured supervision", func(t *testing.T) {
		c := newCmd(t, "--supervise=false")
		cfg := &config.Config{Supervise: config.SuperviseConfig{Enabled: true}}

		applyLaunchOverrides(cfg, c)

		if cfg.Supervise.Enabled {
			t.Error("Explicit --supervise=false should disable supervision")
		}
	})

	t.Run("metrics address enables metrics", func(t *testing.T) {
		c := newCmd(t, "--metrics-addr", "127.0.0.1:9999")
		cfg := &config.Config{}

		applyLaunchOverrides(cfg, c)

		if !cfg.Metrics.Enabled {
			t.Error("Expected metrics to be enabled")
		}
		if cfg.Metrics.ListenAddr != "127.0.0.1:9999" {
			t.Errorf("Expected listen addr 127.0.0.1:9999, got %s", cfg.Metrics.ListenAddr)
		}
	})
}
