package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gjnave/memo-for-windows/internal/apphome"
	"github.com/gjnave/memo-for-windows/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and scaffold the launcher configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Prints the configuration the launcher would run with: launcher.yaml
merged with defaults and MEMO_* environment overrides. The default
output is YAML and round-trips into launcher.yaml.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented launcher.yaml next to the launcher",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// configView mirrors Config with durations rendered as strings, so the
// printed form can be pasted back into launcher.yaml.
type configView struct {
	Environment   string            `json:"environment" yaml:"environment"`
	EntryPoint    string            `json:"entry_point" yaml:"entry_point"`
	AboutFile     string            `json:"about_file" yaml:"about_file"`
	CondaRoot     string            `json:"conda_root" yaml:"conda_root"`
	PythonMin     string            `json:"python_min" yaml:"python_min"`
	RequireAdmin  bool              `json:"require_admin" yaml:"require_admin"`
	PauseOnError  bool              `json:"pause_on_error" yaml:"pause_on_error"`
	CheckpointDir string            `json:"checkpoint_dir" yaml:"checkpoint_dir"`
	MinMemoryGB   int               `json:"min_memory_gb" yaml:"min_memory_gb"`
	MinDiskGB     int               `json:"min_disk_gb" yaml:"min_disk_gb"`
	ExtraEnv      map[string]string `json:"extra_env,omitempty" yaml:"extra_env,omitempty"`
	Supervise     superviseView     `json:"supervise" yaml:"supervise"`
	Metrics       metricsView       `json:"metrics" yaml:"metrics"`
	Logging       loggingView       `json:"logging" yaml:"logging"`
}

type superviseView struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	MaxRestarts    int    `json:"max_restarts" yaml:"max_restarts"`
	InitialBackoff string `json:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff     string `json:"max_backoff" yaml:"max_backoff"`
}

type metricsView struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
}

type loggingView struct {
	Level string `json:"level" yaml:"level"`
	File  string `json:"file" yaml:"file"`
	JSON  bool   `json:"json" yaml:"json"`
}

func viewOf(cfg *config.Config) configView {
	return configView{
		Environment:   cfg.Environment,
		EntryPoint:    cfg.EntryPoint,
		AboutFile:     cfg.AboutFile,
		CondaRoot:     cfg.CondaRoot,
		PythonMin:     cfg.PythonMin,
		RequireAdmin:  cfg.RequireAdmin,
		PauseOnError:  cfg.PauseOnError,
		CheckpointDir: cfg.CheckpointDir,
		MinMemoryGB:   cfg.MinMemoryGB,
		MinDiskGB:     cfg.MinDiskGB,
		ExtraEnv:      cfg.ExtraEnv,
		Supervise: superviseView{
			Enabled:        cfg.Supervise.Enabled,
			MaxRestarts:    cfg.Supervise.MaxRestarts,
			InitialBackoff: cfg.Supervise.InitialBackoff.String(),
			MaxBackoff:     cfg.Supervise.MaxBackoff.String(),
		},
		Metrics: metricsView{
			Enabled:    cfg.Metrics.Enabled,
			ListenAddr: cfg.Metrics.ListenAddr,
		},
		Logging: loggingView{
			Level: cfg.Logging.Level,
			File:  cfg.Logging.File,
			JSON:  cfg.Logging.JSON,
		},
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.log.Close()

	view := viewOf(app.cfg)

	if IsJSONOutput() {
		out, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)
	return encoder.Encode(view)
}

// runConfigInit skips initApp on purpose: writing a fresh config must
// work even when the current one cannot be parsed.
func runConfigInit(cmd *cobra.Command, args []string) error {
	home, err := apphome.Resolve()
	if err != nil {
		return err
	}

	path := home.Path(config.DefaultFileName)
	if cfgFile != "" {
		path = cfgFile
	}

	if err := config.WriteExample(path); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}
