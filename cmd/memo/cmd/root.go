package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gjnave/memo-for-windows/internal/apphome"
	"github.com/gjnave/memo-for-windows/internal/config"
	"github.com/gjnave/memo-for-windows/pkg/exitcodes"
	"github.com/gjnave/memo-for-windows/pkg/logging"
)

var (
	cfgFile      string
	logLevel     string
	logFile      string
	outputFormat string

	// exitCode is what the process exits with; launch and doctor set it
	exitCode int
)

// rootCmd represents the base command. Running `memo` with no arguments
// performs the full launch, preserving the zero-argument surface of the
// original launcher.
var rootCmd = &cobra.Command{
	Use:   "memo",
	Short: "Launcher for the MEMO talking-head studio",
	Long: `memo verifies administrator privileges, checks the conda environment
and the app's files, prints the bundled about text, and starts the
Gradio app inside the configured environment.

Run with no arguments for the standard launch; see the subcommands for
diagnostics and configuration.`,
	Args:         cobra.NoArgs,
	RunE:         runLaunch,
	SilenceUsage: true,
}

// Execute runs the CLI and returns the process exit code. Errors the
// commands themselves did not classify (bad flags, broken config) count
// as configuration failures.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if exitCode != 0 {
			return exitCode
		}
		return exitcodes.PreflightFailed
	}
	return exitCode
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is launcher.yaml next to the executable)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path, relative to the launcher directory (default from config)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}

// IsYAMLOutput returns true if YAML output is requested
func IsYAMLOutput() bool {
	return outputFormat == "yaml"
}

// appContext is everything a command needs: the resolved launcher home,
// the effective configuration, and a logger honoring the global flags.
type appContext struct {
	home apphome.Home
	cfg  *config.Config
	log  *logging.Logger
}

// initApp resolves the home directory, loads the configuration and
// builds the logger. Every command starts here.
func initApp() (*appContext, error) {
	home, err := apphome.Resolve()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve launcher directory: %w", err)
	}

	cfg, err := config.Load(cfgFile, home.Dir())
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFile != "" {
		cfg.Logging.File = logFile
	}

	logger, err := buildLogger(cfg, home)
	if err != nil {
		return nil, err
	}

	return &appContext{home: home, cfg: cfg, log: logger}, nil
}

// maxLogSize caps the launcher log before rotation kicks in.
const maxLogSize = 10 * 1024 * 1024

// logBackupsKept is how many rotated launcher logs survive pruning.
const logBackupsKept = 5

// buildLogger creates the launcher logger. Console output always goes
// to stderr; a configured file target is created under the launcher
// home, rotated by size, with old backups pruned.
func buildLogger(cfg *config.Config, home apphome.Home) (*logging.Logger, error) {
	level := logging.ParseLevel(cfg.Logging.Level)

	if cfg.Logging.File == "" {
		return logging.NewLogger(level, cfg.Logging.JSON), nil
	}

	path := cfg.Logging.File
	if !filepath.IsAbs(path) {
		path = home.Path(path)
	}

	logger, err := logging.NewFileLogger(path, level, cfg.Logging.JSON)
	if err != nil {
		return nil, err
	}

	if err := logger.RotateIfNeeded(maxLogSize); err != nil {
		logger.Warn("Could not rotate log file", map[string]interface{}{"error": err.Error()})
	}
	if pruned, err := logging.PruneBackups(path, logBackupsKept); err == nil && pruned > 0 {
		logger.Debug("Pruned old log backups", map[string]interface{}{"removed": pruned})
	}

	return logger, nil
}
