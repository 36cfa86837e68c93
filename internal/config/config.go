package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/viper"
)

// DefaultFileName is the config file the launcher looks for next to the
// executable. All keys are optional; a missing file means stock defaults.
const DefaultFileName = "launcher.yaml"

// EnvPrefix is the prefix for environment variable overrides, e.g.
// MEMO_ENVIRONMENT=memo-dev or MEMO_LOGGING_LEVEL=debug.
const EnvPrefix = "MEMO"

// Config is the complete launcher configuration
type Config struct {
	// Environment is the conda environment the app runs in
	Environment string `mapstructure:"environment" yaml:"environment"`

	// EntryPoint is the Python script started inside the environment
	EntryPoint string `mapstructure:"entry_point" yaml:"entry_point"`

	// AboutFile is the informational text printed before launch
	AboutFile string `mapstructure:"about_file" yaml:"about_file"`

	// CondaRoot overrides conda installation discovery when set
	CondaRoot string `mapstructure:"conda_root" yaml:"conda_root"`

	// PythonMin is the minimum interpreter version accepted by preflight
	PythonMin string `mapstructure:"python_min" yaml:"python_min"`

	// RequireAdmin gates the launch on the administrator probe
	RequireAdmin bool `mapstructure:"require_admin" yaml:"require_admin"`

	// PauseOnError waits for a keypress before exiting on an abort, so
	// double-click users can read the message before the console closes
	PauseOnError bool `mapstructure:"pause_on_error" yaml:"pause_on_error"`

	// CheckpointDir is an optional model-weights directory verified by preflight
	CheckpointDir string `mapstructure:"checkpoint_dir" yaml:"checkpoint_dir"`

	// MinMemoryGB / MinDiskGB are advisory thresholds; below them preflight
	// warns but does not block
	MinMemoryGB int `mapstructure:"min_memory_gb" yaml:"min_memory_gb"`
	MinDiskGB   int `mapstructure:"min_disk_gb" yaml:"min_disk_gb"`

	// ExtraEnv is merged into the child environment last, over the
	// activation variables and the .env file
	ExtraEnv map[string]string `mapstructure:"extra_env" yaml:"extra_env,omitempty"`

	Supervise SuperviseConfig `mapstructure:"supervise" yaml:"supervise"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// SuperviseConfig controls restart-on-crash behavior
type SuperviseConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled"`
	MaxRestarts    int           `mapstructure:"max_restarts" yaml:"max_restarts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" yaml:"max_backoff"`
}

// MetricsConfig controls the optional metrics/health endpoint
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// LoggingConfig controls launcher logging (stdout is never used for logs)
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "memo")
	v.SetDefault("entry_point", "gradio_app.py")
	v.SetDefault("about_file", "about.txt")
	v.SetDefault("conda_root", "")
	v.SetDefault("python_min", "3.10.0")
	v.SetDefault("require_admin", true)
	v.SetDefault("pause_on_error", true)
	v.SetDefault("checkpoint_dir", "")
	v.SetDefault("min_memory_gb", 16)
	v.SetDefault("min_disk_gb", 10)
	v.SetDefault("supervise.enabled", false)
	v.SetDefault("supervise.max_restarts", 3)
	v.SetDefault("supervise.initial_backoff", "2s")
	v.SetDefault("supervise.max_backoff", "30s")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", "127.0.0.1:9180")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.json", false)
}

// Load reads the launcher configuration. An explicit path must exist;
// otherwise launcher.yaml in the home directory is used when present, and
// defaults apply when it is not. MEMO_* environment variables override
// either source.
func Load(explicitPath, homeDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", explicitPath, err)
		}
	} else if homeDir != "" {
		v.SetConfigFile(filepath.Join(homeDir, DefaultFileName))
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", filepath.Join(homeDir, DefaultFileName), err)
			}
			// No config file: defaults plus env overrides
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate normalizes the configuration, clamping silly values and
// rejecting ones the launcher cannot work with.
func (c *Config) Validate() error {
	if c.Environment == "" {
		c.Environment = "memo"
	}
	if c.EntryPoint == "" {
		c.EntryPoint = "gradio_app.py"
	}
	if c.AboutFile == "" {
		c.AboutFile = "about.txt"
	}

	if c.PythonMin != "" {
		if _, err := semver.NewVersion(c.PythonMin); err != nil {
			return fmt.Errorf("invalid python_min %q: %w", c.PythonMin, err)
		}
	}

	if c.MinMemoryGB < 0 {
		c.MinMemoryGB = 0
	}
	if c.MinDiskGB < 0 {
		c.MinDiskGB = 0
	}

	if c.Supervise.MaxRestarts < 0 {
		c.Supervise.MaxRestarts = 0
	}
	if c.Supervise.InitialBackoff <= 0 {
		c.Supervise.InitialBackoff = 2 * time.Second
	}
	if c.Supervise.MaxBackoff < c.Supervise.InitialBackoff {
		c.Supervise.MaxBackoff = c.Supervise.InitialBackoff
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = "127.0.0.1:9180"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}

// ExampleConfig is written by `memo config init` and documents every key
const ExampleConfig = `# MEMO launcher configuration
# Lives next to the launcher executable as launcher.yaml.
# Every key is optional; MEMO_* environment variables override file values
# (MEMO_ENVIRONMENT, MEMO_LOGGING_LEVEL, ...).

# Conda environment the app runs in
environment: memo

# Python script started inside the environment
entry_point: gradio_app.py

# Informational text printed before launch
about_file: about.txt

# Conda installation root. Empty = discover automatically
# (CONDA_EXE, PATH, then the usual miniconda3/anaconda3 locations).
conda_root: ""

# Minimum Python version accepted by preflight
python_min: "3.10.0"

# Refuse to launch without administrator privileges
require_admin: true

# Wait for a keypress before exiting on an abort, so double-click users
# can read the message
pause_on_error: true

# Optional model-weights directory verified by preflight. Empty = skip.
checkpoint_dir: ""

# Advisory resource thresholds. Below them preflight warns but still launches.
min_memory_gb: 16
min_disk_gb: 10

# Extra variables for the app process, applied over activation and .env
extra_env: {}
#  GRADIO_SERVER_PORT: "7860"

# Restart the app when it exits non-zero
supervise:
  enabled: false
  max_restarts: 3
  initial_backoff: 2s
  max_backoff: 30s

# Expose /metrics and /healthz while the app runs
metrics:
  enabled: false
  listen_addr: "127.0.0.1:9180"

# Launcher logging. Console logs go to stderr; stdout is reserved for the
# about text and the app itself.
logging:
  level: info
  file: ""    # e.g. logs/launcher.log, relative to the launcher directory
  json: false
`

// WriteExample writes ExampleConfig to path, refusing to clobber an
// existing file.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(ExampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}
