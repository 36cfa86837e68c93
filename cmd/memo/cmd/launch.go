package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gjnave/memo-for-windows/internal/conda"
	"github.com/gjnave/memo-for-windows/internal/config"
	"github.com/gjnave/memo-for-windows/internal/launch"
	"github.com/gjnave/memo-for-windows/internal/monitor"
	"github.com/gjnave/memo-for-windows/internal/privilege"
	"github.com/gjnave/memo-for-windows/pkg/exitcodes"
	"github.com/gjnave/memo-for-windows/pkg/shutdown"
)

var (
	launchEnv       string
	launchEntry     string
	launchDryRun    bool
	launchElevate   bool
	launchSupervise bool
	launchMetrics   string
	launchCheckOnly bool
	launchNoPause   bool
)

// launchCmd is the explicit form of the default command: verify
// everything, print the about text, start the app.
var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Check prerequisites and start the app",
	Long: `Runs the full launch pipeline: the administrator gate, the preflight
checks, the about text, then the app inside the configured conda
environment. Once the app has started, the launcher's exit code is the
app's own exit code.

Examples:
  memo launch
  memo launch --env memo-dev --supervise
  memo launch --dry-run
  memo launch --elevate`,
	Args: cobra.NoArgs,
	RunE: runLaunch,
}

func init() {
	rootCmd.AddCommand(launchCmd)

	// The bare `memo` invocation launches too, so both commands carry the
	// same flag set backed by the same variables.
	for _, c := range []*cobra.Command{rootCmd, launchCmd} {
		c.Flags().StringVar(&launchEnv, "env", "", "conda environment to run in (overrides config)")
		c.Flags().StringVar(&launchEntry, "entry", "", "entry point script (overrides config)")
		c.Flags().BoolVar(&launchDryRun, "dry-run", false, "resolve and print the launch plan without starting anything")
		c.Flags().BoolVar(&launchElevate, "elevate", false, "request administrator elevation through UAC when not elevated")
		c.Flags().BoolVar(&launchSupervise, "supervise", false, "restart the app after a crash (overrides config)")
		c.Flags().StringVar(&launchMetrics, "metrics-addr", "", "serve /metrics and /healthz on this address while the app runs")
		c.Flags().BoolVar(&launchCheckOnly, "check-only", false, "stop after the preflight checks")
		c.Flags().BoolVar(&launchNoPause, "no-pause", false, "never wait for a keypress on abort")
	}
}

func runLaunch(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.log.Close()

	applyLaunchOverrides(app.cfg, cmd)

	if launchDryRun {
		return printLaunchPlan(app)
	}

	if launchElevate {
		handedOver, err := requestElevation(app)
		if err != nil {
			exitCode = exitcodes.PrivilegeDenied
			return err
		}
		if handedOver {
			return nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr := shutdown.New(10 * time.Second)
	defer mgr.Shutdown()

	opts := launch.Options{
		Config:    app.cfg,
		Home:      app.home,
		Logger:    app.log,
		History:   launch.NewHistory(app.home.HistoryPath()),
		CheckOnly: launchCheckOnly,
		NoPause:   launchNoPause,
	}

	if app.cfg.Metrics.Enabled {
		exporter := monitor.NewExporter()
		server := monitor.NewServer(app.cfg.Metrics.ListenAddr, exporter, app.log)
		server.Start()
		mgr.Register(shutdown.StopHTTPServer(server, "metrics"))
		opts.Notifier = exporter
	}

	code, err := launch.New(opts).Run(ctx)
	exitCode = code
	if err != nil {
		// The pipeline already showed the user what happened
		app.log.Debug("Launch aborted", map[string]interface{}{
			"error":     err.Error(),
			"exit_code": code,
		})
	}
	return nil
}

// applyLaunchOverrides folds explicit launch flags into the loaded
// configuration. Boolean overrides only count when the user actually set
// them, so --supervise=false still disables configured supervision.
func applyLaunchOverrides(cfg *config.Config, cmd *cobra.Command) {
	if launchEnv != "" {
		cfg.Environment = launchEnv
	}
	if launchEntry != "" {
		cfg.EntryPoint = launchEntry
	}
	if cmd.Flags().Changed("supervise") {
		cfg.Supervise.Enabled = launchSupervise
	}
	if launchMetrics != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddr = launchMetrics
	}
}

// requestElevation relaunches through UAC when the process lacks
// administrator rights. Returns true when an elevated copy has taken
// over and this process should simply exit.
func requestElevation(app *appContext) (bool, error) {
	if privilege.Check().Elevated {
		app.log.Debug("Already elevated; continuing in this process")
		return false, nil
	}

	if !privilege.CanElevate() {
		return false, fmt.Errorf("this account cannot obtain administrator rights")
	}

	app.log.Info("Requesting administrator elevation")
	if err := privilege.RelaunchElevated(stripElevateFlag(os.Args[1:])); err != nil {
		return false, err
	}

	fmt.Fprintln(os.Stderr, "Elevation requested; the launch continues in the elevated window.")
	return true, nil
}

// stripElevateFlag removes --elevate from the relaunched arguments so a
// denied or broken elevation can never prompt in a loop.
func stripElevateFlag(args []string) []string {
	kept := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--elevate" || a == "--elevate=true" {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// launchPlan is the fully resolved picture of what a launch would do.
type launchPlan struct {
	Home        string            `json:"home" yaml:"home"`
	CondaRoot   string            `json:"conda_root" yaml:"conda_root"`
	Environment string            `json:"environment" yaml:"environment"`
	EnvPrefix   string            `json:"env_prefix" yaml:"env_prefix"`
	Interpreter string            `json:"interpreter" yaml:"interpreter"`
	EntryPoint  string            `json:"entry_point" yaml:"entry_point"`
	AboutFile   string            `json:"about_file" yaml:"about_file"`
	Activation  map[string]string `json:"activation" yaml:"activation"`
	DotEnvKeys  []string          `json:"dotenv_keys,omitempty" yaml:"dotenv_keys,omitempty"`
	ExtraEnv    map[string]string `json:"extra_env,omitempty" yaml:"extra_env,omitempty"`
}

// printLaunchPlan resolves everything a launch would use and prints it.
// It never touches the privilege gate and starts nothing, so it works in
// an unelevated shell. Values from the .env file stay private; only the
// key names are shown.
func printLaunchPlan(app *appContext) error {
	inst, err := conda.Discover(app.cfg.CondaRoot)
	if err != nil {
		return err
	}

	prefix, err := inst.ResolveEnv(app.cfg.Environment)
	if err != nil {
		return err
	}

	dotenv, err := launch.LoadDotEnv(app.home.Path(".env"))
	if err != nil {
		return err
	}
	dotenvKeys := make([]string, 0, len(dotenv))
	for k := range dotenv {
		dotenvKeys = append(dotenvKeys, k)
	}
	sort.Strings(dotenvKeys)

	plan := launchPlan{
		Home:        app.home.Dir(),
		CondaRoot:   inst.Root,
		Environment: app.cfg.Environment,
		EnvPrefix:   prefix,
		Interpreter: inst.Interpreter(prefix),
		EntryPoint:  app.home.Path(app.cfg.EntryPoint),
		AboutFile:   app.home.Path(app.cfg.AboutFile),
		Activation:  inst.ActivationEnv(prefix, app.cfg.Environment, os.Getenv("PATH")),
		DotEnvKeys:  dotenvKeys,
		ExtraEnv:    app.cfg.ExtraEnv,
	}

	switch {
	case IsJSONOutput():
		out, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(out))

	case IsYAMLOutput():
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		return encoder.Encode(plan)

	default:
		fmt.Println("Launch plan:")
		fmt.Printf("  Home:        %s\n", plan.Home)
		fmt.Printf("  Conda root:  %s\n", plan.CondaRoot)
		fmt.Printf("  Environment: %s (%s)\n", plan.Environment, plan.EnvPrefix)
		fmt.Printf("  Interpreter: %s\n", plan.Interpreter)
		fmt.Printf("  Entry point: %s\n", plan.EntryPoint)
		fmt.Printf("  About file:  %s\n", plan.AboutFile)
		fmt.Println()

		fmt.Println("Activation variables:")
		keys := make([]string, 0, len(plan.Activation))
		for k := range plan.Activation {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %s=%s\n", k, plan.Activation[k])
		}

		if len(plan.DotEnvKeys) > 0 {
			fmt.Println()
			fmt.Printf(".env keys (values withheld): %s\n", strings.Join(plan.DotEnvKeys, ", "))
		}

		if len(plan.ExtraEnv) > 0 {
			fmt.Println()
			fmt.Println("Extra variables:")
			extra := make([]string, 0, len(plan.ExtraEnv))
			for k := range plan.ExtraEnv {
				extra = append(extra, k)
			}
			sort.Strings(extra)
			for _, k := range extra {
				fmt.Printf("  %s=%s\n", k, plan.ExtraEnv[k])
			}
		}
	}

	return nil
}
