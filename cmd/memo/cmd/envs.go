package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gjnave/memo-for-windows/internal/conda"
)

var envsCmd = &cobra.Command{
	Use:   "envs",
	Short: "List the conda environments visible to the launcher",
	Long: `Discovers the conda installation the launcher would use and lists its
environments together with each one's Python version. The environment
the launcher is configured to run in is marked.`,
	Args: cobra.NoArgs,
	RunE: runEnvs,
}

func init() {
	rootCmd.AddCommand(envsCmd)
}

type envsResponse struct {
	CondaRoot    string    `json:"conda_root"`
	Environments []envInfo `json:"environments"`
}

type envInfo struct {
	Name       string `json:"name"`
	Prefix     string `json:"prefix"`
	Python     string `json:"python,omitempty"`
	Base       bool   `json:"base,omitempty"`
	Configured bool   `json:"configured"`
}

func runEnvs(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.log.Close()

	inst, err := conda.Discover(app.cfg.CondaRoot)
	if err != nil {
		return err
	}

	envs, err := inst.ListEnvs()
	if err != nil {
		return err
	}

	result := envsResponse{CondaRoot: inst.Root}
	for _, e := range envs {
		result.Environments = append(result.Environments, envInfo{
			Name:       e.Name,
			Prefix:     e.Prefix,
			Python:     pythonVersionFor(inst, e.Prefix),
			Base:       e.Base,
			Configured: e.Name == app.cfg.Environment,
		})
	}

	if IsJSONOutput() {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Conda installation: %s\n\n", result.CondaRoot)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "Python", "Configured", "Prefix")
	for _, e := range result.Environments {
		configured := ""
		if e.Configured {
			configured = "yes"
		}
		table.Append(e.Name, e.Python, configured, e.Prefix)
	}
	table.Render()

	return nil
}

// pythonVersionFor asks the environment's interpreter for its version. A
// short timeout keeps one broken interpreter from hanging the listing.
func pythonVersionFor(inst conda.Install, prefix string) string {
	interpreter := inst.Interpreter(prefix)
	if _, err := os.Stat(interpreter); err != nil {
		return "missing"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	version, err := conda.PythonVersion(ctx, interpreter)
	if err != nil {
		return "unknown"
	}
	return version.String()
}
