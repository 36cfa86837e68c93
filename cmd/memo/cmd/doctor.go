package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gjnave/memo-for-windows/internal/preflight"
	"github.com/gjnave/memo-for-windows/internal/privilege"
	"github.com/gjnave/memo-for-windows/pkg/exitcodes"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the launch environment",
	Long: `Runs every launch prerequisite check and reports the results without
starting the app. Administrator rights are reported but not required,
so doctor works from a normal shell.

The exit code is 0 when a launch would proceed and 3 when a blocking
prerequisite is missing.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type doctorCheck struct {
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
	Fatal  bool   `json:"fatal,omitempty" yaml:"fatal,omitempty"`
}

type doctorReport struct {
	Checks   []doctorCheck `json:"checks" yaml:"checks"`
	Healthy  bool          `json:"healthy" yaml:"healthy"`
	Warnings int           `json:"warnings" yaml:"warnings"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.log.Close()

	rep := preflight.Run(context.Background(), app.cfg, app.home)
	report := buildDoctorReport(app, rep)

	if !report.Healthy {
		exitCode = exitcodes.PreflightFailed
	}

	switch {
	case IsJSONOutput():
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(out))

	case IsYAMLOutput():
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		return encoder.Encode(report)

	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Check", "Status", "Detail")
		for _, c := range report.Checks {
			table.Append(c.Name, strings.ToUpper(c.Status), c.Detail)
		}
		table.Render()

		fmt.Println()
		switch {
		case !report.Healthy:
			fmt.Println("Not ready to launch; fix the failed checks above")
		case report.Warnings > 0:
			fmt.Printf("Ready to launch with %d warning(s)\n", report.Warnings)
		default:
			fmt.Println("Ready to launch")
		}
	}

	return nil
}

// buildDoctorReport folds the privilege verdict and the preflight results
// into one list. Missing administrator rights are a warning here, not a
// failure: doctor is expected to run unelevated.
func buildDoctorReport(app *appContext, rep *preflight.Report) doctorReport {
	report := doctorReport{}

	report.Checks = append(report.Checks, privilegeCheck(app))

	for _, res := range rep.Results {
		report.Checks = append(report.Checks, doctorCheck{
			Name:   res.Name,
			Status: string(res.Status),
			Detail: res.Detail,
			Fatal:  res.Fatal,
		})
	}

	report.Healthy = rep.FatalFailure() == nil
	for _, c := range report.Checks {
		if c.Status == string(preflight.StatusWarn) {
			report.Warnings++
		}
	}

	return report
}

func privilegeCheck(app *appContext) doctorCheck {
	check := doctorCheck{Name: "administrator"}

	st := privilege.Check()
	if st.Elevated {
		check.Status = string(preflight.StatusOK)
		check.Detail = "elevated (" + st.Method + ")"
		return check
	}

	check.Status = string(preflight.StatusWarn)
	switch {
	case !app.cfg.RequireAdmin:
		check.Detail = "not elevated; require_admin is off"
	case privilege.CanElevate():
		check.Detail = "not elevated; launch with --elevate or run as administrator"
	default:
		check.Detail = "not elevated and this account cannot elevate"
	}
	return check
}
