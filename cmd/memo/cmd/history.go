package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gjnave/memo-for-windows/internal/launch"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent launches",
	Long: `Shows the outcome of recent launches, newest first: when the app
started, how it ended, its exit code and the URL it served on.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of launches to show (0 = all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.log.Close()

	records, err := launch.NewHistory(app.home.HistoryPath()).Load()
	if err != nil {
		return err
	}

	// Newest first
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if historyLimit > 0 && len(records) > historyLimit {
		records = records[:historyLimit]
	}

	if IsJSONOutput() {
		if records == nil {
			records = []launch.Record{}
		}
		out, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	if len(records) == 0 {
		fmt.Println("No launches recorded")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Started", "Outcome", "Exit", "Duration", "Environment", "Restarts", "URL")
	for _, rec := range records {
		table.Append(
			rec.StartedAt.Format("2006-01-02 15:04:05"),
			string(rec.Outcome),
			fmt.Sprintf("%d", rec.ExitCode),
			formatSeconds(rec.DurationSeconds),
			rec.Environment,
			fmt.Sprintf("%d", rec.Restarts),
			rec.URL,
		)
	}
	table.Render()

	fmt.Printf("\nLaunches shown: %d\n", len(records))
	return nil
}

func formatSeconds(s float64) string {
	if s <= 0 {
		return "-"
	}
	return time.Duration(s * float64(time.Second)).Round(time.Second).String()
}
