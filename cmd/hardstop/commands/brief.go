package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hardstop/hardstop/internal/brief"
	"github.com/hardstop/hardstop/internal/logging"
	"github.com/hardstop/hardstop/internal/provenance"
)

var (
	briefAlertsPath    string
	briefWindow        string
	briefLimit         int
	briefTopLimit      int
	briefExcludeInt    bool
)

var briefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Build the windowed alert brief read-model",
	Long: `brief loads a candidate alert set and produces the deterministically
sorted, windowed read-model spec.md §4.K describes. Rendering to
Markdown or another presentation format is an external collaborator
this repository does not ship: brief prints the read-model as JSON.`,
	Run: runBrief,
}

func init() {
	briefCmd.Flags().StringVar(&briefAlertsPath, "alerts", "", "Path to a candidate alert set JSON file (required)")
	briefCmd.Flags().StringVar(&briefWindow, "window", "24h", "Lookback window: 24h, 72h, or 168h")
	briefCmd.Flags().IntVar(&briefLimit, "limit", 0, "Cap on the updated/created sections (0 means uncapped)")
	briefCmd.Flags().IntVar(&briefTopLimit, "top-limit", brief.DefaultTopClassTwoLimit, "Cap on the top impactful-alert section")
	briefCmd.Flags().BoolVar(&briefExcludeInt, "exclude-interesting", false, "Exclude class-0 (interesting) alerts from the window")

	briefCmd.MarkFlagRequired("alerts")
}

func runBrief(cmd *cobra.Command, args []string) {
	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "failed to configure logging")
	}
	logger := logging.GetLogger("cmd.brief")

	window, err := parseBriefWindow(briefWindow)
	if err != nil {
		HandleError(err, "invalid --window")
	}

	alerts, err := LoadAlerts(briefAlertsPath)
	if err != nil {
		HandleError(err, "failed to load alerts")
	}

	clock := provenance.NewLiveClock("")
	report := brief.Build(alerts, nil, window, clock.Now(), brief.Config{
		Limit:              briefLimit,
		TopClassTwoLimit:   briefTopLimit,
		ExcludeInteresting: briefExcludeInt,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("failed to encode brief report: %v", err)
		os.Exit(1)
	}
}

func parseBriefWindow(s string) (brief.Window, error) {
	switch s {
	case "24h":
		return brief.Window24h, nil
	case "72h":
		return brief.Window72h, nil
	case "168h":
		return brief.Window168h, nil
	default:
		return 0, fmt.Errorf("unsupported window %q (want 24h, 72h, or 168h)", s)
	}
}
