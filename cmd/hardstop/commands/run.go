package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hardstop/hardstop/internal/alertstore"
	"github.com/hardstop/hardstop/internal/correlator"
	"github.com/hardstop/hardstop/internal/logging"
	"github.com/hardstop/hardstop/internal/pipeline"
	"github.com/hardstop/hardstop/internal/provenance"
	"github.com/hardstop/hardstop/internal/rawstore"
)

var (
	runSourcesPath     string
	runSuppressionPath string
	runNetworkPath     string
	runRawItemsPath    string
	runSince           time.Duration
	runGroupID         string
	runPinnedAt        string
	runSeed            string
	runMaxShipments    int
	runRecordsDir      string
	runNoSuppress      bool
	runIncludeSuppr    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ingest pipeline over a batch of raw items",
	Long: `run walks every eligible raw item through canonicalization, suppression,
network linking, scoring, correlation and evidence building, in that
order, and writes one RunRecord JSON file per operator.`,
	Run: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runSourcesPath, "sources", "sources.yaml", "Path to the sources registry YAML file")
	runCmd.Flags().StringVar(&runSuppressionPath, "suppression", "", "Path to the suppression registry YAML file (optional)")
	runCmd.Flags().StringVar(&runNetworkPath, "network", "", "Path to a facility/lane/shipment network fixture JSON file (optional)")
	runCmd.Flags().StringVar(&runRawItemsPath, "raw-items", "", "Path to a raw-item batch JSON file (required)")
	runCmd.Flags().DurationVar(&runSince, "since", 24*time.Hour, "Ingest window lookback from the run instant")
	runCmd.Flags().StringVar(&runGroupID, "run-group-id", "", "Run group identifier (default: a generated uuid, or pinned-<timestamp> with --pin)")
	runCmd.Flags().StringVar(&runPinnedAt, "pin", "", "Pin the run clock to this RFC3339 instant instead of reading the wall clock (strict mode)")
	runCmd.Flags().StringVar(&runSeed, "seed", "", "Best-effort seed recorded on the run clock when not pinned")
	runCmd.Flags().IntVar(&runMaxShipments, "max-shipments", 0, "Cap on shipments carried in an alert scope (0 uses the package default)")
	runCmd.Flags().StringVar(&runRecordsDir, "run-records-dir", "run_records", "Directory RunRecord JSON files are written under")
	runCmd.Flags().BoolVar(&runNoSuppress, "no-suppress", false, "Evaluate suppression rules but do not stamp or skip matched items")
	runCmd.Flags().BoolVar(&runIncludeSuppr, "include-suppressed", false, "Re-admit previously suppressed raw items into this run")

	runCmd.MarkFlagRequired("raw-items")
}

func runRun(cmd *cobra.Command, args []string) {
	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "failed to configure logging")
	}
	logger := logging.GetLogger("cmd.run")

	rc, err := loadRuntimeConfig(runSourcesPath, runSuppressionPath)
	if err != nil {
		HandleError(err, "configuration error")
	}

	clock, err := buildClock(runPinnedAt, runGroupID, runSeed)
	if err != nil {
		HandleError(err, "invalid --pin value")
	}

	rawItems, err := LoadRawItems(runRawItemsPath)
	if err != nil {
		HandleError(err, "failed to load raw items")
	}

	store := rawstore.New()
	for _, item := range rawItems {
		if _, _, err := store.Save(item); err != nil {
			HandleError(err, fmt.Sprintf("failed to save raw item %s", item.RawItemID))
		}
	}

	deps := pipeline.Deps{
		RawStore:        store,
		AlertStore:      alertstore.New(),
		Suppression:     rc.Suppression,
		KeyLock:         correlator.NewKeyLock(),
		Clock:           clock,
		SourceOverrides: rc.sourceOverrides(),
	}
	if runNetworkPath != "" {
		snap, err := LoadNetworkSnapshot(runNetworkPath)
		if err != nil {
			HandleError(err, "failed to load network fixture")
		}
		deps.NetSnapshot = snap
	}

	opts := pipeline.Options{
		Since:             clock.Now().Add(-runSince),
		IncludeSuppressed: runIncludeSuppr,
		NoSuppress:        runNoSuppress,
		MaxShipments:      runMaxShipments,
		ConfigHash:        rc.ConfigHash,
		RunGroupID:        clock.RunID(),
		SourceIDs:         rc.enabledSourceIDs(),
	}

	report, err := pipeline.Run(context.Background(), deps, opts)
	if report != nil {
		if werr := provenance.WriteRunRecords(runRecordsDir, report.RunRecords); werr != nil {
			logger.Error("failed to write run records: %v", werr)
		}
		printRunSummary(report)
	}
	if err != nil {
		logger.Error("run %s failed: %v", opts.RunGroupID, err)
		os.Exit(2)
	}
	logger.Info("run %s complete: %d item(s) processed", opts.RunGroupID, len(report.Items))
}

// buildClock resolves the run's provenance.Clock: a pinned clock when
// --pin is given (strict mode), otherwise a live clock tagged with the
// optional best-effort seed.
func buildClock(pinnedAt, runGroupID, seed string) (provenance.Clock, error) {
	if pinnedAt == "" {
		live := provenance.NewLiveClock(runGroupID)
		if seed != "" {
			return provenance.NewBestEffortClock(live.Now(), live.RunID(), seed), nil
		}
		return live, nil
	}
	at, err := time.Parse(time.RFC3339, pinnedAt)
	if err != nil {
		return nil, fmt.Errorf("--pin must be RFC3339: %w", err)
	}
	if runGroupID == "" {
		runGroupID = "pinned-" + at.UTC().Format("20060102T150405Z")
	}
	return provenance.NewPinnedClock(at, runGroupID), nil
}

func printRunSummary(report *pipeline.Report) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tPROCESSED\tSUPPRESSED\tEVENTS\tALERTS\tSTATUS")
	for _, run := range report.SourceRuns {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n",
			run.SourceID, run.Counters.ItemsProcessed, run.Counters.ItemsSuppressed,
			run.Counters.ItemsEventsCreated, run.Counters.ItemsAlertsTouched, run.Status)
	}
	w.Flush()

	fmt.Printf("\n%d item(s), %d RunRecord(s) written\n", len(report.Items), len(report.RunRecords))
	for _, item := range report.Items {
		if item.AlertID == "" {
			continue
		}
		fmt.Printf("  %s -> %s (%s)\n", item.RawItemID, item.AlertID, item.Action)
	}
}
