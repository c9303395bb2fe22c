package commands

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hardstop/hardstop/internal/health"
	"github.com/hardstop/hardstop/internal/logging"
	"github.com/hardstop/hardstop/internal/models"
	"github.com/hardstop/hardstop/internal/provenance"
	"github.com/hardstop/hardstop/internal/runstatus"
)

var (
	doctorSourcesPath     string
	doctorSuppressionPath string
	doctorSourceRunsPath  string
	doctorStrict          bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Score source health and surface the run-status exit code",
	Long: `doctor replays a source's recent SourceRun history through the rolling
health scorer and the run-status evaluator, then exits with the
resulting ExitCode (0 healthy, 1 warning, 2 broken) after printing the
deterministically ordered findings that produced it.`,
	Run: runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&doctorSourcesPath, "sources", "sources.yaml", "Path to the sources registry YAML file")
	doctorCmd.Flags().StringVar(&doctorSuppressionPath, "suppression", "", "Path to the suppression registry YAML file (optional)")
	doctorCmd.Flags().StringVar(&doctorSourceRunsPath, "source-runs", "", "Path to a SourceRun history JSON file (required)")
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "Escalate any warning finding to broken")

	doctorCmd.MarkFlagRequired("source-runs")
}

func runDoctor(cmd *cobra.Command, args []string) {
	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "failed to configure logging")
	}
	logger := logging.GetLogger("cmd.doctor")

	rc, err := loadRuntimeConfig(doctorSourcesPath, doctorSuppressionPath)
	if err != nil {
		HandleError(err, "configuration error")
	}

	runs, err := LoadSourceRunHistory(doctorSourceRunsPath)
	if err != nil {
		HandleError(err, "failed to load source run history")
	}

	window := health.NewWindow(len(rc.Sources) + 1)
	for _, r := range runs {
		window.Record(r)
	}

	clock := provenance.NewLiveClock("")
	now := clock.Now()

	budgetStates := map[string]runstatus.BudgetState{}
	reportsBySource := map[string]health.Report{}
	for _, s := range rc.Sources {
		if !s.Enabled {
			continue
		}
		report := health.Score(window, s.ID, now)
		reportsBySource[s.ID] = report
		budgetStates[s.ID] = runstatus.BudgetState(report.State)
	}

	input := runstatus.Input{
		FetchOutcomes:    fetchOutcomes(rc.enabledSourceIDs(), runs),
		StaleSourceIDs:   staleSourceIDs(reportsBySource),
		BudgetStates:     budgetStates,
		IngestRowFailures: ingestRowFailures(runs),
		Strict:            doctorStrict,
	}
	result := runstatus.Evaluate(input)

	printHealthTable(reportsBySource, rc.enabledSourceIDs())
	printRunStatus(result)

	logger.Info("doctor exit_code=%d", result.ExitCode)
	os.Exit(int(result.ExitCode))
}

func fetchOutcomes(enabledIDs []string, runs []models.SourceRun) []runstatus.SourceFetchOutcome {
	latestFetch := map[string]models.SourceRun{}
	for _, r := range runs {
		if r.Phase != models.PhaseFetch {
			continue
		}
		if prev, ok := latestFetch[r.SourceID]; !ok || r.RunAtUTC.After(prev.RunAtUTC) {
			latestFetch[r.SourceID] = r
		}
	}

	out := make([]runstatus.SourceFetchOutcome, 0, len(enabledIDs))
	for _, id := range enabledIDs {
		r, ok := latestFetch[id]
		out = append(out, runstatus.SourceFetchOutcome{
			SourceID:     id,
			Enabled:      true,
			Failed:       ok && r.Status == models.RunFailure,
			ItemsFetched: r.Counters.ItemsFetched,
		})
	}
	return out
}

func staleSourceIDs(reports map[string]health.Report) []string {
	var out []string
	for id, r := range reports {
		if r.StaleHours > 24 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func ingestRowFailures(runs []models.SourceRun) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range runs {
		if r.Phase == models.PhaseIngest && r.Status == models.RunFailure && !seen[r.SourceID] {
			seen[r.SourceID] = true
			out = append(out, r.SourceID)
		}
	}
	sort.Strings(out)
	return out
}

func printHealthTable(reports map[string]health.Report, ids []string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tSCORE\tSTATE\tSUCCESS_RATE\tSTALE_HOURS\tFAILURE_STREAK\tSUPPRESSION_RATIO")
	for _, id := range ids {
		r := reports[id]
		fmt.Fprintf(w, "%s\t%d\t%s\t%.2f\t%.1f\t%d\t%.2f\n",
			r.SourceID, r.Score, r.State, r.SuccessRate, r.StaleHours, r.FailureStreak, r.SuppressionRatio)
	}
	w.Flush()
}

func printRunStatus(result runstatus.Result) {
	fmt.Printf("\nexit_code: %d\n", result.ExitCode)
	for _, m := range result.Messages {
		if m.SourceID == "" {
			fmt.Printf("  [%d] %s\n", m.Rule, m.Text)
			continue
		}
		fmt.Printf("  [%d] %s: %s\n", m.Rule, m.SourceID, m.Text)
	}
}
