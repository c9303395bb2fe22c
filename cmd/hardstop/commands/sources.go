package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hardstop/hardstop/internal/config"
	"github.com/hardstop/hardstop/internal/models"
	"github.com/hardstop/hardstop/internal/suppression"
)

var (
	sourcesListSourcesPath     string
	sourcesListSuppressionPath string

	sourcesTestSourcesPath     string
	sourcesTestSuppressionPath string
	sourcesTestTitle           string
	sourcesTestText            string
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect the resolved sources registry",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every declared source with its resolved modifiers",
	Run:   runSourcesList,
}

var sourcesTestCmd = &cobra.Command{
	Use:   "test <source-id>",
	Short: "Dry-run suppression evaluation for one source against sample text",
	Long: `test resolves one source's modifiers and, when --title or --text is
given, evaluates the sample against that source's suppression rules (the
global rules from --suppression when given, plus the source's own inline
rules) the way the pipeline would at
canonicalization time. It never performs a network fetch: fetch adapters
are an external collaborator this repository does not ship.`,
	Args: cobra.ExactArgs(1),
	Run:  runSourcesTest,
}

func init() {
	sourcesListCmd.Flags().StringVar(&sourcesListSourcesPath, "sources", "sources.yaml", "Path to the sources registry YAML file")
	sourcesListCmd.Flags().StringVar(&sourcesListSuppressionPath, "suppression", "", "Path to the suppression registry YAML file (optional)")

	sourcesTestCmd.Flags().StringVar(&sourcesTestSourcesPath, "sources", "sources.yaml", "Path to the sources registry YAML file")
	sourcesTestCmd.Flags().StringVar(&sourcesTestSuppressionPath, "suppression", "", "Path to the suppression registry YAML file (optional)")
	sourcesTestCmd.Flags().StringVar(&sourcesTestTitle, "title", "", "Sample event title to evaluate")
	sourcesTestCmd.Flags().StringVar(&sourcesTestText, "text", "", "Sample event body text to evaluate")

	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesTestCmd)
}

func runSourcesList(cmd *cobra.Command, args []string) {
	rc, err := loadRuntimeConfig(sourcesListSourcesPath, sourcesListSuppressionPath)
	if err != nil {
		HandleError(err, "configuration error")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tTIER\tENABLED\tTRUST_TIER\tCLASS_FLOOR\tWEIGHT_BIAS\tSUPPRESS_RULES")
	for _, s := range rc.Sources {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%d\t%d\t%d\t%d\n",
			s.ID, s.Type, s.Tier, s.Enabled, s.TrustTier, s.ClassificationFloor, s.WeightingBias, len(s.Suppress))
	}
	w.Flush()
}

func runSourcesTest(cmd *cobra.Command, args []string) {
	sourceID := args[0]
	rc, err := loadRuntimeConfig(sourcesTestSourcesPath, sourcesTestSuppressionPath)
	if err != nil {
		HandleError(err, "configuration error")
	}

	var found *config.ResolvedSource
	for i := range rc.Sources {
		if rc.Sources[i].ID == sourceID {
			found = &rc.Sources[i]
			break
		}
	}
	if found == nil {
		HandleError(fmt.Errorf("source %q not found in %s", sourceID, sourcesTestSourcesPath), "sources test")
	}

	fmt.Printf("source:        %s\n", sourceID)
	fmt.Printf("tier:          %s\n", found.Tier)
	fmt.Printf("enabled:       %v\n", found.Enabled)
	fmt.Printf("trust_tier:    %d\n", found.TrustTier)
	fmt.Printf("class_floor:   %d\n", found.ClassificationFloor)
	fmt.Printf("weight_bias:   %+d\n", found.WeightingBias)

	if sourcesTestTitle == "" && sourcesTestText == "" {
		return
	}
	if rc.Suppression == nil {
		fmt.Println("\nno suppression registry given (--suppression), skipping evaluation")
		return
	}

	sample := &models.Event{
		EventID:  "sources-test-sample",
		SourceID: sourceID,
		Title:    sourcesTestTitle,
		RawText:  sourcesTestText,
	}
	result := suppression.Evaluate(rc.Suppression, sample)
	fmt.Println()
	if !result.Matched {
		fmt.Println("suppression: would NOT be suppressed")
		return
	}
	fmt.Printf("suppression: WOULD be suppressed by rule %q (reason=%s, all_rules=%v)\n",
		result.PrimaryRuleID, result.ReasonCode, result.AllRuleIDs)
}
