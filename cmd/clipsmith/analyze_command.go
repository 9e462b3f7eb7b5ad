package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clipsmith/internal/analysis"
	"clipsmith/internal/config"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var dialogue string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "analyze <clip>",
		Short: "Run the signal pipeline over a clip and report its quality",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clip, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			analyzer, err := ctx.ensureAnalyzer()
			if err != nil {
				return err
			}
			result, err := analyzer.Analyze(cmd.Context(), clip, analysis.Options{
				ExpectedDialogue: dialogue,
			})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}
			printAnalysis(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&dialogue, "dialogue", "", "Dialogue the clip was generated from, for mismatch checking")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the full analysis as JSON")
	return cmd
}

func printAnalysis(cmd *cobra.Command, result *analysis.Result) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintf(out, "Clip: %s\n", result.ClipPath)
	fmt.Fprintf(out, "Duration: %ss  Segments: %d  Scenes: %d  Silences: %d\n",
		formatSeconds(result.Duration), len(result.Segments), len(result.Scenes), len(result.Silences))
	fmt.Fprintf(out, "Score: %.2f  Recommended: %s\n",
		result.Assessment.Score,
		colorizeAction(string(result.Assessment.RecommendedAction), colorize))

	for _, d := range result.Degraded {
		fmt.Fprintf(out, "Degraded signal %s: %s\n", d.Source, d.Reason)
	}

	if len(result.Anomalies) > 0 {
		rows := make([][]string, 0, len(result.Anomalies))
		for _, a := range result.Anomalies {
			rows = append(rows, []string{
				string(a.Kind),
				formatSeconds(a.Timestamp),
				string(a.Severity),
				a.Description,
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Anomaly", "At", "Severity", "Detail"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
		))
	}

	if len(result.Suggestions) > 0 {
		rows := make([][]string, 0, len(result.Suggestions))
		for _, s := range result.Suggestions {
			var params string
			switch {
			case s.Parameters.SplitPoint > 0:
				params = "split at " + formatSeconds(s.Parameters.SplitPoint)
			default:
				params = fmt.Sprintf("trim %s..%s",
					formatSeconds(s.Parameters.TrimStart), formatSeconds(s.Parameters.TrimEnd))
			}
			rows = append(rows, []string{
				string(s.Kind),
				params,
				fmt.Sprintf("%.2f", s.Confidence),
				s.Reasoning,
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Suggestion", "Edit", "Confidence", "Reasoning"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
		))
	}
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
