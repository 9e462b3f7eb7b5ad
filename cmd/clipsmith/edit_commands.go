package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipsmith/internal/analysis"
	"clipsmith/internal/config"
	"clipsmith/internal/manifest"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Create and manage edit variations for a clip",
	}

	editCmd.AddCommand(newEditStartCommand(ctx))
	editCmd.AddCommand(newEditTrimCommand(ctx))
	editCmd.AddCommand(newEditSpeedCommand(ctx))
	editCmd.AddCommand(newEditSelectCommand(ctx))
	editCmd.AddCommand(newEditAdvanceCommand(ctx))
	editCmd.AddCommand(newEditAutoCommand(ctx))

	return editCmd
}

func newEditStartCommand(ctx *commandContext) *cobra.Command {
	var editContext string

	cmd := &cobra.Command{
		Use:   "start <source-ref> <clip>",
		Short: "Register a source clip for editing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			clip, err := config.ExpandPath(args[1])
			if err != nil {
				return err
			}
			m, err := svc.Start(cmd.Context(), args[0], clip, editContext)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Manifest %s ready (%s)\n", m.SourceRef, m.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&editContext, "context", "", "What the clip is meant to show, kept on the manifest")
	return cmd
}

func newEditTrimCommand(ctx *commandContext) *cobra.Command {
	var (
		start, end float64
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "trim <source-ref>",
		Short: "Render a trimmed variation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			m, err := svc.Trim(cmd.Context(), args[0], start, end, notes)
			if err != nil {
				return err
			}
			printLatestVariation(cmd, m)
			return nil
		},
	}

	cmd.Flags().Float64Var(&start, "start", 0, "Seconds to cut from the head")
	cmd.Flags().Float64Var(&end, "end", 0, "Timestamp to cut the tail at (0 keeps the tail)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form note stored on the variation")
	return cmd
}

func newEditSpeedCommand(ctx *commandContext) *cobra.Command {
	var (
		factor float64
		base   string
		notes  string
	)

	cmd := &cobra.Command{
		Use:   "speed <source-ref>",
		Short: "Render a speed-adjusted variation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			m, err := svc.Speed(cmd.Context(), args[0], factor, base, notes)
			if err != nil {
				return err
			}
			printLatestVariation(cmd, m)
			return nil
		},
	}

	cmd.Flags().Float64Var(&factor, "factor", 1.0, "Playback rate multiplier")
	cmd.Flags().StringVar(&base, "base", "", "Variation id to compose the speed change with (default: source clip)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form note stored on the variation")
	return cmd
}

func newEditSelectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select <source-ref> <variation-id>",
		Short: "Choose a variation as the clip's edit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			m, err := svc.Select(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Selected %s on %s (%s)\n", m.SelectedID, m.SourceRef, m.Status)
			return nil
		},
	}
}

func newEditAdvanceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <source-ref> <status>",
		Short: "Move a manifest to a later lifecycle state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			status, err := manifest.ParseStatus(args[1])
			if err != nil {
				return err
			}
			m, err := svc.Advance(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Manifest %s is now %s\n", m.SourceRef, m.Status)
			return nil
		},
	}
}

func newEditAutoCommand(ctx *commandContext) *cobra.Command {
	var (
		dialogue string
		apply    bool
	)

	cmd := &cobra.Command{
		Use:   "auto <source-ref>",
		Short: "Analyze the registered clip and apply the recommended edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			m, result, err := svc.AutoAnalyze(cmd.Context(), args[0], apply, analysis.Options{
				ExpectedDialogue: dialogue,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Score: %.2f  Recommended: %s\n",
				result.Assessment.Score,
				colorizeAction(string(result.Assessment.RecommendedAction), colorize))
			if m.SelectedID != "" {
				fmt.Fprintf(out, "Selected %s (%s)\n", m.SelectedID, m.Status)
			} else {
				fmt.Fprintf(out, "Manifest %s is now %s\n", m.SourceRef, m.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dialogue, "dialogue", "", "Dialogue the clip was generated from, for mismatch checking")
	cmd.Flags().BoolVar(&apply, "apply", true, "Render and select a suggested trim when one exists")
	return cmd
}

func printLatestVariation(cmd *cobra.Command, m *manifest.Manifest) {
	if len(m.Variations) == 0 {
		return
	}
	v := m.Variations[len(m.Variations)-1]
	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s -> %s\n", v.ID, v.Path)
}
