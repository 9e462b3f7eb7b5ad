package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clipsmith/internal/manifest"
)

func newManifestCommand(ctx *commandContext) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect edit manifests",
	}

	manifestCmd.AddCommand(newManifestShowCommand(ctx))
	manifestCmd.AddCommand(newManifestListCommand(ctx))
	manifestCmd.AddCommand(newManifestPathCommand(ctx))
	manifestCmd.AddCommand(newManifestHealthCommand(ctx))

	return manifestCmd
}

func newManifestShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <source-ref>",
		Short: "Show a manifest and its variations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			m, err := svc.GetManifest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, m)
			}
			printManifest(cmd, m)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the manifest as JSON")
	return cmd
}

func newManifestListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every manifest in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			manifests, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(manifests) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No manifests yet.")
				return nil
			}
			rows := make([][]string, 0, len(manifests))
			for _, m := range manifests {
				rows = append(rows, []string{
					m.SourceRef,
					string(m.Status),
					fmt.Sprintf("%d", len(m.Variations)),
					m.SelectedID,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Source", "Status", "Variations", "Selected"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newManifestPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path <source-ref>",
		Short: "Print the file to use for the clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			path, err := svc.GetSelectedPath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newManifestHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the manifest store database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureService(); err != nil {
				return err
			}
			health, err := ctx.store.CheckHealth(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, health)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s\n", health.DBPath)
			fmt.Fprintf(out, "Exists: %s  Readable: %s  Tables: %s  Integrity: %s\n",
				yesNo(health.DatabaseExists), yesNo(health.DatabaseReadable),
				yesNo(health.TablesExist), yesNo(health.IntegrityOK))
			fmt.Fprintf(out, "Manifests: %d  Variations: %d\n", health.Manifests, health.Variations)
			if health.Error != "" {
				fmt.Fprintf(out, "Error: %s\n", health.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit health as JSON")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func printManifest(cmd *cobra.Command, m *manifest.Manifest) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Source: %s\n", m.SourceRef)
	fmt.Fprintf(out, "Clip: %s\n", m.ClipPath)
	if m.Duration > 0 {
		fmt.Fprintf(out, "Duration: %ss\n", formatSeconds(m.Duration))
	}
	if m.Context != "" {
		fmt.Fprintf(out, "Context: %s\n", m.Context)
	}
	fmt.Fprintf(out, "Status: %s\n", m.Status)
	if m.SelectedID != "" {
		fmt.Fprintf(out, "Selected: %s\n", m.SelectedID)
	}
	if m.AnalysisJSON != "" {
		fmt.Fprintln(out, "Analysis: stored")
	}
	if len(m.Variations) == 0 {
		fmt.Fprintln(out, "No variations yet.")
		return
	}

	rows := make([][]string, 0, len(m.Variations))
	for _, v := range m.Variations {
		rows = append(rows, []string{
			v.ID,
			v.Kind,
			describeParams(v),
			string(v.Source),
			v.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Kind", "Edit", "Origin", "Created"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	))
}

func describeParams(v manifest.Variation) string {
	var parts []string
	if v.Params.HasTrim() {
		parts = append(parts, fmt.Sprintf("trim %s..%s",
			formatSeconds(v.Params.TrimStart), formatSeconds(v.Params.TrimEnd)))
	}
	if v.Params.HasSpeed() {
		parts = append(parts, fmt.Sprintf("speed %.2fx", v.Params.Speed))
	}
	if len(parts) == 0 {
		return "unchanged"
	}
	return strings.Join(parts, ", ")
}
