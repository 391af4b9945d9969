// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/desk-researcher/internal/runs"
	"github.com/pdiddy/desk-researcher/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect and export the run ledger",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		status, _ := cmd.Flags().GetString("status")

		ledger, err := runs.Open(cfg.Runs, logger)
		if err != nil {
			return err
		}
		defer ledger.Close()

		list, err := ledger.List(cmd.Context(), limit, types.RunStatus(status))
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tSTAGE\tPAPERS\tCREATED\tQUERY")
		for _, r := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
				r.ID, r.Status, r.Stage, r.RelevantPapers, r.TotalPapers,
				r.CreatedAt.Local().Format(time.DateTime), r.Query)
		}
		return tw.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print one run as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := runs.Open(cfg.Runs, logger)
		if err != nil {
			return err
		}
		defer ledger.Close()

		run, err := ledger.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return runs.ExportYAML(cmd.OutOrStdout(), []types.Run{*run})
	},
}

var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export runs to YAML or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		status, _ := cmd.Flags().GetString("status")
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		export := runs.ExportYAML
		switch format {
		case "yaml", "":
		case "json":
			export = runs.ExportJSON
		default:
			return fmt.Errorf("%w: unknown format %q: use yaml or json", types.ErrInvalidRequest, format)
		}

		ledger, err := runs.Open(cfg.Runs, logger)
		if err != nil {
			return err
		}
		defer ledger.Close()

		list, err := ledger.List(cmd.Context(), limit, types.RunStatus(status))
		if err != nil {
			return err
		}

		if output == "" || output == "-" {
			return export(cmd.OutOrStdout(), list)
		}
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		if err := export(f, list); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d runs to %s\n", len(list), output)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{runsListCmd, runsExportCmd} {
		c.Flags().Int("limit", 50, "maximum number of runs")
		c.Flags().String("status", "", "filter by status: processing, succeeded, failed")
	}
	runsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	runsExportCmd.Flags().StringP("output", "o", "", "output file (default stdout)")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsExportCmd)
	rootCmd.AddCommand(runsCmd)
}
