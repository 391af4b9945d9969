// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/desk-researcher/internal/config"
	"github.com/pdiddy/desk-researcher/internal/pipeline"
	"github.com/pdiddy/desk-researcher/internal/runs"
)

var researchCmd = &cobra.Command{
	Use:   "research <question>",
	Short: "Run the full pipeline for one question and email the report",
	Long: `Research searches arXiv for the question (or --topic), indexes the results,
retrieves the most relevant passages, synthesizes a cited report and emails it
to --email. The run is recorded in the run ledger unless --no-ledger is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		topic, _ := cmd.Flags().GetString("topic")
		noLedger, _ := cmd.Flags().GetBool("no-ledger")
		asJSON, _ := cmd.Flags().GetBool("json")

		req := pipeline.Request{Query: args[0], Email: email, Topic: topic}
		if err := req.Validate(cfg.Server.MinQueryLength); err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newResearchApp(ctx, config.NeedAll)
		if err != nil {
			return err
		}
		defer a.Close()

		if !noLedger {
			ledger, err := runs.Open(cfg.Runs, logger)
			if err != nil {
				return err
			}
			defer ledger.Close()
			run, err := ledger.Create(ctx, req.Query, req.Email)
			if err != nil {
				return err
			}
			req.RunID = run.ID
			a.engine.Observer = ledger
		}

		out, err := a.engine.Run(ctx, req)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), out)
		}

		w := cmd.OutOrStdout()
		if req.RunID != "" {
			fmt.Fprintf(w, "Run %s\n", req.RunID)
		}
		fmt.Fprintf(w, "Papers: %d found, %d relevant\n", out.TotalPapers, out.RelevantPapers)
		fmt.Fprintf(w, "Delivered to %s (id %s)\n\n", req.Email, out.DeliveryID)
		fmt.Fprintln(w, out.Report.Text)
		return nil
	},
}

func init() {
	researchCmd.Flags().String("email", "", "recipient address for the report (required)")
	researchCmd.Flags().String("topic", "", "arXiv search terms, when different from the question")
	researchCmd.Flags().Bool("no-ledger", false, "do not record the run in the run ledger")
	researchCmd.Flags().Bool("json", false, "print the outcome as JSON")
	_ = researchCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(researchCmd)
}
