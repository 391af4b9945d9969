// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/desk-researcher/internal/retrieve"
	"github.com/pdiddy/desk-researcher/pkg/types"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <question>",
	Short: "Query the vector store for passages relevant to a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topK, _ := cmd.Flags().GetInt("top-k")
		paperIDs, _ := cmd.Flags().GetStringSlice("paper")
		after, _ := cmd.Flags().GetString("after")
		asJSON, _ := cmd.Flags().GetBool("json")

		q := types.Query{
			Text:   strings.Join(args, " "),
			TopK:   topK,
			Filter: types.Filter{PaperIDs: paperIDs},
		}
		if after != "" {
			t, err := time.Parse(time.DateOnly, after)
			if err != nil {
				return fmt.Errorf("%w: --after must be YYYY-MM-DD: %v", types.ErrInvalidRequest, err)
			}
			q.Filter.PublishedAfter = t
		}

		a, err := newSearchApp()
		if err != nil {
			return err
		}
		defer a.Close()

		passages, err := retrieve.New(a.embedder, a.store, cfg.Retrieve).Retrieve(cmd.Context(), q)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), passages)
		}

		w := cmd.OutOrStdout()
		for i, p := range passages {
			fmt.Fprintf(w, "%2d. %.3f  %s [%s#%d]\n", i+1, p.Score, p.Title, p.PaperID, p.Index)
		}
		if len(passages) == 0 {
			fmt.Fprintln(w, "No passages above the score threshold.")
		}
		return nil
	},
}

func init() {
	retrieveCmd.Flags().Int("top-k", 0, "number of passages (default from retrieve.top_k)")
	retrieveCmd.Flags().StringSlice("paper", nil, "restrict to these paper IDs")
	retrieveCmd.Flags().String("after", "", "only papers published on or after this date (YYYY-MM-DD)")
	retrieveCmd.Flags().Bool("json", false, "output passages as JSON")

	rootCmd.AddCommand(retrieveCmd)
}
