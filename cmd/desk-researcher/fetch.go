// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/desk-researcher/internal/fetch"
	"github.com/pdiddy/desk-researcher/internal/index"
	"github.com/pdiddy/desk-researcher/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <topic>",
	Short: "Search arXiv and print the papers found",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxResults, _ := cmd.Flags().GetInt("max-results")
		format, _ := cmd.Flags().GetString("format")

		papers, err := fetchPapers(cmd, strings.Join(args, " "), maxResults)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		switch format {
		case "json":
			return writeJSON(w, papers)
		case "yaml":
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(papers)
		case "", "text":
			for i, p := range papers {
				fmt.Fprintf(w, "[%d] %s (%s)\n    %s\n", i+1, p.Title, p.PublishedDate(), p.URL)
			}
			fmt.Fprintf(w, "\n%d papers\n", len(papers))
			return nil
		default:
			return fmt.Errorf("%w: unknown format %q: use text, json or yaml", types.ErrInvalidRequest, format)
		}
	},
}

var indexCmd = &cobra.Command{
	Use:   "index <topic>",
	Short: "Search arXiv and index the results into the vector store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxResults, _ := cmd.Flags().GetInt("max-results")

		papers, err := fetchPapers(cmd, strings.Join(args, " "), maxResults)
		if err != nil {
			return err
		}
		a, err := newSearchApp()
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := index.New(a.embedder, a.store, cfg.Index, logger).Index(cmd.Context(), papers)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d snippets from %d papers (%d in collection) in %s\n",
			sum.Snippets, sum.Papers, sum.Total, sum.Elapsed.Round(time.Millisecond))
		return nil
	},
}

func fetchPapers(cmd *cobra.Command, topic string, maxResults int) ([]types.Paper, error) {
	if maxResults <= 0 {
		maxResults = cfg.Fetch.MaxResults
	}
	return fetch.NewArxivFetcher(cfg.Fetch).Fetch(cmd.Context(), topic, maxResults)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	fetchCmd.Flags().Int("max-results", 0, "number of papers to request (default from fetch.max_results)")
	fetchCmd.Flags().String("format", "text", "output format: text, json or yaml")
	indexCmd.Flags().Int("max-results", 0, "number of papers to request (default from fetch.max_results)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(indexCmd)
}
