// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/desk-researcher/internal/container"
	"github.com/pdiddy/desk-researcher/internal/vectorstore"
)

var qdrantCmd = &cobra.Command{
	Use:   "qdrant",
	Short: "Manage a local Qdrant container",
}

var qdrantStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the local Qdrant container with docker or podman",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := container.DetectRuntime()
		if err != nil {
			return err
		}
		svc := container.QdrantService(cfg.Store.APIKey)
		state, err := rt.Start(svc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s), REST on %s\n", svc.Name, state, rt.Name(), cfg.Store.URL)
		return nil
	},
}

var qdrantStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the container state and whether the configured Qdrant answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		svc := container.QdrantService("")
		if rt, err := container.DetectRuntime(); err != nil {
			fmt.Fprintf(w, "container: %v\n", err)
		} else {
			state, err := rt.Status(svc.Name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "container: %s %s\n", svc.Name, state)
		}

		store := vectorstore.NewQdrantStore(cfg.Store)
		defer store.Close()
		ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			fmt.Fprintf(w, "qdrant:    %s unreachable: %v\n", store.BaseURL, err)
			return nil
		}
		n, err := store.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "qdrant:    %s connected, %s has %d points\n", store.BaseURL, store.Collection, n)
		return nil
	},
}

func init() {
	qdrantCmd.AddCommand(qdrantStartCmd, qdrantStatusCmd)
	rootCmd.AddCommand(qdrantCmd)
}
