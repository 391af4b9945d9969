// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/desk-researcher/internal/config"
	"github.com/pdiddy/desk-researcher/internal/embedding"
	"github.com/pdiddy/desk-researcher/internal/fetch"
	"github.com/pdiddy/desk-researcher/internal/index"
	"github.com/pdiddy/desk-researcher/internal/notify"
	"github.com/pdiddy/desk-researcher/internal/pipeline"
	"github.com/pdiddy/desk-researcher/internal/retrieve"
	"github.com/pdiddy/desk-researcher/internal/synth"
	"github.com/pdiddy/desk-researcher/internal/vectorstore"
	"github.com/pdiddy/desk-researcher/pkg/types"
)

// app holds the constructed components for one command invocation.
type app struct {
	embedder embedding.Embedder
	store    vectorstore.Store
	engine   *pipeline.Engine
	closers  []func() error
}

// Close releases every component in reverse construction order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// newSearchApp builds the embedder and vector store, enough for index and
// retrieve commands.
func newSearchApp() (*app, error) {
	if err := config.Validate(cfg, config.NeedStore); err != nil {
		return nil, err
	}
	a := &app{}
	e, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrEmbedding, err)
	}
	a.embedder = e
	a.closers = append(a.closers, e.Close)

	s, err := vectorstore.New(cfg.Store)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("%w: %v", types.ErrIndex, err)
	}
	a.store = s
	a.closers = append(a.closers, s.Close)
	return a, nil
}

// newResearchApp builds the full pipeline. need selects which credentials are
// required; a missing AI or email key is reported by Validate.
func newResearchApp(ctx context.Context, need config.Need) (*app, error) {
	if err := config.Validate(cfg, need); err != nil {
		return nil, err
	}
	a, err := newSearchApp()
	if err != nil {
		return nil, err
	}

	completer, err := synth.NewFantasyCompleter(ctx, cfg.AI)
	if err != nil {
		a.Close()
		return nil, err
	}
	sender, err := notify.NewResendSender(cfg.Email.APIKey, cfg.Email.BaseURL, &http.Client{Timeout: cfg.Email.Timeout})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.engine = &pipeline.Engine{
		Fetcher:     fetch.NewArxivFetcher(cfg.Fetch),
		Indexer:     index.New(a.embedder, a.store, cfg.Index, logger),
		Retriever:   retrieve.New(a.embedder, a.store, cfg.Retrieve),
		Synthesizer: synth.New(completer, cfg.AI, logger),
		Notifier:    notify.New(sender, cfg.Email),
		Logger:      logger,
		MaxResults:  cfg.Fetch.MaxResults,
		TopK:        cfg.Retrieve.TopK,
	}
	return a, nil
}

// exitCode maps an error kind to a process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidRequest):
		return 2
	case errors.Is(err, types.ErrNetwork), errors.Is(err, types.ErrSynthesis), errors.Is(err, types.ErrDelivery):
		return 3
	case errors.Is(err, types.ErrEmbedding), errors.Is(err, types.ErrIndex):
		return 4
	default:
		return 1
	}
}
