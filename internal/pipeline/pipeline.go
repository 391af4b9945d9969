// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one research request end to end: fetch papers, index
// them, retrieve the passages relevant to the question, synthesize a report
// and email it. Stages run in order and the first failure aborts the run.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/desk-researcher/internal/fetch"
	"github.com/pdiddy/desk-researcher/internal/index"
	"github.com/pdiddy/desk-researcher/internal/notify"
	"github.com/pdiddy/desk-researcher/pkg/types"
)

// MinQueryLength is the shortest accepted question, in characters.
const MinQueryLength = 10

// Request is one research question and the address that receives the report.
type Request struct {
	Query string `json:"query"`
	Email string `json:"email"`

	// Topic overrides the search terms sent to the fetcher. Defaults to Query.
	Topic string `json:"topic,omitempty"`

	// RunID ties observer callbacks to a ledger entry. Optional.
	RunID string `json:"-"`
}

// Validate trims the request and checks the query length and email address.
// Failures carry ErrInvalidRequest.
func (r *Request) Validate(minLength int) error {
	if minLength <= 0 {
		minLength = MinQueryLength
	}
	r.Query = strings.TrimSpace(r.Query)
	r.Email = strings.TrimSpace(r.Email)
	r.Topic = strings.TrimSpace(r.Topic)
	if n := len([]rune(r.Query)); n < minLength {
		return fmt.Errorf("%w: query must be at least %d characters, got %d", types.ErrInvalidRequest, minLength, n)
	}
	if err := notify.ValidateAddress(r.Email); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidRequest, err)
	}
	return nil
}

// Stage interfaces, satisfied by the concrete types in the stage packages.
type (
	Indexer interface {
		Index(ctx context.Context, papers []types.Paper) (index.Summary, error)
	}
	Retriever interface {
		Retrieve(ctx context.Context, q types.Query) (types.RetrievedContext, error)
	}
	Synthesizer interface {
		Synthesize(ctx context.Context, question string, passages types.RetrievedContext) (*types.Report, error)
	}
	Notifier interface {
		Notify(ctx context.Context, report *types.Report, recipient string) (notify.Delivery, error)
	}
)

// Observer is told about stage transitions. The run ledger implements it.
type Observer interface {
	StageStarted(ctx context.Context, runID string, stage types.Stage)
	Completed(ctx context.Context, runID string, out types.Outcome)
	Failed(ctx context.Context, runID string, stage types.Stage, err error)
}

type nopObserver struct{}

func (nopObserver) StageStarted(context.Context, string, types.Stage)  {}
func (nopObserver) Completed(context.Context, string, types.Outcome)   {}
func (nopObserver) Failed(context.Context, string, types.Stage, error) {}

// Engine wires the stages together.
type Engine struct {
	Fetcher     fetch.Fetcher
	Indexer     Indexer
	Retriever   Retriever
	Synthesizer Synthesizer
	Notifier    Notifier
	Observer    Observer
	Logger      *zap.Logger

	// MaxResults is passed to the fetcher; TopK sizes the retrieval.
	MaxResults int
	TopK       int
}

// defaultKind is the error kind assigned when a stage returns an untyped error.
var defaultKind = map[types.Stage]error{
	types.StageFetch:      types.ErrNetwork,
	types.StageIndex:      types.ErrIndex,
	types.StageRetrieve:   types.ErrIndex,
	types.StageSynthesize: types.ErrSynthesis,
	types.StageNotify:     types.ErrDelivery,
}

// Run executes every stage for req. The returned error is a *types.StageError
// naming the failed stage and its kind.
func (e *Engine) Run(ctx context.Context, req Request) (types.Outcome, error) {
	log := e.logger().With(zap.String("run_id", req.RunID))
	obs := e.observer()
	start := time.Now()

	var (
		out      types.Outcome
		papers   []types.Paper
		passages types.RetrievedContext
	)

	steps := []struct {
		stage types.Stage
		run   func(context.Context) error
	}{
		{types.StageFetch, func(ctx context.Context) error {
			var err error
			topic := req.Topic
			if topic == "" {
				topic = req.Query
			}
			papers, err = e.Fetcher.Fetch(ctx, topic, e.MaxResults)
			out.TotalPapers = len(papers)
			return err
		}},
		{types.StageIndex, func(ctx context.Context) error {
			_, err := e.Indexer.Index(ctx, papers)
			return err
		}},
		{types.StageRetrieve, func(ctx context.Context) error {
			var err error
			passages, err = e.Retriever.Retrieve(ctx, types.Query{
				Text:   req.Query,
				TopK:   e.TopK,
				Filter: types.Filter{PaperIDs: paperIDs(papers)},
			})
			out.RelevantPapers = len(passages.PaperIDs())
			return err
		}},
		{types.StageSynthesize, func(ctx context.Context) error {
			var err error
			out.Report, err = e.Synthesizer.Synthesize(ctx, req.Query, passages)
			return err
		}},
		{types.StageNotify, func(ctx context.Context) error {
			d, err := e.Notifier.Notify(ctx, out.Report, req.Email)
			out.DeliveryID = d.ID
			return err
		}},
	}

	for _, step := range steps {
		obs.StageStarted(ctx, req.RunID, step.stage)
		stageStart := time.Now()

		if err := step.run(ctx); err != nil {
			kind := types.KindOf(err)
			if kind == nil {
				kind = defaultKind[step.stage]
			}
			serr := types.NewStageError(step.stage, kind, err)
			log.Error("stage failed",
				zap.String("stage", string(step.stage)),
				zap.String("kind", types.KindName(serr)),
				zap.Duration("elapsed", time.Since(stageStart)),
				zap.Error(err),
			)
			obs.Failed(ctx, req.RunID, step.stage, serr)
			return types.Outcome{}, serr
		}

		log.Info("stage completed",
			zap.String("stage", string(step.stage)),
			zap.Duration("elapsed", time.Since(stageStart)),
		)
	}

	log.Info("research completed",
		zap.Int("total_papers", out.TotalPapers),
		zap.Int("relevant_papers", out.RelevantPapers),
		zap.String("delivery_id", out.DeliveryID),
		zap.Duration("elapsed", time.Since(start)),
	)
	obs.Completed(ctx, req.RunID, out)
	return out, nil
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Engine) observer() Observer {
	if e.Observer == nil {
		return nopObserver{}
	}
	return e.Observer
}

func paperIDs(papers []types.Paper) []string {
	ids := make([]string, len(papers))
	for i, p := range papers {
		ids[i] = p.ID
	}
	return ids
}
