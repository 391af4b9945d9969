// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth turns retrieved passages into a cited research report using a
// hosted language model.
package synth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/desk-researcher/pkg/types"
)

// Defaults applied when the corresponding Synthesizer field is zero.
const (
	DefaultMaxSources = 5
	DefaultMaxRetries = 3
	DefaultTimeout    = 60 * time.Second
	DefaultMaxWords   = 400
)

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("model returned an empty report")

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// Completer sends a prompt to a language model and returns its text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Synthesizer builds prompts from retrieved context and asks a Completer for
// the report.
type Synthesizer struct {
	Completer  Completer
	Model      string
	MaxSources int
	MaxRetries int
	Timeout    time.Duration
	MaxWords   int
	Logger     *zap.Logger
}

// New returns a Synthesizer configured from cfg.
func New(c Completer, cfg types.AIConfig, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		Completer:  c,
		Model:      cfg.Model,
		MaxSources: cfg.MaxSources,
		MaxRetries: cfg.MaxRetries,
		Timeout:    cfg.Timeout,
		Logger:     logger,
	}
}

// Sources groups passages by paper in rank order and numbers the first
// maxSources of them from 1. The returned texts hold each paper's best passage.
func Sources(passages types.RetrievedContext, maxSources int) ([]types.Source, []string) {
	var (
		sources []types.Source
		texts   []string
		seen    = make(map[string]bool)
	)
	for _, p := range passages {
		if seen[p.PaperID] {
			continue
		}
		if len(sources) == maxSources {
			break
		}
		seen[p.PaperID] = true
		sources = append(sources, types.Source{
			Index:     len(sources) + 1,
			PaperID:   p.PaperID,
			Title:     p.Title,
			URL:       p.URL,
			Published: p.Published,
			Score:     math.Round(p.Score*1000) / 1000,
		})
		texts = append(texts, p.Text)
	}
	return sources, texts
}

// Synthesize asks the model for a report answering question from passages.
// Failures carry ErrSynthesis.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, passages types.RetrievedContext) (*types.Report, error) {
	maxSources := s.MaxSources
	if maxSources <= 0 {
		maxSources = DefaultMaxSources
	}
	maxWords := s.MaxWords
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}

	sources, texts := Sources(passages, maxSources)
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no passages to synthesize from", types.ErrSynthesis)
	}

	prompt, err := renderPrompt(question, sources, texts, maxWords)
	if err != nil {
		return nil, fmt.Errorf("%w: rendering prompt: %v", types.ErrSynthesis, err)
	}

	text, err := s.completeWithRetry(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSynthesis, err)
	}

	cited := Citations(text)
	for i := range sources {
		sources[i].Cited = cited[sources[i].Index]
	}

	return &types.Report{
		Query:       question,
		Text:        text,
		Sources:     sources,
		Model:       s.Model,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// completeWithRetry calls the Completer with a per-attempt timeout and
// exponential backoff between attempts. Empty answers count as failures.
func (s *Synthesizer) completeWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := s.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := s.completeOnce(ctx, prompt, timeout)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
		s.logger().Warn("completion attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

func (s *Synthesizer) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Synthesizer) completeOnce(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := s.Completer.Complete(attemptCtx, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
