// Package pipeline orchestrates the dual-pass extraction-and-adjudication
// flow: two independent extraction passes at different sampling temperatures,
// then one adjudication call that reconciles them against the source text.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/portledger/sofextract/internal/sof"
)

// Extractor is the subset of the extraction service the pipeline depends on.
type Extractor interface {
	Extract(ctx context.Context, documentText string, temperature float64) (*sof.Record, error)
	Adjudicate(ctx context.Context, documentText string, candidateA, candidateB *sof.Record) (*sof.Record, error)
}

// Config holds dependencies for the processor.
type Config struct {
	// Extractor performs the LLM calls. Required.
	Extractor Extractor

	// Pass temperatures. The first pass intentionally defaults to 0.0
	// (deterministic extraction). The second pass is a pointer so that an
	// explicit 0.0 is distinguishable from unset; nil defaults to 0.3.
	FirstPassTemperature  float64
	SecondPassTemperature *float64

	Logger *slog.Logger
}

// Processor runs the full pipeline for one document.
type Processor struct {
	extractor  Extractor
	firstTemp  float64
	secondTemp float64
	logger     *slog.Logger
}

// New creates a processor.
func New(cfg Config) (*Processor, error) {
	if cfg.Extractor == nil {
		return nil, errors.New("pipeline: extractor is required")
	}
	secondTemp := 0.3
	if cfg.SecondPassTemperature != nil {
		secondTemp = *cfg.SecondPassTemperature
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Processor{
		extractor:  cfg.Extractor,
		firstTemp:  cfg.FirstPassTemperature,
		secondTemp: secondTemp,
		logger:     cfg.Logger,
	}, nil
}

// Process runs dual extraction plus adjudication and returns the final
// record. The two extraction passes read the same input and share no state,
// so they run concurrently; adjudication starts only after both complete.
// Sub-call errors propagate unmodified: retry policy belongs to the caller.
func (p *Processor) Process(ctx context.Context, documentText string) (*sof.Record, error) {
	p.logger.Debug("processing document", "chars", len(documentText))

	var candidateA, candidateB *sof.Record

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, err := p.extractor.Extract(gctx, documentText, p.firstTemp)
		candidateA = rec
		return err
	})
	g.Go(func() error {
		rec, err := p.extractor.Extract(gctx, documentText, p.secondTemp)
		candidateB = rec
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return p.extractor.Adjudicate(ctx, documentText, candidateA, candidateB)
}
