// Package burn fills placed fields into a PDF and fingerprints the
// document before and after.
//
// A Pipeline run decodes the input, hashes it, applies every field in
// order, encodes the result and hashes the output. Decode and encode
// failures are fatal; a field that cannot be drawn becomes a Diagnostic
// and the run continues.
package burn

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/georgepadayatti/pdfburn/config"
	"github.com/georgepadayatti/pdfburn/field"
	"github.com/georgepadayatti/pdfburn/integrity"
	"github.com/georgepadayatti/pdfburn/pdf/fonts"
	"github.com/georgepadayatti/pdfburn/stamp"
)

// Result is the output of a successful run.
type Result struct {
	Output      []byte
	Original    integrity.Fingerprint
	Final       integrity.Fingerprint
	Diagnostics []Diagnostic
	Drawn       int
	Skipped     int
}

// Fields returns the number of placements the run was given.
func (r *Result) Fields() int {
	return r.Drawn + r.Skipped + len(r.Diagnostics)
}

// Pipeline runs decode, hash, apply, encode and hash in sequence. It
// holds no per-run state, so one Pipeline may serve concurrent runs.
type Pipeline struct {
	options stamp.Options
	hasher  *integrity.Hasher
	mutator *Mutator
	logger  *slog.Logger
}

// NewPipeline returns a pipeline with the given parts. A nil logger
// discards output.
func NewPipeline(options stamp.Options, hasher *integrity.Hasher, renderer *field.Renderer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		options: options,
		hasher:  hasher,
		mutator: NewMutator(renderer, logger),
		logger:  logger,
	}
}

// NewPipelineFromConfig builds a pipeline from a validated configuration.
func NewPipelineFromConfig(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	alg, err := integrity.ParseAlgorithm(cfg.Hash.Algorithm)
	if err != nil {
		return nil, err
	}
	hasher, err := integrity.NewHasher(alg)
	if err != nil {
		return nil, err
	}
	regular, err := fonts.NewStandardFont(fonts.StandardFont(cfg.Render.RegularFont))
	if err != nil {
		return nil, fmt.Errorf("regular font: %w", err)
	}
	bold, err := fonts.NewStandardFont(fonts.StandardFont(cfg.Render.BoldFont))
	if err != nil {
		return nil, fmt.Errorf("bold font: %w", err)
	}
	renderer := &field.Renderer{
		Regular:    regular,
		Bold:       bold,
		LineHeight: cfg.Render.LineHeight,
		DateLayout: cfg.Render.DateLayout,
	}
	options := stamp.Options{
		Compress:       cfg.Render.Compress(),
		MaxImagePixels: cfg.Render.ImagePixelLimit(),
	}
	return NewPipeline(options, hasher, renderer, logger), nil
}

// Hasher returns the pipeline's hasher.
func (p *Pipeline) Hasher() *integrity.Hasher {
	return p.hasher
}

// Run fills placements into data. Cancellation is observed before
// decoding and before encoding; a started field pass always completes.
func (p *Pipeline) Run(ctx context.Context, data []byte, placements []field.Placement) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := stamp.Decode(data, p.options)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	original := p.hasher.Sum(data)
	p.logger.Debug("document decoded", "pages", doc.PageCount(), "bytes", len(data), "hash", original.String())

	outcome := p.mutator.Apply(doc, placements)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	output, err := doc.Encode()
	if err != nil {
		return nil, &EncodeError{Err: err}
	}
	final := p.hasher.Sum(output)

	p.logger.Info("document burned",
		"fields", len(placements),
		"drawn", outcome.Drawn,
		"skipped", outcome.Skipped,
		"failed", len(outcome.Errors),
		"original_hash", original.Hex(),
		"final_hash", final.Hex())

	return &Result{
		Output:      output,
		Original:    original,
		Final:       final,
		Diagnostics: outcome.Diagnostics(),
		Drawn:       outcome.Drawn,
		Skipped:     outcome.Skipped,
	}, nil
}
