// Package pipeline orchestrates verification: for each input record it
// gathers evidence, scores it, and accumulates one result per record.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/rkaragin/ldverify/internal/gather"
	"github.com/rkaragin/ldverify/internal/llm"
	"github.com/rkaragin/ldverify/internal/model"
	"github.com/rkaragin/ldverify/internal/ruleset"
	"github.com/rkaragin/ldverify/internal/score"
)

// ProgressFunc is invoked after each record. Returning false stops the
// batch between records; the partial results gathered so far are
// returned. Failures inside the callback are the caller's problem.
type ProgressFunc func(done, total int) bool

// Engine runs the sequential verification batch. Records are processed
// one at a time: the search backend is paced globally, so concurrency
// would add no throughput. Not safe for concurrent Run calls.
type Engine struct {
	gatherer  *gather.Gatherer
	scorer    *score.Scorer
	rules     *ruleset.Ruleset
	annotator *llm.Annotator // nil disables annotation
	maxRows   int
	warn      io.Writer
}

// New creates an engine. maxRows <= 0 disables the row ceiling.
func New(g *gather.Gatherer, s *score.Scorer, rs *ruleset.Ruleset, maxRows int) *Engine {
	return &Engine{
		gatherer: g,
		scorer:   s,
		rules:    rs,
		maxRows:  maxRows,
		warn:     io.Discard,
	}
}

// SetAnnotator enables the optional LLM audit annotation. Annotation
// output is appended to the evidence summary only; a failed annotation
// is a warning, never a record error.
func (e *Engine) SetAnnotator(a *llm.Annotator) { e.annotator = a }

// SetWarnWriter directs non-fatal warnings (annotation failures).
func (e *Engine) SetWarnWriter(w io.Writer) {
	if w != nil {
		e.warn = w
	}
}

// Run verifies all records in input order. Every input record yields
// exactly one result; one bad record never aborts the batch. The row
// ceiling is checked before any processing so an oversized input fails
// with no partial output.
func (e *Engine) Run(ctx context.Context, records []model.HospitalRecord, useWeb bool, progress ProgressFunc) ([]model.VerificationResult, error) {
	if e.maxRows > 0 && len(records) > e.maxRows {
		return nil, model.NewValidationError("input has %d records, ceiling is %d", len(records), e.maxRows)
	}

	results := make([]model.VerificationResult, 0, len(records))
	total := len(records)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, evidence := e.processRecord(ctx, rec, useWeb)

		if e.annotator != nil && result.Verdict != model.VerdictError {
			if note, err := e.annotator.Annotate(ctx, result, evidence); err != nil {
				fmt.Fprintf(e.warn, "warning: annotation failed for %s: %v\n", rec.Key(), err)
			} else if note != "" {
				result.EvidenceSummary = result.EvidenceSummary + " | note: " + note
			}
		}

		results = append(results, result)

		if progress != nil && !progress(i+1, total) {
			return results, nil
		}
	}

	return results, nil
}

// processRecord gathers and scores one record. Panics are recovered
// into verdict=error so the batch continues.
func (e *Engine) processRecord(ctx context.Context, rec model.HospitalRecord, useWeb bool) (result model.VerificationResult, evidence *model.Evidence) {
	defer func() {
		if r := recover(); r != nil {
			result = model.VerificationResult{
				Record:  rec,
				Verdict: model.VerdictError,
				Error:   fmt.Sprintf("record processing failed: %v", r),
			}
			evidence = nil
		}
	}()

	evidence = e.gatherer.Gather(ctx, rec, useWeb)
	card := e.scorer.Score(evidence, e.rules)

	return model.VerificationResult{
		Record:          rec,
		Verdict:         card.Verdict,
		Confidence:      card.Confidence,
		MatchedPositive: card.MatchedPositive,
		MatchedNegative: card.MatchedNegative,
		EvidenceSummary: card.EvidenceSummary,
	}, evidence
}
