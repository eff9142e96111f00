// Package score turns gathered evidence into a confidence-scored
// verdict. Scoring is deterministic and side-effect free: the same
// evidence and ruleset always yield the same result.
package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rkaragin/ldverify/internal/model"
	"github.com/rkaragin/ldverify/internal/ruleset"
)

// Scorecard is the scoring output for one record; the engine merges it
// with the input record into the final VerificationResult.
type Scorecard struct {
	Verdict         model.Verdict
	Confidence      float64
	MatchedPositive []string
	MatchedNegative []string
	EvidenceSummary string
}

// Scorer computes verdicts from keyword matches. The thresholds are
// configurable defaults, not requirements.
type Scorer struct {
	LikelyThreshold    float64
	ConfirmedThreshold float64
}

// NewScorer creates a scorer with the given thresholds.
func NewScorer(cfg model.ScoreConfig) *Scorer {
	return &Scorer{
		LikelyThreshold:    cfg.LikelyThreshold,
		ConfirmedThreshold: cfg.ConfirmedThreshold,
	}
}

// Score evaluates one evidence set against the ruleset.
//
// Base confidence is the fraction of positive keywords matched,
// clamped to [0,1]. Any matched negative keywords reduce it by the
// fraction of the negative list matched, floored at 0. Empty evidence
// is always no-evidence with confidence 0.
func (s *Scorer) Score(evidence *model.Evidence, rs *ruleset.Ruleset) Scorecard {
	if evidence == nil || evidence.IsEmpty() {
		return Scorecard{
			Verdict:         model.VerdictNoEvidence,
			Confidence:      0,
			EvidenceSummary: summarize(nil, nil, evidence),
		}
	}

	text := strings.Join(evidence.Snippets, " ")
	matchedPos, matchedNeg := rs.Matches(text)
	sort.Strings(matchedPos)
	sort.Strings(matchedNeg)

	confidence := float64(len(matchedPos)) / float64(len(rs.Positive))
	if confidence > 1 {
		confidence = 1
	}

	if len(matchedNeg) > 0 && len(rs.Negative) > 0 {
		confidence *= 1 - float64(len(matchedNeg))/float64(len(rs.Negative))
		if confidence < 0 {
			confidence = 0
		}
	}

	verdict := model.VerdictUnlikely
	switch {
	case confidence >= s.ConfirmedThreshold:
		verdict = model.VerdictConfirmed
	case confidence >= s.LikelyThreshold:
		verdict = model.VerdictLikely
	}

	return Scorecard{
		Verdict:         verdict,
		Confidence:      confidence,
		MatchedPositive: matchedPos,
		MatchedNegative: matchedNeg,
		EvidenceSummary: summarize(matchedPos, matchedNeg, evidence),
	}
}

// summarize builds the human-readable audit string for one result.
func summarize(pos, neg []string, evidence *model.Evidence) string {
	var parts []string

	if len(pos) > 0 {
		parts = append(parts, "matched positive: "+strings.Join(pos, ", "))
	}
	if len(neg) > 0 {
		parts = append(parts, "matched negative: "+strings.Join(neg, ", "))
	}

	snippets := 0
	if evidence != nil {
		snippets = len(evidence.Snippets)
	}
	parts = append(parts, fmt.Sprintf("snippets: %d", snippets))

	if evidence != nil {
		if evidence.QueryCount > 0 {
			parts = append(parts, fmt.Sprintf("queries: %d", evidence.QueryCount))
		}
		if len(evidence.FetchErrors) > 0 {
			parts = append(parts, fmt.Sprintf("fetch errors: %d", len(evidence.FetchErrors)))
		}
	}

	return strings.Join(parts, " | ")
}
