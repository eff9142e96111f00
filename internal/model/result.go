package model

// Verdict is the categorical outcome of verifying one record
type Verdict string

const (
	VerdictConfirmed  Verdict = "confirmed"   // Confidence >= confirmed threshold
	VerdictLikely     Verdict = "likely"      // Confidence >= likely threshold
	VerdictUnlikely   Verdict = "unlikely"    // Below likely threshold
	VerdictNoEvidence Verdict = "no-evidence" // No snippet text gathered
	VerdictError      Verdict = "error"       // Record processing failed
)

// VerificationResult is one output row. Every input record produces
// exactly one result, in input order; never mutated after creation.
type VerificationResult struct {
	Record          HospitalRecord `json:"record"`
	Verdict         Verdict        `json:"verdict"`
	Confidence      float64        `json:"confidence"` // In [0,1]
	MatchedPositive []string       `json:"matched_positive,omitempty"`
	MatchedNegative []string       `json:"matched_negative,omitempty"`
	EvidenceSummary string         `json:"evidence_summary,omitempty"`
	Error           string         `json:"error,omitempty"`
}
