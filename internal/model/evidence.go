package model

// EvidenceSource identifies where the snippets came from
type EvidenceSource string

const (
	SourceProvidedText EvidenceSource = "provided-text" // Free-text column on the input row
	SourceWebSearch    EvidenceSource = "web-search"    // Live search result snippets
)

// Evidence is the bounded set of text snippets gathered for one record.
// Created fresh per record and discarded after scoring.
type Evidence struct {
	Snippets    []string       `json:"snippets"`
	Source      EvidenceSource `json:"source"`
	QueryCount  int            `json:"query_count"`            // Search queries issued for this record
	FetchErrors []string       `json:"fetch_errors,omitempty"` // Transient failures, recorded not raised
}

// IsEmpty reports whether no usable snippet text was gathered.
func (e *Evidence) IsEmpty() bool {
	for _, s := range e.Snippets {
		if s != "" {
			return false
		}
	}
	return true
}
