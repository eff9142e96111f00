package model

import (
	"fmt"
	"strings"
)

// HospitalRecord is one input row: a hospital identified by
// (name, city, state, year). Notes optionally carries caller-provided
// evidence text; when present it is used instead of web search.
type HospitalRecord struct {
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
	Year  int    `json:"year"`
	Notes string `json:"notes,omitempty"` // Optional free-text evidence
}

// Key returns the identity tuple as a single string.
func (r HospitalRecord) Key() string {
	return fmt.Sprintf("%s|%s|%s|%d",
		strings.TrimSpace(r.Name),
		strings.TrimSpace(r.City),
		strings.TrimSpace(r.State),
		r.Year)
}

// HasNotes reports whether the record carries provided evidence text.
func (r HospitalRecord) HasNotes() bool {
	return strings.TrimSpace(r.Notes) != ""
}
