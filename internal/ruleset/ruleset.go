// Package ruleset holds the curated keyword lists that drive
// verification and the matching rules applied to evidence text.
package ruleset

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rkaragin/ldverify/internal/model"
)

// MatchMode selects how keywords are located in evidence text
type MatchMode string

const (
	MatchSubstring    MatchMode = "substring"
	MatchWordBoundary MatchMode = "word-boundary"
)

// Ruleset is the immutable keyword configuration. Load or New validate
// and compile it once; after that it is shared read-only across all
// evaluations.
type Ruleset struct {
	Positive      []string  `yaml:"positive_keywords"`
	Negative      []string  `yaml:"negative_keywords"`
	MatchMode     MatchMode `yaml:"match_mode"`
	CaseSensitive bool      `yaml:"case_sensitive"`

	positive []matcher
	negative []matcher
}

// matcher is one compiled keyword
type matcher struct {
	keyword string
	needle  string         // Substring mode: pre-folded needle
	re      *regexp.Regexp // Word-boundary mode
}

// New builds and validates a ruleset. An empty positive list or a blank
// entry in either list is a ConfigError.
func New(positive, negative []string, mode MatchMode, caseSensitive bool) (*Ruleset, error) {
	if mode == "" {
		mode = MatchSubstring
	}
	if mode != MatchSubstring && mode != MatchWordBoundary {
		return nil, model.NewConfigError("unknown match_mode %q", mode)
	}
	if len(positive) == 0 {
		return nil, model.NewConfigError("positive_keywords must not be empty")
	}

	rs := &Ruleset{
		Positive:      positive,
		Negative:      negative,
		MatchMode:     mode,
		CaseSensitive: caseSensitive,
	}

	var err error
	if rs.positive, err = compile(positive, "positive_keywords", mode, caseSensitive); err != nil {
		return nil, err
	}
	if rs.negative, err = compile(negative, "negative_keywords", mode, caseSensitive); err != nil {
		return nil, err
	}

	return rs, nil
}

// Load reads a ruleset from a YAML file.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewConfigError("read ruleset %s: %v", path, err)
	}

	var raw Ruleset
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, model.NewConfigError("parse ruleset %s: %v", path, err)
	}

	return New(raw.Positive, raw.Negative, raw.MatchMode, raw.CaseSensitive)
}

// Default returns the built-in maternity ruleset.
func Default() *Ruleset {
	rs, err := New(
		[]string{
			"labor and delivery",
			"labor & delivery",
			"L&D",
			"obstetric",
			"obstetrics",
			"maternity ward",
			"birthing center",
			"birth center",
			"childbirth services",
		},
		[]string{
			"closed",
			"discontinued",
			"no longer offers",
			"suspended",
			"shut down",
			"ended maternity",
		},
		MatchSubstring,
		false,
	)
	if err != nil {
		// The built-in lists are static; a failure here is a programming error.
		panic(err)
	}
	return rs
}

// Matches applies the ruleset to text and returns the positive and
// negative keywords found, in ruleset order. Pure lookup.
func (rs *Ruleset) Matches(text string) (positive, negative []string) {
	folded := text
	if !rs.CaseSensitive && rs.MatchMode == MatchSubstring {
		folded = strings.ToLower(text)
	}

	for _, m := range rs.positive {
		if m.match(text, folded) {
			positive = append(positive, m.keyword)
		}
	}
	for _, m := range rs.negative {
		if m.match(text, folded) {
			negative = append(negative, m.keyword)
		}
	}
	return positive, negative
}

func (m matcher) match(text, folded string) bool {
	if m.re != nil {
		return m.re.MatchString(text)
	}
	return strings.Contains(folded, m.needle)
}

func compile(keywords []string, field string, mode MatchMode, caseSensitive bool) ([]matcher, error) {
	matchers := make([]matcher, 0, len(keywords))
	for i, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			return nil, model.NewConfigError("%s[%d] is blank", field, i)
		}

		m := matcher{keyword: kw}
		switch mode {
		case MatchWordBoundary:
			m.re = boundaryRegexp(kw, caseSensitive)
		default:
			m.needle = kw
			if !caseSensitive {
				m.needle = strings.ToLower(kw)
			}
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

// boundaryRegexp builds a whole-word pattern for the keyword. The \b
// assertion is only valid against a word character, so keywords with
// non-word edges (e.g. "L&D") get an anchor only on word-char edges.
func boundaryRegexp(kw string, caseSensitive bool) *regexp.Regexp {
	pattern := regexp.QuoteMeta(kw)
	runes := []rune(kw)
	if isWordRune(runes[0]) {
		pattern = `\b` + pattern
	}
	if isWordRune(runes[len(runes)-1]) {
		pattern = pattern + `\b`
	}
	if !caseSensitive {
		pattern = `(?i)` + pattern
	}
	return regexp.MustCompile(pattern)
}

func isWordRune(r rune) bool {
	return r == '_' ||
		('a' <= r && r <= 'z') ||
		('A' <= r && r <= 'Z') ||
		('0' <= r && r <= '9')
}

// Marshal renders the ruleset as YAML, for config init and debugging.
func (rs *Ruleset) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(rs)
	if err != nil {
		return nil, fmt.Errorf("marshal ruleset: %w", err)
	}
	return data, nil
}
