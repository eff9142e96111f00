// Package gather produces the bounded evidence set for one hospital
// record, either from caller-provided text or from rate-limited web
// search queries.
package gather

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rkaragin/ldverify/internal/cache"
	"github.com/rkaragin/ldverify/internal/model"
	"github.com/rkaragin/ldverify/internal/search"
	"github.com/rkaragin/ldverify/internal/util"
)

// Gatherer collects evidence snippets for records. All network calls
// go through one shared Pacer; transient failures are retried inside
// the search and page clients, and exhausted failures are recorded in
// Evidence.FetchErrors, never returned to the caller.
type Gatherer struct {
	searcher search.Searcher
	pages    *PageFetcher        // nil disables result-page fetches
	robots   *util.RobotsChecker // nil disables the robots.txt gate
	pacer    *Pacer
	store    cache.Cache // nil disables caching
	cfg      model.SearchConfig
}

// New creates a gatherer. pages, robots and store may be nil.
func New(searcher search.Searcher, pages *PageFetcher, robots *util.RobotsChecker, pacer *Pacer, store cache.Cache, cfg model.SearchConfig) *Gatherer {
	return &Gatherer{
		searcher: searcher,
		pages:    pages,
		robots:   robots,
		pacer:    pacer,
		store:    store,
		cfg:      cfg,
	}
}

// BuildQueries constructs the bounded query sequence for a record: one
// service query and one closure-news query, so evidence of a unit
// being shut down is found alongside evidence of it operating.
func BuildQueries(record model.HospitalRecord) []string {
	name := strings.TrimSpace(record.Name)
	city := strings.TrimSpace(record.City)
	state := strings.TrimSpace(record.State)

	return []string{
		fmt.Sprintf("%q %s %s hospital maternity labor delivery", name, city, state),
		fmt.Sprintf("%q %s %s hospital maternity closure news", name, city, state),
	}
}

// Gather produces the Evidence for one record. When the record carries
// provided text, or useWeb is false, no network activity occurs.
func (g *Gatherer) Gather(ctx context.Context, record model.HospitalRecord, useWeb bool) *model.Evidence {
	if record.HasNotes() || !useWeb {
		ev := &model.Evidence{Source: model.SourceProvidedText}
		if record.HasNotes() {
			ev.Snippets = []string{capText(record.Notes, g.cfg.MaxSnippet)}
		}
		return ev
	}

	ev := &model.Evidence{Source: model.SourceWebSearch}

	var pageURLs []string
	for _, query := range BuildQueries(record) {
		results, fromCache, err := g.search(ctx, query)
		if !fromCache {
			ev.QueryCount++
		}
		if err != nil {
			ev.FetchErrors = append(ev.FetchErrors, fmt.Sprintf("search %q: %v", query, err))
			if ctx.Err() != nil {
				return ev
			}
			continue
		}

		for _, r := range results {
			if r.Snippet != "" {
				ev.Snippets = append(ev.Snippets, capText(r.Snippet, g.cfg.MaxSnippet))
			}
			if r.URL != "" {
				pageURLs = append(pageURLs, r.URL)
			}
		}
	}

	g.fetchPages(ctx, pageURLs, ev)
	capEvidence(ev, g.cfg.MaxEvidence)
	return ev
}

// search returns results for one query, consulting the cache first.
// Cache hits skip pacing entirely.
func (g *Gatherer) search(ctx context.Context, query string) (results []search.Result, fromCache bool, err error) {
	key := cache.Key(query)
	if g.store != nil {
		if data, found := g.store.Get(key); found {
			if json.Unmarshal(data, &results) == nil {
				return results, true, nil
			}
		}
	}

	if err := g.pacer.Wait(ctx); err != nil {
		return nil, false, err
	}

	results, err = g.searcher.Search(ctx, query, g.cfg.MaxResults)
	if err != nil {
		return nil, false, err
	}

	if g.store != nil {
		if data, mErr := json.Marshal(results); mErr == nil {
			_ = g.store.Set(key, data, 0)
		}
	}
	return results, false, nil
}

// fetchPages pulls the text of up to MaxPages distinct result pages.
func (g *Gatherer) fetchPages(ctx context.Context, urls []string, ev *model.Evidence) {
	if g.pages == nil || g.cfg.MaxPages <= 0 {
		return
	}

	seen := make(map[string]bool)
	fetched := 0
	for _, rawURL := range urls {
		if fetched >= g.cfg.MaxPages {
			return
		}
		if seen[rawURL] {
			continue
		}
		seen[rawURL] = true

		if g.robots != nil && !g.robots.CanFetch(ctx, rawURL) {
			continue
		}

		if err := g.pacer.Wait(ctx); err != nil {
			ev.FetchErrors = append(ev.FetchErrors, fmt.Sprintf("page %s: %v", rawURL, err))
			return
		}

		text, err := g.pages.FetchText(ctx, rawURL, g.cfg.MaxSnippet)
		if err != nil {
			ev.FetchErrors = append(ev.FetchErrors, fmt.Sprintf("page %s: %v", rawURL, err))
			if ctx.Err() != nil {
				return
			}
			continue
		}

		fetched++
		if text != "" {
			ev.Snippets = append(ev.Snippets, text)
		}
	}
}

// capText truncates s to max characters.
func capText(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}

// capEvidence bounds the total snippet text fed to the scorer.
func capEvidence(ev *model.Evidence, maxTotal int) {
	if maxTotal <= 0 {
		return
	}
	total := 0
	for i, s := range ev.Snippets {
		if total+len(s) > maxTotal {
			remaining := maxTotal - total
			if remaining > 0 {
				ev.Snippets[i] = s[:remaining]
				ev.Snippets = ev.Snippets[:i+1]
			} else {
				ev.Snippets = ev.Snippets[:i]
			}
			return
		}
		total += len(s)
	}
}
