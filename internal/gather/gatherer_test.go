package gather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rkaragin/ldverify/internal/cache"
	"github.com/rkaragin/ldverify/internal/model"
	"github.com/rkaragin/ldverify/internal/search"
)

// fakeSearcher returns canned results or a canned error.
type fakeSearcher struct {
	results []search.Result
	err     error
	calls   int
}

func (f *fakeSearcher) Name() string { return "fake" }

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > maxResults {
		return f.results[:maxResults], nil
	}
	return f.results, nil
}

func testSearchConfig() model.SearchConfig {
	cfg := model.DefaultConfig().Search
	cfg.RateDelay = 0
	cfg.MaxPages = 0
	return cfg
}

func record() model.HospitalRecord {
	return model.HospitalRecord{Name: "Example Hospital", City: "Springfield", State: "WA", Year: 2024}
}

func TestGather_ProvidedText(t *testing.T) {
	fs := &fakeSearcher{}
	g := New(fs, nil, nil, NewPacer(0), nil, testSearchConfig())

	rec := record()
	rec.Notes = "Offers labor and delivery services"

	ev := g.Gather(context.Background(), rec, true)

	if ev.Source != model.SourceProvidedText {
		t.Errorf("expected provided-text source, got %s", ev.Source)
	}
	if len(ev.Snippets) != 1 || !strings.Contains(ev.Snippets[0], "labor and delivery") {
		t.Errorf("unexpected snippets: %v", ev.Snippets)
	}
	if fs.calls != 0 {
		t.Errorf("provided-text path must not hit the network, got %d calls", fs.calls)
	}
}

func TestGather_WebSearchDisabled(t *testing.T) {
	fs := &fakeSearcher{}
	g := New(fs, nil, nil, NewPacer(0), nil, testSearchConfig())

	ev := g.Gather(context.Background(), record(), false)

	if ev.Source != model.SourceProvidedText {
		t.Errorf("expected provided-text source, got %s", ev.Source)
	}
	if !ev.IsEmpty() {
		t.Errorf("expected empty evidence, got %v", ev.Snippets)
	}
	if fs.calls != 0 {
		t.Errorf("expected no search calls, got %d", fs.calls)
	}
}

func TestGather_WebSearch(t *testing.T) {
	fs := &fakeSearcher{results: []search.Result{
		{URL: "https://example.org/a", Snippet: "Hospital offers labor and delivery"},
		{URL: "https://example.org/b", Snippet: "obstetric care unit"},
	}}
	g := New(fs, nil, nil, NewPacer(0), nil, testSearchConfig())

	ev := g.Gather(context.Background(), record(), true)

	if ev.Source != model.SourceWebSearch {
		t.Errorf("expected web-search source, got %s", ev.Source)
	}
	// One service query plus one closure-news query
	if ev.QueryCount != 2 {
		t.Errorf("expected 2 queries, got %d", ev.QueryCount)
	}
	if len(ev.Snippets) != 4 {
		t.Errorf("expected 4 snippets (2 per query), got %d", len(ev.Snippets))
	}
	if len(ev.FetchErrors) != 0 {
		t.Errorf("unexpected fetch errors: %v", ev.FetchErrors)
	}
}

func TestGather_RetryExhaustionNeverRaises(t *testing.T) {
	fs := &fakeSearcher{err: errors.New("backend down")}
	g := New(fs, nil, nil, NewPacer(0), nil, testSearchConfig())

	ev := g.Gather(context.Background(), record(), true)

	if !ev.IsEmpty() {
		t.Errorf("expected empty snippets, got %v", ev.Snippets)
	}
	if len(ev.FetchErrors) != 2 {
		t.Errorf("expected one fetch error per query, got %v", ev.FetchErrors)
	}
	if ev.Source != model.SourceWebSearch {
		t.Errorf("expected web-search source, got %s", ev.Source)
	}
}

func TestGather_Pacing(t *testing.T) {
	fs := &fakeSearcher{results: []search.Result{{Snippet: "s"}}}
	delay := 30 * time.Millisecond
	cfg := testSearchConfig()
	cfg.RateDelay = delay
	pacer := NewPacer(delay)
	g := New(fs, nil, nil, pacer, nil, cfg)

	// 2 records x 2 queries = 4 paced requests; elapsed >= 3 * delay.
	start := time.Now()
	g.Gather(context.Background(), record(), true)
	g.Gather(context.Background(), record(), true)
	elapsed := time.Since(start)

	if want := 3 * delay; elapsed < want {
		t.Errorf("pacing too fast: %v elapsed, want >= %v", elapsed, want)
	}
	if fs.calls != 4 {
		t.Errorf("expected 4 search calls, got %d", fs.calls)
	}
}

func TestGather_CacheHitSkipsSearch(t *testing.T) {
	fs := &fakeSearcher{results: []search.Result{{Snippet: "cached snippet"}}}
	store := cache.NewMemoryCache(time.Minute)
	g := New(fs, nil, nil, NewPacer(0), store, testSearchConfig())

	ev1 := g.Gather(context.Background(), record(), true)
	callsAfterFirst := fs.calls

	ev2 := g.Gather(context.Background(), record(), true)

	if fs.calls != callsAfterFirst {
		t.Errorf("second gather should be served from cache, calls went %d -> %d", callsAfterFirst, fs.calls)
	}
	if ev1.QueryCount == 0 {
		t.Error("first gather should count issued queries")
	}
	if ev2.QueryCount != 0 {
		t.Errorf("cache hits must not count as queries, got %d", ev2.QueryCount)
	}
	if len(ev2.Snippets) != len(ev1.Snippets) {
		t.Errorf("cached snippets differ: %d vs %d", len(ev2.Snippets), len(ev1.Snippets))
	}
}

func TestGather_PageFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fmt.Fprint(w, "User-agent: *\nAllow: /\n")
			return
		}
		fmt.Fprint(w, `<html><head><script>ignored()</script></head><body><p>Birthing center on site.</p></body></html>`)
	}))
	defer srv.Close()

	fs := &fakeSearcher{results: []search.Result{{URL: srv.URL + "/page", Snippet: "snippet"}}}
	cfg := testSearchConfig()
	cfg.MaxPages = 1

	pages := NewPageFetcher(srv.Client(), "test-agent", 0, 1)
	g := New(fs, pages, nil, NewPacer(0), nil, cfg)

	ev := g.Gather(context.Background(), record(), true)

	var pageText string
	for _, s := range ev.Snippets {
		if strings.Contains(s, "Birthing center") {
			pageText = s
		}
	}
	if pageText == "" {
		t.Errorf("expected page text snippet, got %v", ev.Snippets)
	}
	if strings.Contains(pageText, "ignored()") {
		t.Error("script content leaked into visible text")
	}
}

func TestGather_TotalEvidenceCap(t *testing.T) {
	long := strings.Repeat("x", 600)
	fs := &fakeSearcher{results: []search.Result{{Snippet: long}, {Snippet: long}}}
	cfg := testSearchConfig()
	cfg.MaxEvidence = 1000
	g := New(fs, nil, nil, NewPacer(0), nil, cfg)

	ev := g.Gather(context.Background(), record(), true)

	total := 0
	for _, s := range ev.Snippets {
		total += len(s)
	}
	if total > cfg.MaxEvidence {
		t.Errorf("evidence total %d exceeds cap %d", total, cfg.MaxEvidence)
	}
}

func TestBuildQueries(t *testing.T) {
	queries := BuildQueries(record())
	if len(queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(queries))
	}
	if !strings.Contains(queries[0], `"Example Hospital"`) || !strings.Contains(queries[0], "labor delivery") {
		t.Errorf("unexpected service query: %q", queries[0])
	}
	if !strings.Contains(queries[1], "closure news") {
		t.Errorf("unexpected closure query: %q", queries[1])
	}
}

func TestVisibleText_Cap(t *testing.T) {
	html := "<html><body>" + strings.Repeat("<p>word </p>", 500) + "</body></html>"
	text := VisibleText(html, 100)
	if len(text) > 100 {
		t.Errorf("expected text capped at 100 chars, got %d", len(text))
	}
}
