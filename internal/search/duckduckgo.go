package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/rkaragin/ldverify/internal/httputil"
)

// duckAPIBase is the DuckDuckGo HTML search endpoint. Declared as a var
// so tests can substitute an httptest server.
var duckAPIBase = "https://html.duckduckgo.com/html/"

// DuckDuckGo queries the keyless DuckDuckGo HTML endpoint and scrapes
// result snippets from the returned page.
type DuckDuckGo struct {
	Client     *http.Client
	UserAgent  string
	MaxRetries int
	MaxBytes   int64
}

// NewDuckDuckGo creates a DuckDuckGo backend.
func NewDuckDuckGo(client *http.Client, userAgent string, maxRetries int, maxBytes int64) *DuckDuckGo {
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}
	return &DuckDuckGo{
		Client:     client,
		UserAgent:  userAgent,
		MaxRetries: maxRetries,
		MaxBytes:   maxBytes,
	}
}

// Name returns the backend identifier.
func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Search issues the query and returns up to maxResults snippet results.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query")
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	reqURL := duckAPIBase + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := httputil.DoWithRetry(ctx, d.Client, req, d.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	results, err := parseResults(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// parseResults extracts result links and snippets from the DuckDuckGo
// HTML page. Links carry class "result__a", snippets "result__snippet".
func parseResults(htmlContent string) ([]Result, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	var results []Result
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a") && n.Data == "a":
				results = append(results, Result{
					Title: nodeText(n),
					URL:   resolveResultURL(attr(n, "href")),
				})
			case hasClass(n, "result__snippet"):
				if len(results) > 0 && results[len(results)-1].Snippet == "" {
					results[len(results)-1].Snippet = nodeText(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	// Drop hits with neither snippet nor URL
	var kept []Result
	for _, r := range results {
		if r.Snippet != "" || r.URL != "" {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// resolveResultURL unwraps DuckDuckGo redirect links of the form
// //duckduckgo.com/l/?uddg=<escaped target>.
func resolveResultURL(href string) string {
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if uddg := parsed.Query().Get("uddg"); uddg != "" {
		if target, err := url.QueryUnescape(uddg); err == nil {
			return target
		}
	}
	if parsed.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// nodeText collects the text content of a node subtree.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
