package gather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/rkaragin/ldverify/internal/httputil"
)

// PageFetcher retrieves a result page and reduces it to visible text.
type PageFetcher struct {
	client     *http.Client
	userAgent  string
	maxBytes   int64
	maxRetries int
}

// NewPageFetcher creates a page fetcher.
func NewPageFetcher(client *http.Client, userAgent string, maxBytes int64, maxRetries int) *PageFetcher {
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}
	return &PageFetcher{
		client:     client,
		userAgent:  userAgent,
		maxBytes:   maxBytes,
		maxRetries: maxRetries,
	}
}

// FetchText fetches rawURL and returns the page's visible text, capped
// at maxChars characters.
func (f *PageFetcher) FetchText(ctx context.Context, rawURL string, maxChars int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := httputil.DoWithRetry(ctx, f.client, req, f.maxRetries)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return VisibleText(string(body), maxChars), nil
}

// VisibleText extracts the rendered text of an HTML document, skipping
// script and style subtrees and collapsing whitespace.
func VisibleText(htmlContent string, maxChars int) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := strings.Join(strings.Fields(sb.String()), " ")
	if maxChars > 0 && len(text) > maxChars {
		text = text[:maxChars]
	}
	return text
}
