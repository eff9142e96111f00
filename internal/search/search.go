// Package search abstracts the web search backend. The engine depends
// on the Searcher capability, not on a concrete provider.
package search

import "context"

// Result is one search hit: the snippet is the evidence text, the URL
// lets the gatherer optionally fetch the page itself.
type Result struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher issues one query and returns up to maxResults hits.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}
