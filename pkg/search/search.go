// Package search defines the web-search abstraction used to gather ownership
// evidence for candidate domains, plus helpers for walking paginated results.
package search

import "context"

// Sitelink is a secondary link attached to an organic result.
type Sitelink struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// OrganicResult is a single organic search hit.
type OrganicResult struct {
	Title     string     `json:"title"`
	Link      string     `json:"link"`
	Snippet   string     `json:"snippet"`
	Sitelinks []Sitelink `json:"sitelinks,omitempty"`
}

// Page is one page of search results. Credits is the number of provider
// credits the request consumed.
type Page struct {
	Organic []OrganicResult
	Credits int
}

// Client is implemented by search providers.
type Client interface {
	// Search fetches a single page of organic results for the query. num is
	// the requested page size and page is 1-based.
	Search(ctx context.Context, query string, num, page int) (Page, error)
}

// Evidence is the flattened outcome of a multi-page search.
type Evidence struct {
	// Links are all organic links, including sitelinks, in result order.
	Links []string
	// Credits is the total number of provider credits consumed.
	Credits int
}

// Empty reports whether the search produced no links at all.
func (e Evidence) Empty() bool {
	return len(e.Links) == 0
}

// Collect walks up to maxPages pages of results for the query, stopping early
// when a page comes back with no organic hits. Credits are summed across all
// pages, including a trailing empty one. A page-level error aborts the walk
// but still reports the credits consumed so far.
func Collect(ctx context.Context, client Client, query string, num, maxPages int) (Evidence, error) {
	var ev Evidence

	if maxPages <= 0 {
		maxPages = 1
	}

	for page := 1; page <= maxPages; page++ {
		res, err := client.Search(ctx, query, num, page)
		ev.Credits += res.Credits
		if err != nil {
			return ev, err
		}
		if len(res.Organic) == 0 {
			break
		}
		for _, organic := range res.Organic {
			ev.Links = append(ev.Links, organic.Link)
			for _, sl := range organic.Sitelinks {
				ev.Links = append(ev.Links, sl.Link)
			}
		}
	}

	return ev, nil
}
