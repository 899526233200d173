package websearch

import (
	"context"
	"strings"
)

// Format selects the upstream output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// Query is a single search request. It is built per call and never stored.
type Query struct {
	Text       string
	Count      int
	Format     Format
	Language   string // e.g. "en", "de-CH", "auto"
	Page       int    // 1-based, 0 means first page
	Categories string // comma separated, e.g. "general,news"
	SafeSearch *int   // 0, 1 or 2; nil leaves the instance default
	TimeRange  string // "day" | "month" | "year"
}

// NewQuery returns a JSON query for text with the default result count.
func NewQuery(text string) Query {
	return Query{
		Text:   text,
		Count:  DefaultCount,
		Format: FormatJSON,
	}
}

// Validate checks the query before any I/O is attempted.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return invalidArgument("query", "cannot be empty")
	}
	if q.Count <= 0 {
		return invalidArgument("count", "must be greater than 0")
	}
	switch q.Format {
	case "", FormatJSON, FormatHTML:
	default:
		return invalidArgument("format", "must be json or html, got "+string(q.Format))
	}
	if q.Page < 0 {
		return invalidArgument("page", "cannot be negative")
	}
	if q.SafeSearch != nil && (*q.SafeSearch < 0 || *q.SafeSearch > 2) {
		return invalidArgument("safesearch", "must be 0, 1 or 2")
	}
	switch q.TimeRange {
	case "", "day", "month", "year":
	default:
		return invalidArgument("time_range", "must be day, month or year")
	}
	return nil
}

// Entry is a single shaped search result.
type Entry struct {
	Title    string   `json:"title"`
	Link     string   `json:"link"`
	Snippet  string   `json:"snippet"`
	Engines  []string `json:"engines,omitempty"`
	Category string   `json:"category,omitempty"`
}

// Shaped is the summary plus bounded entry list produced for one query.
type Shaped struct {
	Query   string  `json:"query"`
	Summary string  `json:"summary"`
	Entries []Entry `json:"results"`
}

// Searcher is the client surface consumed by tools and the CLI.
type Searcher interface {
	Run(ctx context.Context, text string) (string, error)
	Results(ctx context.Context, text string, count int) ([]Entry, error)
	Search(ctx context.Context, q Query) (*Shaped, error)
	SearchHTML(ctx context.Context, q Query) (string, error)
}
