package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hession/searxmate/internal/websearch"
)

const (
	defaultToolTimeout  = 30 * time.Second
	defaultHTMLMaxBytes = 200000
)

// searxngTool carries what every SearXNG tool needs
type searxngTool struct {
	searcher    websearch.Searcher
	description string
	timeout     time.Duration
}

func (t searxngTool) withTimeout() (context.Context, context.CancelFunc) {
	timeout := t.timeout
	if timeout <= 0 {
		timeout = defaultToolTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

func queryParameter() ParameterDef {
	return ParameterDef{
		Name:        "query",
		Type:        "string",
		Description: "Search query",
		Required:    true,
	}
}

func requireQuery(args map[string]any) (string, error) {
	query, ok := stringArg(args, "query")
	if !ok || strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("missing required parameter: query")
	}
	return query, nil
}

// RunTool returns a single answer or summary for a query.
type RunTool struct {
	searxngTool
}

// NewRunTool creates the searxng_run tool
func NewRunTool(s websearch.Searcher, description string, timeout time.Duration) *RunTool {
	return &RunTool{searxngTool{searcher: s, description: description, timeout: timeout}}
}

func (t *RunTool) Name() string {
	return "searxng_run"
}

func (t *RunTool) Description() string {
	return t.description
}

func (t *RunTool) Parameters() []ParameterDef {
	return []ParameterDef{queryParameter()}
}

func (t *RunTool) Execute(args map[string]any) (string, error) {
	query, err := requireQuery(args)
	if err != nil {
		return "", err
	}

	ctx, cancel := t.withTimeout()
	defer cancel()

	return t.searcher.Run(ctx, query)
}

// ResultsTool returns a bounded list of results as JSON.
type ResultsTool struct {
	searxngTool
	defaultCount int
}

// NewResultsTool creates the searxng_results tool
func NewResultsTool(s websearch.Searcher, description string, timeout time.Duration, defaultCount int) *ResultsTool {
	if defaultCount <= 0 {
		defaultCount = websearch.DefaultCount
	}
	return &ResultsTool{
		searxngTool:  searxngTool{searcher: s, description: description, timeout: timeout},
		defaultCount: defaultCount,
	}
}

func (t *ResultsTool) Name() string {
	return "searxng_results"
}

func (t *ResultsTool) Description() string {
	return t.description
}

func (t *ResultsTool) Parameters() []ParameterDef {
	return []ParameterDef{
		queryParameter(),
		{
			Name:        "num_results",
			Type:        "number",
			Description: fmt.Sprintf("Maximum number of results to return (default %d)", t.defaultCount),
			Required:    false,
		},
	}
}

func (t *ResultsTool) Execute(args map[string]any) (string, error) {
	query, err := requireQuery(args)
	if err != nil {
		return "", err
	}

	count := t.defaultCount
	if val, ok := intArg(args, "num_results"); ok {
		// Zero and negative values reach the client so it can reject them
		count = val
	}

	ctx, cancel := t.withTimeout()
	defer cancel()

	entries, err := t.searcher.Results(ctx, query, count)
	if err != nil {
		return "", err
	}

	payload, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode response: %w", err)
	}

	return string(payload), nil
}

// HTMLTool returns the HTML result page, optionally reduced to its text.
type HTMLTool struct {
	searxngTool
	defaultMaxSize int
}

// NewHTMLTool creates the searxng_html tool
func NewHTMLTool(s websearch.Searcher, description string, timeout time.Duration) *HTMLTool {
	return &HTMLTool{
		searxngTool:    searxngTool{searcher: s, description: description, timeout: timeout},
		defaultMaxSize: defaultHTMLMaxBytes,
	}
}

func (t *HTMLTool) Name() string {
	return "searxng_html"
}

func (t *HTMLTool) Description() string {
	return t.description
}

func (t *HTMLTool) Parameters() []ParameterDef {
	return []ParameterDef{
		queryParameter(),
		{
			Name:        "max_bytes",
			Type:        "number",
			Description: "Maximum bytes of content to return",
			Required:    false,
		},
		{
			Name:        "strip_html",
			Type:        "boolean",
			Description: "Whether to strip HTML tags and return only the page text",
			Required:    false,
		},
	}
}

func (t *HTMLTool) Execute(args map[string]any) (string, error) {
	query, err := requireQuery(args)
	if err != nil {
		return "", err
	}

	maxBytes := t.defaultMaxSize
	if val, ok := intArg(args, "max_bytes"); ok && val > 0 {
		maxBytes = val
	}

	stripHTML := false
	if val, ok := args["strip_html"].(bool); ok {
		stripHTML = val
	}

	ctx, cancel := t.withTimeout()
	defer cancel()

	page, err := t.searcher.SearchHTML(ctx, websearch.Query{Text: query, Format: websearch.FormatHTML})
	if err != nil {
		return "", err
	}

	content := page
	if stripHTML {
		content, err = pageText(page)
		if err != nil {
			return "", err
		}
	}
	if len(content) > maxBytes {
		content = truncateUTF8(content, maxBytes)
	}

	return content, nil
}

// pageText drops scripts and styles and collapses the remaining text
func pageText(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

func truncateUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	// Back off to a rune boundary
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
