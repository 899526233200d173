package websearch

import "strings"

// NoResultsMessage is the summary returned when upstream found nothing.
const NoResultsMessage = "No good search result found"

// Summarize returns the first non-blank upstream answer verbatim. Without
// one it falls back to the first result's title and snippet, and finally to
// NoResultsMessage.
func Summarize(raw *RawResponse) string {
	if raw == nil {
		return NoResultsMessage
	}
	for _, answer := range raw.Answers {
		if strings.TrimSpace(answer) != "" {
			return answer
		}
	}
	if len(raw.Results) == 0 {
		return NoResultsMessage
	}

	first := raw.Results[0]
	title := strings.TrimSpace(first.Title)
	snippet := strings.TrimSpace(first.Content)
	switch {
	case title != "" && snippet != "":
		return title + ": " + snippet
	case title != "":
		return title
	case snippet != "":
		return snippet
	default:
		return NoResultsMessage
	}
}

// Project returns at most count entries in upstream order. The result is
// never nil.
func Project(raw *RawResponse, count int) []Entry {
	if raw == nil || count <= 0 {
		return []Entry{}
	}
	n := count
	if n > len(raw.Results) {
		n = len(raw.Results)
	}

	entries := make([]Entry, 0, n)
	for _, res := range raw.Results[:n] {
		engines := res.Engines
		if len(engines) == 0 && res.Engine != "" {
			engines = []string{res.Engine}
		}
		entries = append(entries, Entry{
			Title:    strings.TrimSpace(res.Title),
			Link:     strings.TrimSpace(res.URL),
			Snippet:  strings.TrimSpace(res.Content),
			Engines:  engines,
			Category: res.Category,
		})
	}
	return entries
}

// Shape builds the summary and entry list for raw.
func Shape(raw *RawResponse, count int) (*Shaped, error) {
	if count <= 0 {
		return nil, invalidArgument("count", "must be greater than 0")
	}
	shaped := &Shaped{
		Summary: Summarize(raw),
		Entries: Project(raw, count),
	}
	if raw != nil {
		shaped.Query = raw.Query
	}
	return shaped, nil
}
