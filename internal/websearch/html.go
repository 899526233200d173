package websearch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML extracts answers and results from a SearXNG HTML result page.
// Result blocks carry the class "result" with the link in an h3 and the
// snippet in a paragraph.
func ParseHTML(body string) (*RawResponse, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	raw := &RawResponse{
		Query:   strings.TrimSpace(doc.Find("input#q").AttrOr("value", "")),
		Results: []RawResult{},
	}

	doc.Find("#answers .answer").Each(func(_ int, s *goquery.Selection) {
		if text := collapseSpace(s.Text()); text != "" {
			raw.Answers = append(raw.Answers, text)
		}
	})

	doc.Find(".result").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("h3 a").First()
		title := collapseSpace(link.Text())
		href := strings.TrimSpace(link.AttrOr("href", ""))
		if title == "" && href == "" {
			return
		}

		snippet := s.Find("p.content").First()
		if snippet.Length() == 0 {
			snippet = s.Find("p").First()
		}

		var engines []string
		s.Find(".engines span").Each(func(_ int, e *goquery.Selection) {
			if name := strings.TrimSpace(e.Text()); name != "" {
				engines = append(engines, name)
			}
		})

		raw.Results = append(raw.Results, RawResult{
			Title:   title,
			URL:     href,
			Content: collapseSpace(snippet.Text()),
			Engines: engines,
		})
	})

	raw.NumberOfResults = len(raw.Results)
	return raw, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
