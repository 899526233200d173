package websearch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// RawResult is one upstream result object. Fields not listed are ignored.
type RawResult struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Content  string   `json:"content"`
	Engine   string   `json:"engine"`
	Engines  []string `json:"engines"`
	Category string   `json:"category"`
	Score    float64  `json:"score"`
}

// RawResponse is the typed projection of a /search?format=json payload.
type RawResponse struct {
	Query           string
	NumberOfResults int
	Answers         []string
	Results         []RawResult
	Suggestions     []string
}

type searxngResponse struct {
	Query           string            `json:"query"`
	NumberOfResults float64           `json:"number_of_results"`
	Answer          string            `json:"answer"`
	Answers         []json.RawMessage `json:"answers"`
	Results         *[]RawResult      `json:"results"`
	Suggestions     []string          `json:"suggestions"`
}

// searxngAnswer covers instances that emit answers as objects.
type searxngAnswer struct {
	Answer string `json:"answer"`
}

// DecodeResponse parses a SearXNG JSON body. The top level must be an object
// with a "results" array.
func DecodeResponse(body []byte) (*RawResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty response body")
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %q", preview(trimmed))
	}

	var payload searxngResponse
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, err
	}
	if payload.Results == nil {
		return nil, errors.New(`missing "results" array`)
	}

	raw := &RawResponse{
		Query:           payload.Query,
		NumberOfResults: int(payload.NumberOfResults),
		Results:         *payload.Results,
		Suggestions:     payload.Suggestions,
	}
	if payload.Answer != "" {
		raw.Answers = append(raw.Answers, payload.Answer)
	}
	for i, item := range payload.Answers {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			raw.Answers = append(raw.Answers, text)
			continue
		}
		var obj searxngAnswer
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, fmt.Errorf("answers[%d]: expected string or object: %w", i, err)
		}
		raw.Answers = append(raw.Answers, obj.Answer)
	}
	return raw, nil
}

func preview(b []byte) string {
	const max = 40
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
