package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hession/searxmate/internal/cli"
	"github.com/hession/searxmate/internal/config"
	"github.com/hession/searxmate/internal/tools"
	"github.com/hession/searxmate/internal/websearch"
)

const searxngJSON = `{
	"query": "golang",
	"number_of_results": 3,
	"answers": [],
	"results": [
		{"title": "The Go Programming Language", "url": "https://go.dev", "content": "Build simple, secure, scalable systems with Go", "engines": ["google", "duckduckgo"]},
		{"title": "A Tour of Go", "url": "https://go.dev/tour", "content": "Interactive introduction"},
		{"title": "Go by Example", "url": "https://gobyexample.com", "content": "Hands-on introduction"}
	]
}`

func newSearXNGServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/":
			w.Write([]byte("<html><title>SearXNG</title></html>"))
		case r.URL.Path == "/search" && r.URL.Query().Get("q") == "fail":
			w.WriteHeader(http.StatusInternalServerError)
		case r.URL.Path == "/search" && r.URL.Query().Get("format") == "json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(searxngJSON))
		case r.URL.Path == "/search":
			w.Write([]byte(`<html><body><div class="result"><h3><a href="https://go.dev">Go</a></h3><p class="content">Go</p></div></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// execute runs the CLI with args and returns its output
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	if a.store != nil {
		a.store.Close()
	}
	return out.String(), err
}

func baseArgs(t *testing.T, server *httptest.Server) []string {
	return []string{"--config-dir", filepath.Join(t.TempDir(), "config"), "--base-url", server.URL, "--no-history"}
}

func TestVersion(t *testing.T) {
	if cli.Version != "0.1.0" {
		t.Errorf("Expected version '0.1.0', got '%s'", cli.Version)
	}

	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "searxmate v0.1.0") {
		t.Errorf("Unexpected output: %s", out)
	}
}

func TestLogConfigInfo(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SearXNG.APIKey = "test-api-key-12345"

	// Should not panic
	logConfigInfo(cfg)

	cfg.SearXNG.APIKey = ""
	logConfigInfo(cfg)
}

func TestClientConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SearXNG.SafeSearch = 1
	cfg.SearXNG.Language = "de"

	cc := clientConfig(cfg)
	if cc.BaseURL != "http://localhost:8080" || cc.DefaultCount != 2 || cc.Language != "de" {
		t.Errorf("Unexpected client config: %+v", cc)
	}
	if cc.SafeSearch == nil || *cc.SafeSearch != 1 {
		t.Errorf("Expected safesearch 1, got %v", cc.SafeSearch)
	}
	if _, err := websearch.NewClient(cc); err != nil {
		t.Errorf("Client config from defaults should be valid: %v", err)
	}
}

func TestSearchCommand(t *testing.T) {
	server := newSearXNGServer(t)

	out, err := execute(t, append(baseArgs(t, server), "search", "golang")...)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	want := "The Go Programming Language: Build simple, secure, scalable systems with Go"
	if strings.TrimSpace(out) != want {
		t.Errorf("Expected %q, got %q", want, out)
	}
}

func TestSearchCommand_JSON(t *testing.T) {
	server := newSearXNGServer(t)

	out, err := execute(t, append(baseArgs(t, server), "search", "--json", "-n", "1", "golang")...)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	var shaped websearch.Shaped
	if err := json.Unmarshal([]byte(out), &shaped); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out)
	}
	if shaped.Query != "golang" || len(shaped.Entries) != 1 {
		t.Errorf("Unexpected shaped output: %+v", shaped)
	}
}

func TestResultsCommand(t *testing.T) {
	server := newSearXNGServer(t)

	out, err := execute(t, append(baseArgs(t, server), "results", "--json", "--count", "2", "golang")...)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	var entries []websearch.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out)
	}
	if len(entries) != 2 || entries[1].Link != "https://go.dev/tour" {
		t.Errorf("Unexpected entries: %+v", entries)
	}
}

func TestResultsCommand_InvalidCount(t *testing.T) {
	server := newSearXNGServer(t)

	_, err := execute(t, append(baseArgs(t, server), "results", "--count", "0", "golang")...)
	if !websearch.IsInvalidArgument(err) {
		t.Errorf("Expected invalid argument error, got %v", err)
	}
}

func TestSearchCommand_ServerError(t *testing.T) {
	server := newSearXNGServer(t)

	_, err := execute(t, append(baseArgs(t, server), "search", "fail")...)
	if !websearch.IsTransport(err) {
		t.Errorf("Expected transport error, got %v", err)
	}
}

func TestHTMLCommand(t *testing.T) {
	server := newSearXNGServer(t)
	output := filepath.Join(t.TempDir(), "page.html")

	out, err := execute(t, append(baseArgs(t, server), "html", "-o", output, "golang")...)
	if err != nil {
		t.Fatalf("html failed: %v", err)
	}
	if !strings.Contains(out, "Wrote") {
		t.Errorf("Unexpected output: %s", out)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `class="result"`) {
		t.Errorf("Unexpected page: %s", data)
	}
}

func TestBatchCommand(t *testing.T) {
	server := newSearXNGServer(t)
	queryFile := filepath.Join(t.TempDir(), "queries.txt")
	os.WriteFile(queryFile, []byte("# comment\ngolang\n\ngo tour\n"), 0644)

	out, err := execute(t, append(baseArgs(t, server), "batch", "--json", "-f", queryFile, "first")...)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	var items []batchItem
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out)
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}
	if items[0].Query != "first" || items[1].Query != "golang" || items[2].Query != "go tour" {
		t.Errorf("Order not preserved: %+v", items)
	}
}

func TestBatchCommand_PartialFailure(t *testing.T) {
	server := newSearXNGServer(t)

	out, err := execute(t, append(baseArgs(t, server), "batch", "golang", "fail")...)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 queries failed") {
		t.Errorf("Expected partial failure error, got %v", err)
	}
	if !strings.Contains(out, "[1] golang") || !strings.Contains(out, "[2] fail") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestBatchCommand_NoQueries(t *testing.T) {
	server := newSearXNGServer(t)

	if _, err := execute(t, append(baseArgs(t, server), "batch")...); err == nil {
		t.Error("Expected error without queries")
	}
}

func TestReadQueries_Stdin(t *testing.T) {
	queries, err := readQueries("-", strings.NewReader("a\n  b  \n#c\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(queries) != 2 || queries[1] != "b" {
		t.Errorf("Unexpected queries: %v", queries)
	}
}

func TestPingCommand(t *testing.T) {
	server := newSearXNGServer(t)

	out, err := execute(t, append(baseArgs(t, server), "ping", "--once")...)
	if err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if !strings.Contains(out, "is up") || strings.Contains(out, "not found") {
		t.Errorf("Unexpected output: %s", out)
	}
}

func TestPingCommand_ConnectionRefused(t *testing.T) {
	server := newSearXNGServer(t)
	url := server.URL
	server.Close()

	args := []string{"--config-dir", filepath.Join(t.TempDir(), "config"), "--base-url", url, "--no-history", "ping"}
	if _, err := execute(t, args...); !websearch.IsTransport(err) {
		t.Errorf("Expected transport error, got %v", err)
	}
}

func TestLatencyCommand(t *testing.T) {
	server := newSearXNGServer(t)

	out, err := execute(t, append(baseArgs(t, server), "latency", "-i", "2", "--large-count", "0", "--no-warmup")...)
	if err != nil {
		t.Fatalf("latency failed: %v", err)
	}
	if !strings.Contains(out, "run") || !strings.Contains(out, "results") {
		t.Errorf("Unexpected report:\n%s", out)
	}
}

func TestHistoryCommand(t *testing.T) {
	server := newSearXNGServer(t)
	dir := t.TempDir()
	t.Setenv("SEARXMATE_HISTORY_DB", filepath.Join(dir, "history.db"))
	args := []string{"--config-dir", filepath.Join(dir, "config"), "--base-url", server.URL}

	if _, err := execute(t, append(args, "results", "golang")...); err != nil {
		t.Fatalf("results failed: %v", err)
	}

	out, err := execute(t, append(args, "history")...)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "golang") {
		t.Errorf("Expected recorded query:\n%s", out)
	}

	out, err = execute(t, append(args, "history", "--stats")...)
	if err != nil {
		t.Fatalf("history --stats failed: %v", err)
	}
	if !strings.Contains(out, "results") {
		t.Errorf("Expected stats for results mode:\n%s", out)
	}
}

func TestHistoryCommand_Disabled(t *testing.T) {
	server := newSearXNGServer(t)

	if _, err := execute(t, append(baseArgs(t, server), "history")...); err == nil {
		t.Error("Expected error when history is disabled")
	}
}

func TestToolsCommand(t *testing.T) {
	server := newSearXNGServer(t)

	out, err := execute(t, append(baseArgs(t, server), "tools")...)
	if err != nil {
		t.Fatalf("tools failed: %v", err)
	}
	var schemas []tools.ToolSchema
	if err := json.Unmarshal([]byte(out), &schemas); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out)
	}
	if len(schemas) != 3 || schemas[0].Function.Name != "searxng_html" {
		t.Errorf("Unexpected schemas: %+v", schemas)
	}

	out, err = execute(t, append(baseArgs(t, server), "tools", "exec", "searxng_run", `{"query":"golang"}`)...)
	if err != nil {
		t.Fatalf("tools exec failed: %v", err)
	}
	if !strings.Contains(out, "The Go Programming Language") {
		t.Errorf("Unexpected tool output: %s", out)
	}

	if _, err := execute(t, append(baseArgs(t, server), "tools", "exec", "searxng_run", `not json`)...); err == nil {
		t.Error("Expected error for invalid tool arguments")
	}
}

func TestConfigCommand(t *testing.T) {
	server := newSearXNGServer(t)

	out, err := execute(t, append(baseArgs(t, server), "config")...)
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	if !strings.Contains(out, "Base URL: "+server.URL) || !strings.Contains(out, "Config file path:") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}
