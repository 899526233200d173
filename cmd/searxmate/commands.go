package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hession/searxmate/internal/cli"
	"github.com/hession/searxmate/internal/config"
	"github.com/hession/searxmate/internal/latency"
	"github.com/hession/searxmate/internal/logger"
	"github.com/hession/searxmate/internal/tools"
	"github.com/hession/searxmate/internal/websearch"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		asJSON     bool
		count      int
		language   string
		categories string
		page       int
		timeRange  string
		safeSearch int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Print a one-line summary for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := websearch.Query{
				Text:       queryText(args),
				Count:      count,
				Format:     websearch.FormatJSON,
				Language:   language,
				Page:       page,
				Categories: categories,
				TimeRange:  timeRange,
			}
			if q.Count == 0 {
				q.Count = a.cfg.SearXNG.DefaultCount
			}
			if safeSearch >= 0 {
				q.SafeSearch = &safeSearch
			}

			var shaped *websearch.Shaped
			err := logger.Task(fmt.Sprintf("search %q", q.Text), func() error {
				var err error
				shaped, err = a.searcher.Search(cmd.Context(), q)
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), shaped)
			}
			fmt.Fprintln(cmd.OutOrStdout(), shaped.Summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary and results as JSON")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of results in the JSON output (default from config)")
	cmd.Flags().StringVar(&language, "language", "", "search language, e.g. en or de-CH")
	cmd.Flags().StringVar(&categories, "categories", "", "comma separated categories, e.g. general,news")
	cmd.Flags().IntVar(&page, "page", 0, "result page, starting at 1")
	cmd.Flags().StringVar(&timeRange, "time-range", "", "day, month or year")
	cmd.Flags().IntVar(&safeSearch, "safesearch", -1, "0, 1 or 2 (default: instance setting)")
	return cmd
}

func newResultsCmd(a *app) *cobra.Command {
	var (
		asJSON bool
		count  int
	)

	cmd := &cobra.Command{
		Use:   "results <query>",
		Short: "List the top results for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("count") {
				count = a.cfg.SearXNG.DefaultCount
			}

			entries, err := a.searcher.Results(cmd.Context(), queryText(args), count)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			cli.FormatEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "maximum number of results (default from config)")
	return cmd
}

func newHTMLCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "html <query>",
		Short: "Fetch the HTML result page for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.searcher.SearchHTML(cmd.Context(), websearch.Query{
				Text:   queryText(args),
				Format: websearch.FormatHTML,
			})
			if err != nil {
				return err
			}

			if output != "" {
				if err := os.WriteFile(output, []byte(page), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(page), output)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), page)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the page to a file instead of stdout")
	return cmd
}

func newBatchCmd(a *app) *cobra.Command {
	var (
		file        string
		count       int
		concurrency int
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "batch [query...]",
		Short: "Run several queries in parallel",
		Long: `Run several queries in parallel. Queries come from the arguments, one per
argument, or from --file with one query per line ("-" reads stdin).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := append([]string{}, args...)
			if file != "" {
				lines, err := readQueries(file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				texts = append(texts, lines...)
			}
			if len(texts) == 0 {
				return fmt.Errorf("no queries given")
			}

			if !cmd.Flags().Changed("count") {
				count = a.cfg.SearXNG.DefaultCount
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = a.cfg.Batch.Concurrency
			}

			queries := make([]websearch.Query, len(texts))
			for i, text := range texts {
				queries[i] = websearch.Query{Text: text, Count: count, Format: websearch.FormatJSON}
			}

			start := time.Now()
			results := a.client.Batch(cmd.Context(), queries, concurrency)
			if a.recorder != nil {
				a.recorder.RecordBatch(results, time.Since(start))
			}

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), batchJSON(results)); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				for i, r := range results {
					fmt.Fprintf(out, "[%d] %s\n", i+1, r.Query.Text)
					if r.Err != nil {
						fmt.Fprintf(out, "    error: %v\n\n", r.Err)
						continue
					}
					fmt.Fprintf(out, "    %s\n\n", r.Shaped.Summary)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d queries failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read queries from a file, one per line")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "results per query (default from config)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "queries in flight at once (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

type batchItem struct {
	Query   string            `json:"query"`
	Summary string            `json:"summary,omitempty"`
	Results []websearch.Entry `json:"results,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func batchJSON(results []websearch.BatchResult) []batchItem {
	items := make([]batchItem, len(results))
	for i, r := range results {
		items[i].Query = r.Query.Text
		if r.Err != nil {
			items[i].Error = r.Err.Error()
			continue
		}
		items[i].Summary = r.Shaped.Summary
		items[i].Results = r.Shaped.Entries
	}
	return items
}

func readQueries(path string, stdin io.Reader) ([]string, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open query file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var queries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queries: %w", err)
	}
	return queries, nil
}

func newPingCmd(a *app) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the SearXNG instance is up",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := healthConfig(a.cfg)
			if once {
				cfg.MaxRetries = 1
			}

			health, err := a.client.WaitReady(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✅ %s is up (status %d, %s)\n", a.client.BaseURL(), health.StatusCode, health.Latency.Round(time.Millisecond))
			if !health.ExpectedText {
				fmt.Fprintf(out, "⚠️  expected content %q not found in the landing page\n", cfg.ExpectText)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "try once instead of retrying")
	return cmd
}

func newLatencyCmd(a *app) *cobra.Command {
	plan := latency.DefaultPlan()
	var noWarmup bool

	cmd := &cobra.Command{
		Use:   "latency",
		Short: "Measure search latency of the instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan.Warmup = !noWarmup
			// Latency samples bypass the history store
			report, err := latency.NewTester(a.client).Run(cmd.Context(), plan)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&plan.Query, "query", "q", plan.Query, "query to send")
	cmd.Flags().IntVarP(&plan.Iterations, "iterations", "i", plan.Iterations, "timed calls per mode")
	cmd.Flags().IntVar(&plan.ResultsCount, "results-count", plan.ResultsCount, "count for the results mode")
	cmd.Flags().IntVar(&plan.LargeCount, "large-count", plan.LargeCount, "count for one extra results call (0 skips it)")
	cmd.Flags().BoolVar(&noWarmup, "no-warmup", false, "skip the untimed warmup call")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit    int
		stats    bool
		search   string
		clearAll bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				return fmt.Errorf("query history is disabled")
			}
			out := cmd.OutOrStdout()

			switch {
			case clearAll:
				if err := a.store.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(out, "✅ Query history cleared")
			case stats:
				st, err := a.store.Stats()
				if err != nil {
					return err
				}
				if len(st) == 0 {
					fmt.Fprintln(out, "📭 No queries recorded yet")
					return nil
				}
				fmt.Fprintln(out, cli.FormatStats(st))
			default:
				records, err := a.store.List(limit)
				if search != "" {
					records, err = a.store.Search(search, limit)
				}
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(out, "📭 No queries recorded yet")
					return nil
				}
				fmt.Fprintln(out, cli.FormatRecords(records))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "number of records to show")
	cmd.Flags().BoolVar(&stats, "stats", false, "show latency and failures per mode")
	cmd.Flags().StringVarP(&search, "search", "s", "", "only show queries containing this text")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete all recorded queries")
	return cmd
}

func newToolsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the function-calling schemas of the search tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), registry.GetSchemas())
		},
	}

	execCmd := &cobra.Command{
		Use:   "exec <tool> <json-args>",
		Short: "Execute a tool with JSON arguments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry()
			if err != nil {
				return err
			}
			var toolArgs map[string]any
			if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
				return fmt.Errorf("invalid tool arguments: %w", err)
			}
			result, err := registry.Execute(args[0], toolArgs)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.AddCommand(execCmd)
	return cmd
}

func (a *app) registry() (*tools.Registry, error) {
	prompts, err := config.LoadPromptConfig()
	if err != nil {
		return nil, err
	}
	return tools.NewDefaultRegistry(a.searcher, prompts.GetPrompts(), a.cfg.SearXNG.Timeout(), a.cfg.SearXNG.DefaultCount), nil
}

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive search prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.NewShell(a.searcher, a.store, a.cfg, cmd.OutOrStdout()).Run()
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.cfg.String())

			path, _ := config.ConfigPath()
			fmt.Fprintf(cmd.OutOrStdout(), "\nConfig file path: %s\n", path)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "searxmate v%s\n", cli.Version)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
