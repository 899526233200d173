package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hession/searxmate/internal/cli"
	"github.com/hession/searxmate/internal/config"
	"github.com/hession/searxmate/internal/history"
	"github.com/hession/searxmate/internal/logger"
	"github.com/hession/searxmate/internal/websearch"
)

// app holds what the subcommands share. It is populated by setup.
type app struct {
	configDir string
	baseURL   string
	noHistory bool
	wait      bool

	cfg      *config.Config
	client   *websearch.Client
	store    history.Store
	recorder *history.Recorder
	searcher websearch.Searcher
}

func main() {
	a := &app{}
	rootCmd := newRootCmd(a)

	err := rootCmd.Execute()
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "searxmate",
		Short: "searxmate - SearXNG metasearch from your terminal",
		Long: `searxmate queries a self-hosted SearXNG instance and shapes the response
into a short summary or a bounded list of results.

It can:
  • Summarize a query (answer box first, then the top result)
  • List the top N results with title, link and snippet
  • Fetch the raw HTML result page
  • Run many queries in parallel
  • Check that the instance is up and measure its latency
  • Expose the searches as LLM function-calling tools`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "version", "help", "completion":
				return nil
			}
			return a.setup(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.NewShell(a.searcher, a.store, a.cfg, cmd.OutOrStdout()).Run()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default ./config)")
	rootCmd.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "SearXNG base URL, overrides the config file")
	rootCmd.PersistentFlags().BoolVar(&a.noHistory, "no-history", false, "do not record queries in the history database")
	rootCmd.PersistentFlags().BoolVar(&a.wait, "wait", false, "wait for the instance to answer before searching")

	rootCmd.AddCommand(
		newSearchCmd(a),
		newResultsCmd(a),
		newHTMLCmd(a),
		newBatchCmd(a),
		newPingCmd(a),
		newLatencyCmd(a),
		newHistoryCmd(a),
		newToolsCmd(a),
		newShellCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

// setup loads configuration and builds the client, history store and logger
func (a *app) setup(ctx context.Context) error {
	if a.configDir != "" {
		config.SetConfigDir(a.configDir)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.baseURL != "" {
		cfg.SearXNG.BaseURL = a.baseURL
	}
	if a.noHistory {
		cfg.History.Enabled = false
	}
	a.cfg = cfg

	level, _ := logger.ParseLevel(cfg.Log.Level)
	if err := logger.Init(logger.Config{
		LogDir:     config.LogDir(),
		Level:      level,
		MaxDays:    cfg.Log.MaxDays,
		ConsoleOut: cfg.Log.Console,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	logConfigInfo(cfg)

	a.client, err = websearch.NewClient(clientConfig(cfg))
	if err != nil {
		return err
	}
	a.searcher = a.client

	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.History.DBPath)
		if err != nil {
			logger.Warn("query history disabled: %v", err)
		} else {
			a.store = store
			a.recorder = history.NewRecorder(a.client, store)
			a.searcher = a.recorder
		}
	}

	if a.wait {
		if ctx == nil {
			ctx = context.Background()
		}
		if _, err := a.client.WaitReady(ctx, healthConfig(cfg)); err != nil {
			return err
		}
	}

	return nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
	logger.Close()
}

func clientConfig(cfg *config.Config) websearch.ClientConfig {
	return websearch.ClientConfig{
		BaseURL:      cfg.SearXNG.BaseURL,
		Timeout:      cfg.SearXNG.Timeout(),
		DefaultCount: cfg.SearXNG.DefaultCount,
		UserAgent:    cfg.SearXNG.UserAgent,
		APIKey:       cfg.SearXNG.APIKey,
		Language:     cfg.SearXNG.Language,
		SafeSearch:   cfg.SearXNG.SafeSearchLevel(),
	}
}

func healthConfig(cfg *config.Config) websearch.HealthConfig {
	return websearch.HealthConfig{
		MaxRetries: cfg.Health.MaxRetries,
		RetryDelay: cfg.Health.RetryDelay(),
		ExpectText: cfg.Health.ExpectText,
	}
}

// logConfigInfo logs the effective configuration without secrets
func logConfigInfo(cfg *config.Config) {
	apiKey := "(not configured)"
	if cfg.SearXNG.APIKey != "" {
		apiKey = "(configured)"
	}
	logger.Info("searxmate v%s starting", cli.Version)
	logger.Info("searxng: base_url=%s timeout=%ds default_count=%d api_key=%s",
		cfg.SearXNG.BaseURL, cfg.SearXNG.TimeoutSeconds, cfg.SearXNG.DefaultCount, apiKey)
	logger.Debug("history: enabled=%v db=%s", cfg.History.Enabled, cfg.History.DBPath)
}

// queryText joins positional arguments into one query
func queryText(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
