package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"

	"github.com/hession/searxmate/internal/config"
	"github.com/hession/searxmate/internal/history"
	"github.com/hession/searxmate/internal/logger"
	"github.com/hession/searxmate/internal/websearch"
)

const (
	Version = "0.1.0"

	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// Shell is the interactive search prompt. Plain input runs a summary
// search; lines starting with / are commands.
type Shell struct {
	searcher     websearch.Searcher
	store        history.Store // nil when history is disabled
	cfg          *config.Config
	out          io.Writer
	defaultCount int
	timeout      time.Duration
	exiting      bool
}

// NewShell creates an interactive shell
func NewShell(s websearch.Searcher, store history.Store, cfg *config.Config, out io.Writer) *Shell {
	if out == nil {
		out = os.Stdout
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Shell{
		searcher:     s,
		store:        store,
		cfg:          cfg,
		out:          out,
		defaultCount: cfg.SearXNG.DefaultCount,
		timeout:      cfg.SearXNG.Timeout(),
	}
}

// Run starts the prompt loop and returns after /exit or Ctrl+D
func (s *Shell) Run() error {
	s.printWelcome()

	p := prompt.New(
		func(line string) {
			s.HandleLine(context.Background(), line)
		},
		s.complete,
		prompt.OptionPrefix("searx> "),
		prompt.OptionPrefixTextColor(prompt.Green),
		prompt.OptionTitle("searxmate"),
		prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
			return breakline && s.exiting
		}),
	)
	p.Run()

	fmt.Fprintf(s.out, "%sGoodbye! 👋%s\n", colorCyan, colorReset)
	return nil
}

// HandleLine executes one line of input. It returns false once the user
// asked to leave.
func (s *Shell) HandleLine(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return !s.exiting
	}

	if strings.HasPrefix(input, "/") {
		if !s.handleCommand(ctx, input) {
			s.exiting = true
		}
		return !s.exiting
	}

	s.run(ctx, input)
	return true
}

func (s *Shell) handleCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help":
		s.printHelp()

	case "/exit", "/quit", "/q":
		return false

	case "/run":
		if len(args) == 0 {
			s.warn("Usage: /run <query>")
			return true
		}
		s.run(ctx, strings.Join(args, " "))

	case "/results":
		count := s.defaultCount
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil {
				count = n
				args = args[1:]
			}
		}
		if len(args) == 0 {
			s.warn("Usage: /results [N] <query>")
			return true
		}
		s.results(ctx, strings.Join(args, " "), count)

	case "/html":
		if len(args) == 0 {
			s.warn("Usage: /html <query>")
			return true
		}
		s.html(ctx, strings.Join(args, " "))

	case "/config":
		fmt.Fprintln(s.out, s.cfg.String())

	case "/history", "/stats":
		fmt.Fprintln(s.out, s.handleHistoryCommand(command, args))

	default:
		s.warn(fmt.Sprintf("❓ Unknown command: %s", input))
		fmt.Fprintln(s.out, "Type /help for available commands")
	}
	return true
}

func (s *Shell) run(ctx context.Context, query string) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var summary string
	err := logger.Task(fmt.Sprintf("run %q", query), func() error {
		var err error
		summary, err = s.searcher.Run(ctx, query)
		return err
	})
	if err != nil {
		s.printError(err)
		return
	}
	fmt.Fprintf(s.out, "\n%s%s%s\n\n", colorBlue, summary, colorReset)
}

func (s *Shell) results(ctx context.Context, query string, count int) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var entries []websearch.Entry
	err := logger.Task(fmt.Sprintf("results %q (%d)", query, count), func() error {
		var err error
		entries, err = s.searcher.Results(ctx, query, count)
		return err
	})
	if err != nil {
		s.printError(err)
		return
	}
	fmt.Fprintln(s.out)
	FormatEntries(s.out, entries)
	fmt.Fprintln(s.out)
}

func (s *Shell) html(ctx context.Context, query string) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, err := s.searcher.SearchHTML(ctx, websearch.Query{Text: query, Format: websearch.FormatHTML})
	if err != nil {
		s.printError(err)
		return
	}
	fmt.Fprintf(s.out, "%s%d bytes of HTML%s\n%s\n", colorGray, len(page), colorReset, truncateForDisplay(page, 500))
}

func (s *Shell) printError(err error) {
	hint := ""
	switch {
	case websearch.IsInvalidArgument(err):
		hint = " (check the query and count)"
	case websearch.IsTransport(err):
		hint = " (is SearXNG running? try `searxmate ping`)"
	case websearch.IsDecode(err):
		hint = " (is the json format enabled in settings.yml?)"
	}
	fmt.Fprintf(s.out, "%s❌ Error: %v%s%s\n", colorRed, err, hint, colorReset)
}

func (s *Shell) warn(msg string) {
	fmt.Fprintf(s.out, "%s%s%s\n", colorYellow, msg, colorReset)
}

func (s *Shell) complete(d prompt.Document) []prompt.Suggest {
	text := d.TextBeforeCursor()
	if !strings.HasPrefix(text, "/") || strings.Contains(text, " ") {
		return nil
	}
	suggestions := make([]prompt.Suggest, 0)
	for _, c := range CommandSuggestions() {
		suggestions = append(suggestions, prompt.Suggest{Text: c.Text, Description: c.Description})
	}
	return prompt.FilterHasPrefix(suggestions, text, true)
}

// CommandSuggestion is one completion entry
type CommandSuggestion struct {
	Text        string
	Description string
}

// CommandSuggestions lists the shell commands for completion
func CommandSuggestions() []CommandSuggestion {
	return append([]CommandSuggestion{
		{Text: "/run", Description: "Summarize a query"},
		{Text: "/results", Description: "List results: /results [N] <query>"},
		{Text: "/html", Description: "Fetch the HTML result page"},
		{Text: "/config", Description: "Show current configuration"},
		{Text: "/help", Description: "Show help"},
		{Text: "/exit", Description: "Exit"},
	}, historyCommandSuggestions()...)
}

// printWelcome prints welcome message
func (s *Shell) printWelcome() {
	fmt.Fprintf(s.out, "\n%s🔎 searxmate v%s%s - SearXNG from your terminal\n", colorCyan, Version, colorReset)
	fmt.Fprintf(s.out, "%sInstance: %s%s\n", colorGray, s.cfg.SearXNG.BaseURL, colorReset)
	fmt.Fprintf(s.out, "%sType a query to get a summary, /help for help, /exit to quit%s\n\n", colorGray, colorReset)
}

// printHelp prints help information
func (s *Shell) printHelp() {
	fmt.Fprintf(s.out, `
%s📚 searxmate Help%s

%sCommands:%s
  <query>              - Summarize a query (same as /run)
  /run <query>         - Summarize a query
  /results [N] <query> - Show up to N results (default %d)
  /html <query>        - Fetch the HTML result page
  /history [N]         - Show the last N queries
  /history search <kw> - Find past queries
  /history clear       - Delete query history
  /stats               - Latency and failures per mode
  /config              - Show current configuration
  /exit                - Exit program

%sInput Tips:%s
  • Press Tab to complete commands
  • Use Up/Down arrow keys to browse input history
  • Press Ctrl+D to quit

`, colorCyan, colorReset, colorYellow, colorReset, s.defaultCount, colorYellow, colorReset)
}

// FormatEntries prints numbered entries
func FormatEntries(w io.Writer, entries []websearch.Entry) {
	if len(entries) == 0 {
		fmt.Fprintf(w, "%s%s%s\n", colorGray, websearch.NoResultsMessage, colorReset)
		return
	}
	for i, e := range entries {
		fmt.Fprintf(w, "%s%d. %s%s\n", colorGreen, i+1, e.Title, colorReset)
		if e.Link != "" {
			fmt.Fprintf(w, "   %s%s%s\n", colorBlue, e.Link, colorReset)
		}
		if e.Snippet != "" {
			fmt.Fprintf(w, "   %s\n", truncateForDisplay(e.Snippet, 200))
		}
		if len(e.Engines) > 0 {
			fmt.Fprintf(w, "   %s[%s]%s\n", colorGray, strings.Join(e.Engines, ", "), colorReset)
		}
	}
}

// truncateForDisplay flattens text to one line and cuts it at maxLen runes
func truncateForDisplay(text string, maxLen int) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}
