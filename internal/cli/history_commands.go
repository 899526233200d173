package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hession/searxmate/internal/history"
)

const defaultHistoryLimit = 10

// handleHistoryCommand handles /history and /stats, returning the output
func (s *Shell) handleHistoryCommand(command string, args []string) string {
	if s.store == nil {
		return "⚠️  Query history is disabled (history.enabled: false)"
	}

	if command == "/stats" {
		return s.historyStats()
	}

	if len(args) == 0 {
		return s.historyList(defaultHistoryLimit)
	}

	switch strings.ToLower(args[0]) {
	case "clear":
		if err := s.store.Clear(); err != nil {
			return fmt.Sprintf("❌ Failed to clear history: %v", err)
		}
		return "✅ Query history cleared"
	case "search":
		if len(args) < 2 {
			return "Usage: /history search <keyword>"
		}
		return s.historySearch(strings.Join(args[1:], " "))
	case "help":
		return historyHelp()
	default:
		limit, err := strconv.Atoi(args[0])
		if err != nil || limit <= 0 {
			return historyHelp()
		}
		return s.historyList(limit)
	}
}

func (s *Shell) historyList(limit int) string {
	records, err := s.store.List(limit)
	if err != nil {
		return fmt.Sprintf("❌ Failed to load history: %v", err)
	}
	if len(records) == 0 {
		return "📭 No queries recorded yet"
	}
	return FormatRecords(records)
}

func (s *Shell) historySearch(keyword string) string {
	records, err := s.store.Search(keyword, defaultHistoryLimit)
	if err != nil {
		return fmt.Sprintf("❌ Search failed: %v", err)
	}
	if len(records) == 0 {
		return fmt.Sprintf("📭 No queries matching \"%s\"", keyword)
	}
	return FormatRecords(records)
}

func (s *Shell) historyStats() string {
	stats, err := s.store.Stats()
	if err != nil {
		return fmt.Sprintf("❌ Failed to load stats: %v", err)
	}
	if len(stats) == 0 {
		return "📭 No queries recorded yet"
	}
	return FormatStats(stats)
}

// FormatRecords renders history records, one per line
func FormatRecords(records []*history.Record) string {
	var sb strings.Builder
	sb.WriteString("🕘 Recent queries:\n")
	for _, r := range records {
		status := "✅"
		if r.Failed() {
			status = "❌"
		}
		fmt.Fprintf(&sb, "  %s %s  %-7s %-40s %6s  %d results\n",
			status,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Mode,
			truncateForDisplay(r.Query, 40),
			FormatDuration(r.Latency),
			r.ResultCount)
		if r.Failed() {
			fmt.Fprintf(&sb, "     %s\n", truncateForDisplay(r.Error, 100))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatStats renders per-mode aggregates
func FormatStats(stats []history.ModeStats) string {
	var sb strings.Builder
	sb.WriteString("📊 Query statistics:\n")
	for _, st := range stats {
		fmt.Fprintf(&sb, "  %-7s total %-4d failed %-4d avg %-8s min %-8s max %s\n",
			st.Mode, st.Total, st.Failures,
			FormatDuration(st.AvgLatency), FormatDuration(st.MinLatency), FormatDuration(st.MaxLatency))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func historyHelp() string {
	return `🕘 History commands:
  /history [N]         - Show the last N queries (default 10)
  /history search <kw> - Find past queries
  /history clear       - Delete query history
  /stats               - Latency and failures per mode`
}

func historyCommandSuggestions() []CommandSuggestion {
	return []CommandSuggestion{
		{Text: "/history", Description: "Show recent queries"},
		{Text: "/history search", Description: "Find past queries"},
		{Text: "/history clear", Description: "Delete query history"},
		{Text: "/stats", Description: "Latency and failures per mode"},
	}
}

// FormatDuration formats a latency for display
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
}
