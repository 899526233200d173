package latency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hession/searxmate/internal/logger"
	"github.com/hession/searxmate/internal/websearch"
)

// DefaultQuery is the query used when the plan names none
const DefaultQuery = "searxng"

// Plan describes one latency test
type Plan struct {
	Query        string
	Iterations   int  // timed calls per mode
	ResultsCount int  // count for the results mode
	LargeCount   int  // one extra results call with this count; 0 skips it
	Warmup       bool // issue one untimed Run first
}

// DefaultPlan returns the stock plan: 10 run calls, 10 results calls of one
// result and a single results call of 25
func DefaultPlan() Plan {
	return Plan{
		Query:        DefaultQuery,
		Iterations:   10,
		ResultsCount: 1,
		LargeCount:   25,
		Warmup:       true,
	}
}

// Sample is one timed call
type Sample struct {
	Mode        string
	Count       int
	Elapsed     time.Duration
	ResultCount int
	Err         error
}

// Summary aggregates the samples of one mode
type Summary struct {
	Mode     string
	Count    int
	Runs     int
	Failures int
	Avg      time.Duration
	Min      time.Duration
	Max      time.Duration
}

// Report is the outcome of a plan
type Report struct {
	Query     string
	Samples   []Sample
	Summaries []Summary
}

// Tester times calls against a Searcher
type Tester struct {
	searcher websearch.Searcher
	now      func() time.Time
}

// NewTester creates a latency tester
func NewTester(s websearch.Searcher) *Tester {
	return &Tester{searcher: s, now: time.Now}
}

// Run executes the plan. Failed calls are counted but do not stop the test;
// only a canceled context does.
func (t *Tester) Run(ctx context.Context, plan Plan) (*Report, error) {
	if plan.Iterations <= 0 {
		return nil, fmt.Errorf("iterations must be greater than 0")
	}
	if plan.ResultsCount <= 0 {
		return nil, fmt.Errorf("results count must be greater than 0")
	}
	if plan.LargeCount < 0 {
		return nil, fmt.Errorf("large count cannot be negative")
	}
	if strings.TrimSpace(plan.Query) == "" {
		plan.Query = DefaultQuery
	}

	logger.Info("starting latency test: query=%q iterations=%d", plan.Query, plan.Iterations)

	if plan.Warmup {
		if _, err := t.searcher.Run(ctx, plan.Query); err != nil {
			logger.Warn("warmup call failed: %v", err)
		}
	}

	report := &Report{Query: plan.Query}
	groups := []struct {
		mode  string
		count int
		n     int
	}{
		{"run", 0, plan.Iterations},
		{"results", plan.ResultsCount, plan.Iterations},
	}
	if plan.LargeCount > 0 {
		groups = append(groups, struct {
			mode  string
			count int
			n     int
		}{"results", plan.LargeCount, 1})
	}

	for _, g := range groups {
		samples := make([]Sample, 0, g.n)
		for i := 0; i < g.n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			s := t.measure(ctx, plan.Query, g.mode, g.count)
			logger.Info("test %d %s: latency %.1f ms, results %d", i, g.mode, ms(s.Elapsed), s.ResultCount)
			samples = append(samples, s)
		}
		sum := Summarize(g.mode, g.count, samples)
		logger.Info("latency average for %s (count %d): %.1f ms", g.mode, g.count, ms(sum.Avg))
		report.Samples = append(report.Samples, samples...)
		report.Summaries = append(report.Summaries, sum)
	}

	logger.Info("finished latency test")
	return report, nil
}

func (t *Tester) measure(ctx context.Context, query, mode string, count int) Sample {
	s := Sample{Mode: mode, Count: count}
	start := t.now()
	if mode == "run" {
		_, s.Err = t.searcher.Run(ctx, query)
		if s.Err == nil {
			s.ResultCount = 1
		}
	} else {
		var entries []websearch.Entry
		entries, s.Err = t.searcher.Results(ctx, query, count)
		s.ResultCount = len(entries)
	}
	s.Elapsed = t.now().Sub(start)
	return s
}

// Summarize aggregates samples. Failed samples count toward Failures only.
func Summarize(mode string, count int, samples []Sample) Summary {
	sum := Summary{Mode: mode, Count: count, Runs: len(samples)}
	var total time.Duration
	ok := 0
	for _, s := range samples {
		if s.Err != nil {
			sum.Failures++
			continue
		}
		if ok == 0 || s.Elapsed < sum.Min {
			sum.Min = s.Elapsed
		}
		if s.Elapsed > sum.Max {
			sum.Max = s.Elapsed
		}
		total += s.Elapsed
		ok++
	}
	if ok > 0 {
		sum.Avg = total / time.Duration(ok)
	}
	return sum
}

// String renders the summaries as a small table
func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Latency test for %q\n", r.Query)
	fmt.Fprintf(&sb, "%-8s %5s %5s %6s %10s %10s %10s\n", "MODE", "COUNT", "RUNS", "FAILED", "AVG(ms)", "MIN(ms)", "MAX(ms)")
	for _, s := range r.Summaries {
		fmt.Fprintf(&sb, "%-8s %5d %5d %6d %10.1f %10.1f %10.1f\n",
			s.Mode, s.Count, s.Runs, s.Failures, ms(s.Avg), ms(s.Min), ms(s.Max))
	}
	return sb.String()
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
