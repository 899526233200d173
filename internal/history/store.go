package history

import (
	"time"
)

// Mode names the client operation that produced a record
type Mode string

const (
	ModeRun     Mode = "run"
	ModeResults Mode = "results"
	ModeSearch  Mode = "search"
	ModeHTML    Mode = "html"
	ModeBatch   Mode = "batch"
)

// Store query history storage interface
type Store interface {
	// Record saves one finished query and fills in its ID and time
	Record(rec *Record) error
	// List returns the most recent records, newest first
	List(limit int) ([]*Record, error)
	// Search returns records whose query text contains the keyword
	Search(keyword string, limit int) ([]*Record, error)
	// Stats aggregates latency and failures per mode
	Stats() ([]ModeStats, error)
	// Clear removes every record
	Clear() error

	// Close connection
	Close() error
}

// Record is one executed query
type Record struct {
	ID          string
	Query       string
	Mode        Mode
	Count       int
	ResultCount int
	Latency     time.Duration
	Error       string
	CreatedAt   time.Time
}

// Failed reports whether the query ended in an error
func (r *Record) Failed() bool {
	return r.Error != ""
}

// ModeStats aggregated figures for one mode
type ModeStats struct {
	Mode       Mode
	Total      int
	Failures   int
	AvgLatency time.Duration
	MinLatency time.Duration
	MaxLatency time.Duration
}
