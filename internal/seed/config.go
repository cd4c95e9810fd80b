package seed

import "time"

// Default generation parameters.
const (
	DefaultCount   = 500
	DefaultUsers   = 12
	DefaultDays    = 2
	DefaultWorkers = 8
	DefaultTimeout = 10 * time.Second
)

// Config holds parameters for synthetic observation generation.
type Config struct {
	BaseURL   string        // Base URL of the service
	Count     int           // Number of observations to generate
	Users     int           // Number of distinct participants
	Days      int           // Number of calendar days, starting at StartDay
	StartDay  string        // First calendar day (YYYY-MM-DD)
	Seed      int64         // RNG seed; 0 derives one from the clock
	Workers   int           // Concurrent submit workers
	Timeout   time.Duration // HTTP request timeout
	Verbose   bool          // Enable verbose logging
}

// normalized returns a copy with zero values replaced by defaults.
func (c Config) normalized() Config {
	out := c
	if out.Count <= 0 {
		out.Count = DefaultCount
	}
	if out.Users <= 0 {
		out.Users = DefaultUsers
	}
	if out.Days <= 0 {
		out.Days = DefaultDays
	}
	if out.StartDay == "" {
		out.StartDay = time.Now().UTC().Format("2006-01-02")
	}
	if out.Seed == 0 {
		out.Seed = time.Now().UnixNano()
	}
	if out.Workers <= 0 {
		out.Workers = DefaultWorkers
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	return out
}

// Stats holds submission statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Accepted   int
	Duplicates int
	Failed     int
	StartTime  time.Time
	Duration   time.Duration
}
