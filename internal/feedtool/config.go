package feedtool

import "time"

// Config holds configuration for the feed generator tool.
type Config struct {
	ListenAddr  string        // Address the calendar feed is served on
	TargetURL   string        // Base URL of a roomward instance to observe, empty disables probing
	NumBookings int           // Number of bookings to generate
	Location    string        // Location written into every generated event
	Lead        time.Duration // Delay before the first booking starts
	Gap         time.Duration // Gap between consecutive bookings
	Timeout     time.Duration // HTTP request timeout for probing
	OutputFile  string        // Optional file the generated calendar is written to
	LogFile     string        // Log file for tool output
	Verbose     bool          // Enable verbose logging
}

// Stats holds feed tool statistics.
type Stats struct {
	BookingsGenerated int
	FeedRequests      int
	ProbesSent        int
	ProbesFailed      int
	StartTime         time.Time
}
