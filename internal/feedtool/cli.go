package feedtool

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/roomward/roomward/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "feedgen_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the feed generator tool.
func ShowHelp() {
	os.Stdout.WriteString(`Roomward Feed Generator
=======================

Serves a synthetic iCalendar booking feed for exercising a roomward
instance, and optionally observes what that instance does with it.

Usage:
  go run cmd/feedgen/main.go [options]

Options:
  -listen string
        Address to serve the calendar feed on (default ":9081")
  -target string
        Base URL of a roomward instance to observe (default: disabled)
  -bookings int
        Number of bookings to generate (default 6)
  -location string
        Location written into every generated event
  -lead duration
        Delay before the first booking starts (default 2m)
  -gap duration
        Gap between consecutive bookings (default 5m)
  -timeout duration
        HTTP request timeout for probing (default 10s)
  -output string
        Also write the generated calendar to this file
  -log string
        Log file for tool output (default: feedgen_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Serve six bookings starting in two minutes
  go run cmd/feedgen/main.go

  # Point roomward at the feed, then watch it work
  ROOMWARD_FEED_URL=http://localhost:9081/calendar.ics go run cmd/main.go &
  go run cmd/feedgen/main.go -target http://localhost:9080 -verbose

  # Write the calendar to a file for inspection
  go run cmd/feedgen/main.go -bookings 12 -output schedule.ics
`)
}
