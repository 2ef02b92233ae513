package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roomward/roomward/internal/feedtool"
)

// Default configuration constants.
const (
	defaultNumBookings = 6
	defaultLead        = 2 * time.Minute
	defaultGap         = 5 * time.Minute
	defaultTimeout     = 10 * time.Second
)

func main() {
	var (
		listenAddr  = flag.String("listen", ":9081", "Address to serve the calendar feed on")
		targetURL   = flag.String("target", "", "Base URL of a roomward instance to observe")
		numBookings = flag.Int("bookings", defaultNumBookings, "Number of bookings to generate")
		location    = flag.String("location", "", "Location written into every generated event")
		lead        = flag.Duration("lead", defaultLead, "Delay before the first booking starts")
		gap         = flag.Duration("gap", defaultGap, "Gap between consecutive bookings")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout for probing")
		outputFile  = flag.String("output", "", "Also write the generated calendar to this file")
		logFile     = flag.String("log", "", "Log file for tool output (default: feedgen_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		feedtool.ShowHelp()
		return
	}

	// Setup logging
	if err := feedtool.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Serve until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := &feedtool.Config{
		ListenAddr:  *listenAddr,
		TargetURL:   *targetURL,
		NumBookings: *numBookings,
		Location:    *location,
		Lead:        *lead,
		Gap:         *gap,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	if err := feedtool.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Feed tool failed: " + err.Error() + "\n")
		return
	}
}
