package feedtool

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/roomward/roomward/pkg/logger"
)

// Runner configuration constants.
const (
	probeInterval      = 15 * time.Second
	calendarFilePerm   = 0600
	defaultNumBookings = 6
)

// Run generates a calendar, serves it, and optionally observes a roomward
// instance consuming it. Blocks until ctx is canceled.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Get().Named("feedgen")
	stats := &Stats{StartTime: time.Now()}

	if cfg.NumBookings <= 0 {
		cfg.NumBookings = defaultNumBookings
	}

	bookings := generateBookings(cfg, time.Now())
	stats.BookingsGenerated = len(bookings)
	calendar := buildCalendar(bookings, cfg.Location)

	log.Info(ctx, "generated calendar",
		logger.Int("bookings", len(bookings)),
		logger.String("firstStart", bookings[0].Start.Format(time.RFC3339)),
		logger.String("lastEnd", bookings[len(bookings)-1].End.Format(time.RFC3339)),
	)
	if cfg.Verbose {
		for _, b := range bookings {
			log.Info(ctx, "booking",
				logger.String("uid", b.UID),
				logger.String("summary", b.Summary),
				logger.Time("start", b.Start),
				logger.Time("end", b.End),
			)
		}
	}

	if cfg.OutputFile != "" {
		if err := os.WriteFile(cfg.OutputFile, []byte(calendar), calendarFilePerm); err != nil {
			return fmt.Errorf("writing calendar file: %w", err)
		}
		log.Info(ctx, "wrote calendar file", logger.String("path", cfg.OutputFile))
	}

	if cfg.TargetURL != "" {
		if err := checkServiceHealth(ctx, cfg); err != nil {
			log.Warn(ctx, "target instance not reachable yet", logger.Error(err))
		}
		go probeLoop(ctx, cfg, stats, probeInterval)
	}

	server := NewFeedServer(calendar, stats)
	err := server.Serve(ctx, cfg.ListenAddr)

	log.Info(context.Background(), "feed tool finished",
		logger.Int("bookingsGenerated", stats.BookingsGenerated),
		logger.Int("feedRequests", stats.FeedRequests),
		logger.Int("probesSent", stats.ProbesSent),
		logger.Int("probesFailed", stats.ProbesFailed),
		logger.Duration("ranFor", time.Since(stats.StartTime)),
	)
	return err
}
