package feedtool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/roomward/roomward/pkg/logger"
)

// statusSnapshot mirrors the fields the probe cares about from /status.
type statusSnapshot struct {
	Workspace       string  `json:"workspace"`
	DryRun          bool    `json:"dry_run"`
	ActiveMonitors  int     `json:"active_monitors"`
	QueueDepth      int     `json:"queue_depth"`
	HandledBookings int     `json:"handled_bookings"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

// monitorSnapshot mirrors the fields the probe cares about from /monitors.
type monitorSnapshot struct {
	BookingID    string `json:"booking_id"`
	BookingTitle string `json:"booking_title"`
	Profile      string `json:"profile"`
	Phase        string `json:"phase"`
}

// checkServiceHealth verifies the target instance answers its health endpoint.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	client := &http.Client{Timeout: cfg.Timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.TargetURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("building health request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// probeLoop periodically reports what the target instance is doing with the
// generated feed.
func probeLoop(ctx context.Context, cfg *Config, stats *Stats, interval time.Duration) {
	log := logger.Get().Named("probe")
	client := &http.Client{Timeout: cfg.Timeout}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats.ProbesSent++

			var status statusSnapshot
			if err := getJSON(ctx, client, cfg.TargetURL+"/status", &status); err != nil {
				stats.ProbesFailed++
				log.Warn(ctx, "status probe failed", logger.Error(err))
				continue
			}

			var monitors []monitorSnapshot
			if err := getJSON(ctx, client, cfg.TargetURL+"/monitors", &monitors); err != nil {
				stats.ProbesFailed++
				log.Warn(ctx, "monitors probe failed", logger.Error(err))
				continue
			}

			log.Info(ctx, "target snapshot",
				logger.String("workspace", status.Workspace),
				logger.Int("activeMonitors", status.ActiveMonitors),
				logger.Int("queueDepth", status.QueueDepth),
				logger.Int("handled", status.HandledBookings),
			)
			if cfg.Verbose {
				for _, m := range monitors {
					log.Info(ctx, "monitor",
						logger.String("bookingID", m.BookingID),
						logger.String("title", m.BookingTitle),
						logger.String("profile", m.Profile),
						logger.String("phase", m.Phase),
					)
				}
			}
		}
	}
}

// getJSON fetches url and decodes the JSON response into v.
func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
