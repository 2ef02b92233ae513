package feedtool

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/roomward/roomward/pkg/logger"
)

// Feed server timeout constants.
const (
	feedReadTimeout       = 5 * time.Second
	feedWriteTimeout      = 10 * time.Second
	feedReadHeaderTimeout = 5 * time.Second
)

// FeedServer serves a generated iCalendar document over HTTP.
type FeedServer struct {
	mu       sync.RWMutex
	calendar string
	stats    *Stats
	log      logger.Logger
}

// NewFeedServer creates a feed server for the given calendar payload.
func NewFeedServer(calendar string, stats *Stats) *FeedServer {
	return &FeedServer{
		calendar: calendar,
		stats:    stats,
		log:      logger.Get().Named("feedgen"),
	}
}

// SetCalendar swaps the served calendar payload.
func (s *FeedServer) SetCalendar(calendar string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calendar = calendar
}

// ServeHTTP serves the calendar on any GET request.
func (s *FeedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	payload := s.calendar
	s.stats.FeedRequests++
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write([]byte(payload))

	s.log.Debug(r.Context(), "served calendar feed",
		logger.String("remote", r.RemoteAddr),
		logger.Int("bytes", len(payload)),
	)
}

// Serve runs the feed HTTP server until ctx is canceled.
func (s *FeedServer) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadTimeout:       feedReadTimeout,
		WriteTimeout:      feedWriteTimeout,
		ReadHeaderTimeout: feedReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "serving calendar feed", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), feedWriteTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
