package storage

import (
	"context"
	"log/slog"
	"time"
)

// staleTempAge is how old an upload temp file must be before it is treated
// as abandoned.
const staleTempAge = time.Hour

// Sweeper is anything holding expirable state that the cleanup loop should
// purge, such as an in-memory session store.
type Sweeper interface {
	Sweep(now time.Time) int
}

// CleanupService periodically removes abandoned upload temp files from
// storage and purges expired entries from registered sweepers.
type CleanupService struct {
	store    Store
	sweepers []Sweeper
	interval time.Duration
	done     chan struct{}
}

// NewCleanupService creates a new cleanup service.
func NewCleanupService(store Store, interval time.Duration, sweepers ...Sweeper) *CleanupService {
	return &CleanupService{
		store:    store,
		sweepers: sweepers,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the cleanup loop in a background goroutine.
func (cs *CleanupService) Start(ctx context.Context) {
	slog.Info("cleanup service started", "interval", cs.interval)

	go func() {
		ticker := time.NewTicker(cs.interval)
		defer ticker.Stop()

		// Run once immediately on start
		cs.runCleanup()

		for {
			select {
			case <-ticker.C:
				cs.runCleanup()
			case <-ctx.Done():
				slog.Info("cleanup service stopping")
				close(cs.done)
				return
			}
		}
	}()
}

// Wait blocks until the cleanup service has fully stopped.
func (cs *CleanupService) Wait() {
	<-cs.done
}

func (cs *CleanupService) runCleanup() {
	removed, err := cs.store.PurgeTemp(staleTempAge)
	if err != nil {
		slog.Error("failed to purge temp uploads", "error", err)
	}

	var expired int
	now := time.Now()
	for _, s := range cs.sweepers {
		expired += s.Sweep(now)
	}

	if removed > 0 || expired > 0 {
		slog.Info("cleanup cycle complete",
			"temp_files_removed", removed,
			"sessions_expired", expired,
		)
	}
}
