// Package scheduler keeps the aggregated feed warm: it refreshes all intel
// sources and agency summaries on an interval and persists each cycle's
// mapped items to the history store.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bnf/intelscope/pkg/aggregator"
	"github.com/bnf/intelscope/pkg/domain"
	"github.com/bnf/intelscope/pkg/repository"
)

// FeedAggregator refreshes intel sources and exposes the merged feed
type FeedAggregator interface {
	Refresh(ctx context.Context)
	Feed() aggregator.Feed
}

// SummaryUpdater refreshes agency summaries
type SummaryUpdater interface {
	Refresh(ctx context.Context)
}

// HistoryStore persists refresh-cycle results. May be nil to disable
// persistence.
type HistoryStore interface {
	SaveItems(ctx context.Context, items []domain.Item) error
	RecordSync(ctx context.Context, rec repository.SyncRecord) error
}

// Scheduler runs periodic refresh cycles
type Scheduler struct {
	feed      FeedAggregator
	summaries SummaryUpdater
	store     HistoryStore
	interval  time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New creates a scheduler. Interval defaults to 5 minutes.
func New(feed FeedAggregator, summaries SummaryUpdater, store HistoryStore, interval time.Duration) *Scheduler {
	if interval == 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		feed:      feed,
		summaries: summaries,
		store:     store,
		interval:  interval,
	}
}

// Start begins the refresh worker. The first cycle runs immediately so the
// feed is populated before the first request lands.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.worker(ctx)

	lgr.Printf("[INFO] scheduler started with refresh interval %v", s.interval)
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// worker runs refresh cycles until the context is canceled
func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle refreshes feed and summaries concurrently, then persists the
// cycle's results
func (s *Scheduler) runCycle(ctx context.Context) {
	cycleID := uuid.New().String()
	started := time.Now()
	lgr.Printf("[DEBUG] refresh cycle %s started", cycleID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.feed.Refresh(gctx)
		return nil
	})
	if s.summaries != nil {
		g.Go(func() error {
			s.summaries.Refresh(gctx)
			return nil
		})
	}
	_ = g.Wait() // refreshes never return errors, failures are telemetry

	feed := s.feed.Feed()
	lgr.Printf("[INFO] refresh cycle %s: %d items from %d/%d sources, %d errors",
		cycleID, len(feed.Items), feed.LoadedCount, feed.TotalSources, feed.ErrorCount)

	if s.store == nil {
		return
	}

	if err := s.store.SaveItems(ctx, feed.Items); err != nil {
		lgr.Printf("[WARN] failed to persist cycle %s items: %v", cycleID, err)
		return
	}

	rec := repository.SyncRecord{
		ID:           cycleID,
		StartedAt:    started,
		FinishedAt:   time.Now(),
		TotalSources: feed.TotalSources,
		ErrorCount:   feed.ErrorCount,
		ItemCount:    len(feed.Items),
	}
	if err := s.store.RecordSync(ctx, rec); err != nil {
		lgr.Printf("[WARN] failed to record cycle %s: %v", cycleID, err)
	}
}

// RefreshNow triggers an immediate refresh cycle
func (s *Scheduler) RefreshNow(ctx context.Context) {
	s.runCycle(ctx)
}
