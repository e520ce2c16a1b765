package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"golang.org/x/sync/errgroup"

	"github.com/bnf/intelscope/pkg/domain"
)

// summaryEndpoints maps each agency slot to its summary path. Payloads are
// opaque pass-through, no merging across agencies.
var summaryEndpoints = []struct {
	key  string
	path string
}{
	{"cfpb", "/cfpb/summary"},
	{"fda", "/fda/summary"},
	{"nhtsa", "/nhtsa/summary"},
	{"ftc", "/ftc/summary"},
}

// summaryState tracks one agency summary fetch
type summaryState struct {
	loading   bool
	data      domain.AgencySummary
	fetchedAt time.Time
}

// SummaryAggregator fetches the four agency summary endpoints with the
// same per-source independence as the feed: one retry each, a failed fetch
// just leaves its slot nil.
type SummaryAggregator struct {
	client       Getter
	staleTTL     time.Duration
	fetchTimeout time.Duration
	retryDelay   time.Duration

	mu     sync.RWMutex
	states map[string]*summaryState
}

// NewSummaries creates a summary aggregator sharing the feed's client
func NewSummaries(client Getter, cfg Config) *SummaryAggregator {
	staleTTL := cfg.StaleTTL
	if staleTTL == 0 {
		staleTTL = 5 * time.Minute
	}
	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = 15 * time.Second
	}
	retryDelay := cfg.RetryDelay
	if retryDelay == 0 {
		retryDelay = time.Second
	}

	s := &SummaryAggregator{
		client:       client,
		staleTTL:     staleTTL,
		fetchTimeout: fetchTimeout,
		retryDelay:   retryDelay,
		states:       make(map[string]*summaryState),
	}
	for _, ep := range summaryEndpoints {
		s.states[ep.key] = &summaryState{}
	}
	return s
}

// Refresh fetches stale agency summaries concurrently. Failures are logged
// and leave the slot as it was; nothing propagates to the caller.
func (s *SummaryAggregator) Refresh(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)

	for _, ep := range summaryEndpoints {
		s.mu.Lock()
		st := s.states[ep.key]
		if st.loading || (st.data != nil && time.Since(st.fetchedAt) < s.staleTTL) {
			s.mu.Unlock()
			continue
		}
		st.loading = true
		s.mu.Unlock()

		g.Go(func() error {
			s.fetchSummary(ctx, ep.key, ep.path)
			return nil
		})
	}

	_ = g.Wait()
}

// fetchSummary runs one agency fetch with a single retry
func (s *SummaryAggregator) fetchSummary(ctx context.Context, key, path string) {
	var data any

	retrier := repeater.NewFixed(2, s.retryDelay)
	err := retrier.Do(ctx, func() error {
		fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()

		var ferr error
		data, ferr = s.client.Get(fetchCtx, path, nil)
		return ferr
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[key]
	st.loading = false
	if err != nil {
		lgr.Printf("[WARN] summary %s failed after retry: %v", key, err)
		return
	}
	if m, ok := data.(map[string]any); ok {
		st.data = domain.AgencySummary(m)
		st.fetchedAt = time.Now()
		return
	}
	lgr.Printf("[WARN] summary %s: unexpected payload shape", key)
}

// Summaries returns the current slots and whether any fetch is pending.
// A slot is nil until its own fetch resolves.
func (s *SummaryAggregator) Summaries() (domain.Summaries, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	isLoading := false
	for _, st := range s.states {
		if st.loading {
			isLoading = true
		}
	}

	return domain.Summaries{
		CFPB:  s.states["cfpb"].data,
		FDA:   s.states["fda"].data,
		NHTSA: s.states["nhtsa"].data,
		FTC:   s.states["ftc"].data,
	}, isLoading
}
