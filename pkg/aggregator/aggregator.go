// Package aggregator fans out one fetch per intel source, normalizes every
// payload through its source mapper and merges the results into a single
// date-sorted feed with per-source status telemetry. Failure of one source
// or one record never takes down the rest of the feed.
package aggregator

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/bnf/intelscope/pkg/domain"
	"github.com/bnf/intelscope/pkg/intel"
)

// Getter performs upstream API calls, returning decoded JSON payloads
type Getter interface {
	Get(ctx context.Context, path string, params url.Values) (any, error)
}

// NewsFeed is an optional RSS source of legal-news coverage
type NewsFeed struct {
	Name string
	URL  string
}

// Config holds aggregator tuning
type Config struct {
	Days         int           // lookback window passed to sources that honor since_date
	PerPage      int           // page size requested from every source
	StaleTTL     time.Duration // a source fresher than this is skipped on Refresh
	FetchTimeout time.Duration // per-attempt timeout for one source fetch
	RetryDelay   time.Duration // pause before the single retry
	NewsFeeds    []NewsFeed    // optional extra RSS pipelines
}

// SourceStatus reflects one pipeline's state independently of the others
type SourceStatus struct {
	Key       string `json:"key"`
	IsLoading bool   `json:"isLoading"`
	IsError   bool   `json:"isError"`
	Error     string `json:"error,omitempty"`
	ItemCount int    `json:"itemCount"`
}

// Telemetry is the aggregate progress view folded from per-source states
type Telemetry struct {
	IsLoading    bool           `json:"isLoading"`
	IsAllLoaded  bool           `json:"isAllLoaded"`
	LoadedCount  int            `json:"loadedCount"`
	TotalSources int            `json:"totalSources"`
	ErrorCount   int            `json:"errorCount"`
	Sources      []SourceStatus `json:"sources"`
}

// Feed is the merged, date-descending view over all resolved sources
type Feed struct {
	Items []domain.Item `json:"items"`
	Telemetry
}

// pipeline is one independently-fetched unit of the fan-out
type pipeline struct {
	key   string
	fetch func(ctx context.Context, since string) (items []domain.Item, skipped int, err error)
}

// sourceState tracks one pipeline through idle -> pending -> settled
type sourceState struct {
	loading   bool
	settled   bool
	err       error
	items     []domain.Item
	fetchedAt time.Time
}

// Aggregator owns the pipeline fan-out and the cached per-source results.
// Results are immutable once stored; the merged feed is recomputed from
// them on every read, so no locking beyond the state map is needed.
type Aggregator struct {
	client    Getter
	cfg       Config
	pipelines []pipeline
	nowFn     func() time.Time

	mu     sync.RWMutex
	states map[string]*sourceState
}

// New creates an aggregator over the fixed source table plus any configured
// news feeds
func New(client Getter, cfg Config) *Aggregator {
	if cfg.Days == 0 {
		cfg.Days = 7
	}
	if cfg.PerPage == 0 {
		cfg.PerPage = 10
	}
	if cfg.StaleTTL == 0 {
		cfg.StaleTTL = 3 * time.Minute
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}

	a := &Aggregator{
		client: client,
		cfg:    cfg,
		nowFn:  time.Now,
		states: make(map[string]*sourceState),
	}

	for _, src := range Sources() {
		a.pipelines = append(a.pipelines, a.apiPipeline(src))
	}
	for _, nf := range cfg.NewsFeeds {
		a.pipelines = append(a.pipelines, a.newsPipeline(nf))
	}

	for _, p := range a.pipelines {
		a.states[p.key] = &sourceState{}
	}

	return a
}

// apiPipeline builds the fetch unit for one backend API source
func (a *Aggregator) apiPipeline(src Source) pipeline {
	return pipeline{
		key: src.Key,
		fetch: func(ctx context.Context, since string) ([]domain.Item, int, error) {
			params := url.Values{}
			params.Set("per_page", strconv.Itoa(a.cfg.PerPage))
			if src.SinceFilter && since != "" {
				params.Set("since_date", since)
			}

			data, err := a.client.Get(ctx, src.Path, params)
			if err != nil {
				return nil, 0, err
			}

			recs := intel.ExtractItems(data, src.ExtractKeys...)
			items, skipped := safeMap(src.Key, recs, src.Map, a.nowFn())
			return items, skipped, nil
		},
	}
}

// newsPipeline builds the fetch unit for one configured RSS feed
func (a *Aggregator) newsPipeline(nf NewsFeed) pipeline {
	parser := gofeed.NewParser()
	return pipeline{
		key: "news:" + nf.Name,
		fetch: func(ctx context.Context, _ string) ([]domain.Item, int, error) {
			feed, err := parser.ParseURLWithContext(nf.URL, ctx)
			if err != nil {
				return nil, 0, fmt.Errorf("parse news feed %s: %w", nf.URL, err)
			}
			now := a.nowFn()
			items := make([]domain.Item, 0, len(feed.Items))
			for _, entry := range feed.Items {
				items = append(items, intel.MapNewsArticle(nf.Name, entry, now))
			}
			return items, 0, nil
		},
	}
}

// Refresh fetches every source that is stale or has never loaded. All
// fetches run concurrently; each gets one retry. Errors are recorded in the
// source's own state, never returned — failure is data here.
func (a *Aggregator) Refresh(ctx context.Context) {
	a.refresh(ctx, false)
}

// RefetchAll re-triggers every source fetch regardless of freshness
func (a *Aggregator) RefetchAll(ctx context.Context) {
	a.refresh(ctx, true)
}

func (a *Aggregator) refresh(ctx context.Context, force bool) {
	// the since boundary is computed once per refresh cycle
	since := a.nowFn().AddDate(0, 0, -a.cfg.Days).UTC().Format(time.RFC3339)

	var scheduled []pipeline
	a.mu.Lock()
	for _, p := range a.pipelines {
		st := a.states[p.key]
		if st.loading {
			continue
		}
		if !force && st.settled && st.err == nil && a.nowFn().Sub(st.fetchedAt) < a.cfg.StaleTTL {
			continue
		}
		st.loading = true
		scheduled = append(scheduled, p)
	}
	a.mu.Unlock()

	if len(scheduled) == 0 {
		return
	}
	lgr.Printf("[DEBUG] refreshing %d intel sources", len(scheduled))

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range scheduled {
		g.Go(func() error {
			a.fetchSource(ctx, p, since)
			return nil
		})
	}
	_ = g.Wait() // pipelines never return errors, failures land in states
}

// fetchSource runs one pipeline with a single retry and settles its state
func (a *Aggregator) fetchSource(ctx context.Context, p pipeline, since string) {
	var items []domain.Item
	var skipped int

	retrier := repeater.NewFixed(2, a.cfg.RetryDelay)
	err := retrier.Do(ctx, func() error {
		fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
		defer cancel()

		var ferr error
		items, skipped, ferr = p.fetch(fetchCtx, since)
		return ferr
	})

	a.mu.Lock()
	st := a.states[p.key]
	st.loading = false
	st.settled = true
	st.fetchedAt = a.nowFn()
	if err != nil {
		st.err = err
		st.items = nil
		a.mu.Unlock()
		lgr.Printf("[WARN] source %s failed after retry: %v", p.key, err)
		return
	}
	st.err = nil
	st.items = items
	a.mu.Unlock()

	if skipped > 0 {
		lgr.Printf("[WARN] source %s: skipped %d unmappable records", p.key, skipped)
	}
	lgr.Printf("[DEBUG] source %s: %d items", p.key, len(items))
}

// Feed returns the merged feed sorted by date descending plus telemetry.
// The result is a snapshot; stored per-source results are never mutated.
func (a *Aggregator) Feed() Feed {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var all []domain.Item
	statuses := make([]SourceStatus, 0, len(a.pipelines))
	loaded, errors := 0, 0
	anyLoading, allSettled := false, true

	for _, p := range a.pipelines {
		st := a.states[p.key]
		status := SourceStatus{Key: p.key, IsLoading: st.loading, ItemCount: len(st.items)}
		if st.err != nil {
			status.IsError = true
			status.Error = st.err.Error()
			errors++
		}
		if st.loading {
			anyLoading = true
		}
		if !st.settled || st.loading {
			allSettled = false
		} else {
			loaded++
		}
		all = append(all, st.items...)
		statuses = append(statuses, status)
	}

	// most recent first, stable so equal dates keep source order
	sort.SliceStable(all, func(i, j int) bool {
		return intel.ParseWhen(all[i].Date).After(intel.ParseWhen(all[j].Date))
	})

	return Feed{
		Items: all,
		Telemetry: Telemetry{
			IsLoading:    anyLoading,
			IsAllLoaded:  allSettled,
			LoadedCount:  loaded,
			TotalSources: len(a.pipelines),
			ErrorCount:   errors,
			Sources:      statuses,
		},
	}
}
