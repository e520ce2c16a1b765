package aggregator

import (
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/bnf/intelscope/pkg/domain"
	"github.com/bnf/intelscope/pkg/intel"
)

// safeMap applies the mapper to every record, skipping any single record
// whose mapping panics. One bad record must never drop a whole source, so
// the skip is logged and the rest of the batch still makes the feed.
func safeMap(key string, recs []intel.Raw, mapper intel.Mapper, now time.Time) (items []domain.Item, skipped int) {
	items = make([]domain.Item, 0, len(recs))
	for _, rec := range recs {
		item, ok := mapOne(key, rec, mapper, now)
		if !ok {
			skipped++
			continue
		}
		items = append(items, item)
	}
	return items, skipped
}

// mapOne maps a single record, converting a mapper panic into a skip
func mapOne(key string, rec intel.Raw, mapper intel.Mapper, now time.Time) (item domain.Item, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			lgr.Printf("[WARN] mapper for %s failed on record, skipping: %v", key, r)
			ok = false
		}
	}()
	return mapper(rec, now), true
}
