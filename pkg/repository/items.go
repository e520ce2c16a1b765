package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"

	"github.com/bnf/intelscope/pkg/domain"
	"github.com/bnf/intelscope/pkg/intel"
)

// dbItem is the intel_items row shape
type dbItem struct {
	ID          string     `db:"id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Type        string     `db:"type"`
	Source      string     `db:"source"`
	SourceKey   string     `db:"source_key"`
	Severity    string     `db:"severity"`
	Entities    entityList `db:"entities"`
	Date        string     `db:"date"`
	URL         string     `db:"url"`
	Meta        metaBag    `db:"meta"`
	FirstSeenAt time.Time  `db:"first_seen_at"`
	LastSeenAt  time.Time  `db:"last_seen_at"`
}

// SaveItems upserts a batch of mapped items keyed by their stable ids.
// Re-fetching the same upstream record refreshes the row instead of
// duplicating it. SQLite lock errors are retried with backoff.
func (r *Repository) SaveItems(ctx context.Context, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO intel_items (
			id, title, description, type, source, source_key, severity,
			entities, date, url, meta, first_seen_at, last_seen_at
		) VALUES (
			:id, :title, :description, :type, :source, :source_key, :severity,
			:entities, :date, :url, :meta, datetime('now'), datetime('now')
		)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			severity = excluded.severity,
			entities = excluded.entities,
			date = excluded.date,
			url = excluded.url,
			meta = excluded.meta,
			last_seen_at = datetime('now')
	`

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	return retrier.Do(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			if isLockError(err) {
				return err
			}
			return fmt.Errorf("begin save items: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		for _, item := range items {
			row := dbItem{
				ID:          item.ID,
				Title:       item.Title,
				Description: item.Description,
				Type:        string(item.Type),
				Source:      item.Source,
				SourceKey:   item.SourceKey,
				Severity:    string(item.Severity),
				Entities:    entityList(item.Entities),
				Date:        item.Date,
				URL:         item.URL,
				Meta:        metaBag(item.Meta),
			}
			if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
				if isLockError(err) {
					return err // repeater will retry this
				}
				return fmt.Errorf("save item %s: %w", item.ID, err)
			}
		}

		if err := tx.Commit(); err != nil {
			if isLockError(err) {
				return err
			}
			return fmt.Errorf("commit save items: %w", err)
		}
		return nil
	})
}

// GetRecentItems returns stored items sorted by date descending, optionally
// limited to one source key. Timestamp is recomputed on read since it is a
// display cache of Date, never persisted on its own.
func (r *Repository) GetRecentItems(ctx context.Context, limit int, sourceKey string) ([]domain.Item, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT * FROM intel_items ORDER BY date DESC LIMIT ?`
	args := []any{limit}
	if sourceKey != "" {
		query = `SELECT * FROM intel_items WHERE source_key = ? ORDER BY date DESC LIMIT ?`
		args = []any{sourceKey, limit}
	}

	var rows []dbItem
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get recent items: %w", err)
	}

	now := time.Now()
	items := make([]domain.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.Item{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			Type:        domain.ItemType(row.Type),
			Source:      row.Source,
			SourceKey:   row.SourceKey,
			Severity:    domain.Severity(row.Severity),
			Entities:    []string(row.Entities),
			Date:        row.Date,
			Timestamp:   intel.RelativeTime(now, row.Date),
			URL:         row.URL,
			Meta:        map[string]any(row.Meta),
		})
	}
	return items, nil
}

// CountBySource returns stored item counts per source key
func (r *Repository) CountBySource(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		SourceKey string `db:"source_key"`
		Count     int    `db:"count"`
	}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT source_key, COUNT(*) AS count FROM intel_items GROUP BY source_key`)
	if err != nil {
		return nil, fmt.Errorf("count by source: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.SourceKey] = row.Count
	}
	return counts, nil
}
