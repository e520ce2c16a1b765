package repository

import (
	"context"
	"fmt"
	"time"
)

// SyncRecord captures one refresh cycle for the audit log
type SyncRecord struct {
	ID           string    `db:"id" json:"id"`
	StartedAt    time.Time `db:"started_at" json:"startedAt"`
	FinishedAt   time.Time `db:"finished_at" json:"finishedAt"`
	TotalSources int       `db:"total_sources" json:"totalSources"`
	ErrorCount   int       `db:"error_count" json:"errorCount"`
	ItemCount    int       `db:"item_count" json:"itemCount"`
}

// RecordSync persists one refresh cycle record
func (r *Repository) RecordSync(ctx context.Context, rec SyncRecord) error {
	query := `
		INSERT INTO sync_log (id, started_at, finished_at, total_sources, error_count, item_count)
		VALUES (:id, :started_at, :finished_at, :total_sources, :error_count, :item_count)
	`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("record sync: %w", err)
	}
	return nil
}

// GetSyncLog returns the most recent refresh cycles, newest first
func (r *Repository) GetSyncLog(ctx context.Context, limit int) ([]SyncRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []SyncRecord
	err := r.db.SelectContext(ctx, &recs,
		`SELECT * FROM sync_log ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get sync log: %w", err)
	}
	return recs, nil
}
