package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnf/intelscope/pkg/domain"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	cfg := Config{
		DSN:             ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: 30 * time.Second,
	}
	repo, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, repo.Close())
	})
	return repo
}

func testItem(id string) domain.Item {
	return domain.Item{
		ID:          id,
		Title:       "FDA Class I: Acme Pharma",
		Description: "Contamination",
		Type:        domain.TypeRegulatory,
		Source:      "FDA",
		SourceKey:   "fda",
		Severity:    domain.SeverityCritical,
		Entities:    []string{"Acme Pharma", "drug"},
		Date:        "2024-06-10T00:00:00Z",
		URL:         "/regulatory/fda/" + id,
		Meta:        map[string]any{"classification": "Class I"},
	}
}

func TestRepository_SaveAndGetItems(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	items := []domain.Item{testItem("fda-1"), testItem("fda-2")}
	items[1].Date = "2024-06-12T00:00:00Z"
	require.NoError(t, repo.SaveItems(ctx, items))

	got, err := repo.GetRecentItems(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// date descending
	assert.Equal(t, "fda-2", got[0].ID)
	assert.Equal(t, "fda-1", got[1].ID)

	// round-trip of the json-backed columns
	assert.Equal(t, []string{"Acme Pharma", "drug"}, got[1].Entities)
	assert.Equal(t, "Class I", got[1].Meta["classification"])
	assert.Equal(t, domain.SeverityCritical, got[1].Severity)
	assert.Equal(t, domain.TypeRegulatory, got[1].Type)
	assert.NotEmpty(t, got[1].Timestamp, "relative timestamp recomputed on read")
}

func TestRepository_SaveItems_Upsert(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	item := testItem("fda-1")
	require.NoError(t, repo.SaveItems(ctx, []domain.Item{item}))

	item.Title = "FDA Class II: Acme Pharma"
	item.Severity = domain.SeverityHigh
	require.NoError(t, repo.SaveItems(ctx, []domain.Item{item}))

	got, err := repo.GetRecentItems(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, got, 1, "same id must not duplicate")
	assert.Equal(t, "FDA Class II: Acme Pharma", got[0].Title)
	assert.Equal(t, domain.SeverityHigh, got[0].Severity)
}

func TestRepository_SaveItems_Empty(t *testing.T) {
	repo := setupTestRepo(t)
	assert.NoError(t, repo.SaveItems(context.Background(), nil))
}

func TestRepository_GetRecentItems_Filters(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	var items []domain.Item
	for i := 0; i < 5; i++ {
		item := testItem(fmt.Sprintf("fda-%d", i))
		item.Date = fmt.Sprintf("2024-06-%02dT00:00:00Z", 10+i)
		items = append(items, item)
	}
	cfpbItem := testItem("cfpb-1")
	cfpbItem.SourceKey = "cfpb"
	cfpbItem.Source = "CFPB"
	items = append(items, cfpbItem)
	require.NoError(t, repo.SaveItems(ctx, items))

	t.Run("limit applied", func(t *testing.T) {
		got, err := repo.GetRecentItems(ctx, 3, "")
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("source filter", func(t *testing.T) {
		got, err := repo.GetRecentItems(ctx, 10, "cfpb")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "cfpb-1", got[0].ID)
	})

	t.Run("zero limit uses default", func(t *testing.T) {
		got, err := repo.GetRecentItems(ctx, 0, "")
		require.NoError(t, err)
		assert.Len(t, got, 6)
	})
}

func TestRepository_CountBySource(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	items := []domain.Item{testItem("fda-1"), testItem("fda-2")}
	cfpbItem := testItem("cfpb-1")
	cfpbItem.SourceKey = "cfpb"
	items = append(items, cfpbItem)
	require.NoError(t, repo.SaveItems(ctx, items))

	counts, err := repo.CountBySource(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["fda"])
	assert.Equal(t, 1, counts["cfpb"])
}

func TestRepository_SyncLog(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	started := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := SyncRecord{
			ID:           fmt.Sprintf("cycle-%d", i),
			StartedAt:    started.Add(time.Duration(i) * time.Hour),
			FinishedAt:   started.Add(time.Duration(i)*time.Hour + time.Minute),
			TotalSources: 9,
			ErrorCount:   i,
			ItemCount:    10 * i,
		}
		require.NoError(t, repo.RecordSync(ctx, rec))
	}

	t.Run("newest first", func(t *testing.T) {
		recs, err := repo.GetSyncLog(ctx, 10)
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, "cycle-2", recs[0].ID)
		assert.Equal(t, 9, recs[0].TotalSources)
		assert.Equal(t, 2, recs[0].ErrorCount)
		assert.Equal(t, 20, recs[0].ItemCount)
	})

	t.Run("limit applied", func(t *testing.T) {
		recs, err := repo.GetSyncLog(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("zero limit uses default", func(t *testing.T) {
		recs, err := repo.GetSyncLog(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, recs, 3)
	})
}
