package intel

import (
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"

	"github.com/bnf/intelscope/pkg/domain"
)

func TestMapNewsArticle(t *testing.T) {
	published := time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC)

	t.Run("complete entry", func(t *testing.T) {
		entry := &gofeed.Item{
			Title:           "Firm settles <b>class action</b>",
			Description:     "<p>Settlement reached for $5M.</p><img src=\"track.gif\">",
			Link:            "https://news.example.com/article1",
			GUID:            "guid-1",
			PublishedParsed: &published,
			Authors:         []*gofeed.Person{{Name: "Jane Reporter"}},
			Categories:      []string{"litigation"},
		}
		item := MapNewsArticle("Law360", entry, testNow)

		assert.Equal(t, "news-guid-1", item.ID)
		assert.Equal(t, "Firm settles class action", item.Title, "html stripped")
		assert.Equal(t, "Settlement reached for $5M.", item.Description)
		assert.Equal(t, domain.TypeNews, item.Type)
		assert.Equal(t, "Law360", item.Source)
		assert.Equal(t, "news", item.SourceKey)
		assert.Equal(t, domain.SeverityLow, item.Severity)
		assert.Equal(t, []string{"Jane Reporter", "Law360"}, item.Entities)
		assert.Equal(t, "2024-06-14T09:00:00Z", item.Date)
		assert.Equal(t, "https://news.example.com/article1", item.URL)
		assert.Equal(t, "Law360", item.Meta["feed"])
		assert.Equal(t, []string{"litigation"}, item.Meta["categories"])
	})

	t.Run("guid falls back to link", func(t *testing.T) {
		entry := &gofeed.Item{Title: "t", Link: "https://x/y"}
		item := MapNewsArticle("Feed", entry, testNow)
		assert.Equal(t, "news-https://x/y", item.ID)
	})

	t.Run("empty entry degrades", func(t *testing.T) {
		item := MapNewsArticle("Feed", &gofeed.Item{}, testNow)
		assert.Equal(t, "Untitled", item.Title)
		assert.Equal(t, "Legal news coverage.", item.Description)
		assert.Equal(t, testNow.UTC().Format(time.RFC3339), item.Date)
	})

	t.Run("description falls back to content", func(t *testing.T) {
		entry := &gofeed.Item{Title: "t", Content: "<div>Body text</div>"}
		item := MapNewsArticle("Feed", entry, testNow)
		assert.Equal(t, "Body text", item.Description)
	})
}
