package intel

import (
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/bnf/intelscope/pkg/domain"
)

// stripPolicy removes all HTML from RSS-sourced text; descriptions in the
// wild carry markup and tracking pixels
var stripPolicy = bluemonday.StrictPolicy()

// MapNewsArticle maps an RSS/Atom entry from a configured legal-news feed
// into the unified item model. News items carry no regulatory grading and
// rank low.
func MapNewsArticle(feedName string, entry *gofeed.Item, now time.Time) domain.Item {
	title := strings.TrimSpace(stripPolicy.Sanitize(entry.Title))
	if title == "" {
		title = "Untitled"
	}

	description := strings.TrimSpace(stripPolicy.Sanitize(entry.Description))
	if description == "" {
		description = strings.TrimSpace(stripPolicy.Sanitize(entry.Content))
	}
	if description == "" {
		description = "Legal news coverage."
	}

	guid := entry.GUID
	if guid == "" {
		guid = entry.Link
	}

	var dateField string
	if entry.PublishedParsed != nil {
		dateField = entry.PublishedParsed.UTC().Format(time.RFC3339)
	} else if entry.UpdatedParsed != nil {
		dateField = entry.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	var author string
	if len(entry.Authors) > 0 && entry.Authors[0] != nil {
		author = entry.Authors[0].Name
	}

	meta := map[string]any{}
	setMeta(meta, "feed", feedName)
	setMeta(meta, "author", author)
	if len(entry.Categories) > 0 {
		meta["categories"] = entry.Categories
	}

	return domain.Item{
		ID:          "news-" + guid,
		Title:       Truncate(title, titleMax),
		Description: Truncate(description, descriptionMax),
		Type:        domain.TypeNews,
		Source:      feedName,
		SourceKey:   "news",
		Severity:    domain.SeverityLow,
		Entities:    FilterEntities(author, feedName),
		Date:        isoDate(dateField, now),
		Timestamp:   RelativeTime(now, dateField),
		URL:         entry.Link,
		Meta:        meta,
	}
}
