package intel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseWhen(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{name: "rfc3339", input: "2024-01-15T10:30:00Z", expected: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{name: "rfc3339 with nanos", input: "2024-01-15T10:30:00.123456789Z", expected: time.Date(2024, 1, 15, 10, 30, 0, 123456789, time.UTC)},
		{name: "no zone", input: "2024-01-15T10:30:00", expected: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{name: "space separated", input: "2024-01-15 10:30:00", expected: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{name: "date only", input: "2024-01-15", expected: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "empty", input: "", expected: time.Time{}},
		{name: "garbage", input: "not-a-date", expected: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(ParseWhen(tt.input)))
		})
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		date     string
		expected string
	}{
		{name: "just now", date: "2024-06-15T11:59:30Z", expected: "now"},
		{name: "minutes", date: "2024-06-15T11:15:00Z", expected: "45m"},
		{name: "hours", date: "2024-06-15T07:00:00Z", expected: "5h"},
		{name: "days", date: "2024-06-12T12:00:00Z", expected: "3d"},
		{name: "weeks", date: "2024-05-28T12:00:00Z", expected: "2w"},
		{name: "older than four weeks", date: "2024-03-01T12:00:00Z", expected: "Mar 1"},
		{name: "empty date", date: "", expected: ""},
		{name: "unparseable date", date: "whenever", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RelativeTime(now, tt.date))
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Jan 2, 2024", FormatDate("2024-01-02T15:04:05Z"))
	assert.Equal(t, "Dec 31, 2023", FormatDate("2023-12-31"))
	assert.Equal(t, "", FormatDate(""))
	assert.Equal(t, "", FormatDate("bogus"))
}

func TestTruncate(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", Truncate("hello", 120))
	})

	t.Run("exact length unchanged", func(t *testing.T) {
		text := ""
		for i := 0; i < 120; i++ {
			text += "a"
		}
		assert.Equal(t, text, Truncate(text, 120))
		assert.Len(t, []rune(Truncate(text, 120)), 120)
	})

	t.Run("long text capped with ellipsis", func(t *testing.T) {
		text := ""
		for i := 0; i < 200; i++ {
			text += "a"
		}
		got := Truncate(text, 120)
		runes := []rune(got)
		assert.LessOrEqual(t, len(runes), 120)
		assert.Equal(t, '…', runes[len(runes)-1])
	})

	t.Run("trailing space trimmed before ellipsis", func(t *testing.T) {
		got := Truncate("abcd efgh", 6)
		assert.Equal(t, "abcd…", got)
	})

	t.Run("multibyte runes counted as one", func(t *testing.T) {
		text := ""
		for i := 0; i < 150; i++ {
			text += "é"
		}
		got := Truncate(text, 120)
		assert.LessOrEqual(t, len([]rune(got)), 120)
	})
}

func TestFilterEntities(t *testing.T) {
	assert.Equal(t, []string{"Acme", "drug"}, FilterEntities("Acme", "", "drug", "   "))
	assert.Empty(t, FilterEntities("", " "))
	assert.Equal(t, []string{"first", "second"}, FilterEntities("first", "second"), "order preserved")
}
