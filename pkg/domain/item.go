package domain

// ItemType categorizes a piece of market intelligence
type ItemType string

// intelligence categories
const (
	TypeRegulatory ItemType = "regulatory"
	TypeNews       ItemType = "news"
	TypeSocial     ItemType = "social"
	TypeFiling     ItemType = "filing"
	TypeAd         ItemType = "ad"
)

// Severity ranks the urgency of an intel item
type Severity string

// severity levels, most urgent first
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns a numeric order for severity, lower is more urgent.
// Unknown severities sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	}
	return 4
}

// Valid reports whether the severity is one of the four known levels
func (s Severity) Valid() bool {
	return s.Rank() < 4
}

// Item is the unified market-intelligence record every source maps into.
// ID is stable across repeated fetches of the same upstream record, built
// as "{source prefix}-{native id}". Date is the canonical event time in
// ISO-8601 form; Timestamp is a display-only relative rendering of Date,
// recomputed on every mapping and never persisted on its own.
type Item struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Type        ItemType       `json:"type"`
	Source      string         `json:"source"`
	SourceKey   string         `json:"sourceKey"`
	Severity    Severity       `json:"severity"`
	Entities    []string       `json:"entities"`
	Date        string         `json:"date"`
	Timestamp   string         `json:"timestamp"`
	URL         string         `json:"url,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}
