package domain

// AgencySummary holds the stats payload from one agency /summary endpoint.
// Shapes differ per agency (some keys shared like total_*, *_last_7_days,
// last_sync_at; others agency-specific) so the record is passed through
// untouched rather than forced into a rigid schema.
type AgencySummary map[string]any

// Summaries aggregates the four agency summary payloads. A slot stays nil
// until its own fetch resolves; a failed fetch leaves it nil.
type Summaries struct {
	CFPB  AgencySummary `json:"cfpb"`
	FDA   AgencySummary `json:"fda"`
	NHTSA AgencySummary `json:"nhtsa"`
	FTC   AgencySummary `json:"ftc"`
}
