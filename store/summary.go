package store

import "time"

// Summary is a stored unit of conversational memory: the summary text, its
// embedding, and the provenance of any prior summaries folded into it.
type Summary struct {
	ID        string
	Tenant    string
	Summary   string
	Turn      *int
	Type      *string
	Merged    []MergedSummary
	Embedding []float32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MergedSummary records one prior summary absorbed during consolidation.
// The list on a record is written once at creation and never mutated.
type MergedSummary struct {
	Summary string `json:"summary"`
	Turn    *int   `json:"turn"`
}

// UpdateSummary specifies a full text replacement for one record.
// Embedding must be the embedding of the new Summary text; the driver writes
// both in a single statement so text and vector never diverge.
type UpdateSummary struct {
	ID        string
	Tenant    string
	Summary   string
	Turn      *int
	Type      *string
	Embedding []float32
}

// FindSummary specifies the conditions for listing summaries.
type FindSummary struct {
	Tenant string

	// ByID switches ordering from updated-time descending (the default) to
	// ID ascending, which is the stable order used by cursor pagination.
	ByID bool

	// AfterID resumes an ID-ordered listing after the given record.
	// Only meaningful together with ByID.
	AfterID string

	Limit  int
	Offset int
}

// SummaryHit is one ranked search result. Score is set by keyword and hybrid
// search, Distance by similarity and hybrid search; the unused one is nil.
type SummaryHit struct {
	Summary  *Summary
	Score    *float64
	Distance *float64
}

// TenantInfo describes one tenant partition. DataCount is computed at call
// time, not cached.
type TenantInfo struct {
	Name           string `json:"name"`
	DataCount      int    `json:"data_count"`
	ActivityStatus string `json:"activity_status"`
}
