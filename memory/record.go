package memory

import (
	"time"

	"github.com/hrygo/recollect/store"
)

// timeLayout is the wire format for record timestamps, rendered in the
// server's local zone.
const timeLayout = "2006-01-02 15:04:05"

// Record is the wire representation of one stored summary. Merged stays
// null for records that were never produced by a merge.
type Record struct {
	UUID      string                `json:"uuid"`
	Summary   string                `json:"summary"`
	Turn      *int                  `json:"turn"`
	Type      *string               `json:"type"`
	Merged    []store.MergedSummary `json:"merged_summary"`
	CreatedAt *string               `json:"created_at"`
	UpdatedAt *string               `json:"updated_at"`

	// Score and Distance are populated by search results only; whichever
	// the search mode does not produce stays null on the wire.
	Score    *float64 `json:"score"`
	Distance *float64 `json:"distance"`
}

// Page is the listing envelope. Total is the tenant's full record count for
// paged listings, or the number of hits for searches.
type Page struct {
	Total int      `json:"total"`
	Data  []Record `json:"data"`
}

func formatTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Local().Format(timeLayout)
	return &s
}

func toRecord(s *store.Summary) Record {
	return Record{
		UUID:      s.ID,
		Summary:   s.Summary,
		Turn:      s.Turn,
		Type:      s.Type,
		Merged:    s.Merged,
		CreatedAt: formatTime(s.CreatedAt),
		UpdatedAt: formatTime(s.UpdatedAt),
	}
}

func toHitRecord(hit store.SummaryHit) Record {
	record := toRecord(hit.Summary)
	record.Score = hit.Score
	record.Distance = hit.Distance
	return record
}

func toRecords(list []*store.Summary) []Record {
	records := make([]Record, 0, len(list))
	for _, s := range list {
		records = append(records, toRecord(s))
	}
	return records
}
