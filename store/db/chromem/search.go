package chromem

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/recollect/store"
)

// SearchKeyword matches the query terms against the summary field only and
// ranks by term frequency. The embedded driver has no BM25; the score is the
// total occurrence count of the query terms, which preserves the ranking
// contract (higher is better) without pretending to be a calibrated score.
func (d *DB) SearchKeyword(_ context.Context, tenant, query string, topK int) ([]store.SummaryHit, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.tenants[tenant]
	if !ok {
		return []store.SummaryHit{}, nil
	}

	hits := []store.SummaryHit{}
	for _, record := range p.records {
		rank := termFrequency(record.Summary, query)
		if rank <= 0 {
			continue
		}
		score := rank
		hits = append(hits, store.SummaryHit{Summary: cloneSummary(record), Score: &score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if *hits[i].Score != *hits[j].Score {
			return *hits[i].Score > *hits[j].Score
		}
		return hits[i].Summary.ID < hits[j].Summary.ID
	})
	return capHits(hits, topK), nil
}

// SearchVector performs nearest-neighbor search against the tenant's
// collection. Only hits with cosine distance strictly below maxDistance are
// returned, closest first.
func (d *DB) SearchVector(ctx context.Context, tenant string, vector []float32, maxDistance float64, topK int) ([]store.SummaryHit, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.tenants[tenant]
	if !ok {
		return []store.SummaryHit{}, nil
	}

	distances, err := d.nearest(ctx, p, vector, topK)
	if err != nil {
		return nil, err
	}

	hits := []store.SummaryHit{}
	for id, distance := range distances {
		record, ok := p.records[id]
		if !ok {
			continue
		}
		if distance >= maxDistance {
			continue
		}
		dist := distance
		hits = append(hits, store.SummaryHit{Summary: cloneSummary(record), Distance: &dist})
	}

	sort.Slice(hits, func(i, j int) bool {
		if *hits[i].Distance != *hits[j].Distance {
			return *hits[i].Distance < *hits[j].Distance
		}
		return hits[i].Summary.ID < hits[j].Summary.ID
	})
	return capHits(hits, topK), nil
}

// SearchHybrid fuses the vector leg (bounded by maxDistance) with the term
// match on summary, using the same half-and-half fusion as the postgres
// driver: 0.5*(1-distance) for the vector leg, 0.5*min(rank,1) for keywords.
func (d *DB) SearchHybrid(ctx context.Context, tenant, query string, vector []float32, maxDistance float64, topK int) ([]store.SummaryHit, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.tenants[tenant]
	if !ok {
		return []store.SummaryHit{}, nil
	}

	distances, err := d.nearest(ctx, p, vector, topK)
	if err != nil {
		return nil, err
	}

	type fused struct {
		distance *float64
		score    float64
	}
	byID := map[string]*fused{}

	for id, distance := range distances {
		if distance >= maxDistance {
			continue
		}
		dist := distance
		byID[id] = &fused{distance: &dist, score: 0.5 * (1 - distance)}
	}
	for id, record := range p.records {
		rank := termFrequency(record.Summary, query)
		if rank <= 0 {
			continue
		}
		if rank > 1 {
			rank = 1
		}
		if f, ok := byID[id]; ok {
			f.score += 0.5 * rank
		} else {
			byID[id] = &fused{score: 0.5 * rank}
		}
	}

	hits := []store.SummaryHit{}
	for id, f := range byID {
		record, ok := p.records[id]
		if !ok {
			continue
		}
		score := f.score
		hits = append(hits, store.SummaryHit{
			Summary:  cloneSummary(record),
			Score:    &score,
			Distance: f.distance,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if *hits[i].Score != *hits[j].Score {
			return *hits[i].Score > *hits[j].Score
		}
		return hits[i].Summary.ID < hits[j].Summary.ID
	})
	return capHits(hits, topK), nil
}

// nearest queries the collection and returns cosine distance by record id.
// chromem rejects result counts above the collection size, so the request is
// clamped first.
func (d *DB) nearest(ctx context.Context, p *partition, vector []float32, topK int) (map[string]float64, error) {
	n := topK
	if size := p.collection.Count(); n > size {
		n = size
	}
	if n <= 0 {
		return map[string]float64{}, nil
	}

	results, err := p.collection.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query collection")
	}

	distances := make(map[string]float64, len(results))
	for _, result := range results {
		distances[result.ID] = 1 - float64(result.Similarity)
	}
	return distances, nil
}

// termFrequency counts occurrences of the query terms in the summary text,
// case-insensitively.
func termFrequency(summary, query string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}
	text := strings.ToLower(summary)
	total := 0
	for _, term := range terms {
		total += strings.Count(text, term)
	}
	return float64(total)
}

func capHits(hits []store.SummaryHit, topK int) []store.SummaryHit {
	if topK > 0 && topK < len(hits) {
		hits = hits[:topK]
	}
	return hits
}
