package memory

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/recollect/metrics"
	"github.com/hrygo/recollect/store"
)

// Mode selects the search strategy.
type Mode string

const (
	ModeKeyword    Mode = "keyword"
	ModeSimilarity Mode = "similarity"
	ModeHybrid     Mode = "hybrid"
)

// SearchRequest describes one search call. TopK falls back to the
// repository's retrieval default when zero. MaxDistance is a pointer so an
// explicit zero, which matches nothing under the strict threshold, stays
// distinct from unset.
type SearchRequest struct {
	Query       string
	Mode        Mode
	TopK        int
	MaxDistance *float64
}

// Search dispatches to the requested strategy. Results carry Score for
// keyword and hybrid hits, Distance for similarity and hybrid hits.
func (r *Repository) Search(ctx context.Context, tenant string, req *SearchRequest) (*Page, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, errors.Wrap(ErrValidation, "query must not be empty")
	}

	topK := req.TopK
	if topK <= 0 {
		topK = r.cfg.RetrievalTopK
	}
	maxDistance := r.cfg.RetrievalDistance
	if req.MaxDistance != nil {
		maxDistance = *req.MaxDistance
	}

	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues(string(req.Mode)).Observe(time.Since(start).Seconds())
	}()

	var hits []store.SummaryHit
	switch req.Mode {
	case ModeKeyword:
		var err error
		hits, err = r.store.SearchKeyword(ctx, tenant, req.Query, topK)
		if err != nil {
			return nil, err
		}
	case ModeSimilarity:
		vector, err := r.embedder.Embed(ctx, req.Query)
		if err != nil {
			return nil, errors.Wrap(ErrEmbedding, err.Error())
		}
		hits, err = r.store.SearchVector(ctx, tenant, vector, maxDistance, topK)
		if err != nil {
			return nil, err
		}
	case ModeHybrid:
		vector, err := r.embedder.Embed(ctx, req.Query)
		if err != nil {
			return nil, errors.Wrap(ErrEmbedding, err.Error())
		}
		hits, err = r.store.SearchHybrid(ctx, tenant, req.Query, vector, maxDistance, topK)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrapf(ErrValidation, "unknown search mode %q", req.Mode)
	}

	data := make([]Record, 0, len(hits))
	for _, hit := range hits {
		data = append(data, toHitRecord(hit))
	}
	return &Page{Total: len(data), Data: data}, nil
}

// SimilarHits runs a raw nearest-neighbor query with an explicit threshold.
// Used by consolidation, which needs the stored records rather than wire
// representations.
func (r *Repository) SimilarHits(ctx context.Context, tenant string, vector []float32, maxDistance float64, topK int) ([]store.SummaryHit, error) {
	return r.store.SearchVector(ctx, tenant, vector, maxDistance, topK)
}
