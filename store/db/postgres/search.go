package postgres

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/recollect/store"
)

// SearchKeyword runs a full-text match against the summary field only and
// ranks by the text relevance score. Distance is never populated here.
func (d *DB) SearchKeyword(ctx context.Context, tenant, query string, topK int) ([]store.SummaryHit, error) {
	stmt := `
		SELECT id, tenant, summary, turn, type, merged_summary, embedding, created_ts, updated_ts,
			ts_rank(to_tsvector('simple', summary), plainto_tsquery('simple', $2)) AS score
		FROM summary
		WHERE tenant = $1
			AND to_tsvector('simple', summary) @@ plainto_tsquery('simple', $2)
		ORDER BY score DESC
		LIMIT $3
	`
	rows, err := d.db.QueryContext(ctx, stmt, tenant, query, topK)
	if err != nil {
		return nil, errors.Wrap(err, "failed to keyword search")
	}
	defer rows.Close()

	hits := []store.SummaryHit{}
	for rows.Next() {
		var score float64
		summary, err := scanSummary(rows, &score)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan keyword hit")
		}
		s := score
		hits = append(hits, store.SummaryHit{Summary: summary, Score: &s})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return hits, nil
}

// SearchVector performs nearest-neighbor search on the embedding column.
// The <=> operator computes cosine distance; only hits strictly below
// maxDistance are returned, closest first.
func (d *DB) SearchVector(ctx context.Context, tenant string, vector []float32, maxDistance float64, topK int) ([]store.SummaryHit, error) {
	stmt := `
		SELECT id, tenant, summary, turn, type, merged_summary, embedding, created_ts, updated_ts,
			embedding <=> $2 AS distance
		FROM summary
		WHERE tenant = $1
			AND embedding <=> $2 < $3
		ORDER BY distance ASC
		LIMIT $4
	`
	rows, err := d.db.QueryContext(ctx, stmt, tenant, pgvector.NewVector(vector), maxDistance, topK)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search")
	}
	defer rows.Close()

	hits := []store.SummaryHit{}
	for rows.Next() {
		var distance float64
		summary, err := scanSummary(rows, &distance)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan vector hit")
		}
		dist := distance
		hits = append(hits, store.SummaryHit{Summary: summary, Distance: &dist})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return hits, nil
}

// SearchHybrid fuses the vector leg (bounded by maxDistance) with the text
// match on summary. Each leg contributes half of the combined score: the
// vector half is 1-distance, the keyword half saturates at rank 1.
func (d *DB) SearchHybrid(ctx context.Context, tenant, query string, vector []float32, maxDistance float64, topK int) ([]store.SummaryHit, error) {
	stmt := `
		WITH vec AS (
			SELECT id, embedding <=> $3 AS distance
			FROM summary
			WHERE tenant = $1 AND embedding <=> $3 < $4
			ORDER BY distance ASC
			LIMIT $5
		), kw AS (
			SELECT id, ts_rank(to_tsvector('simple', summary), plainto_tsquery('simple', $2)) AS rank
			FROM summary
			WHERE tenant = $1
				AND to_tsvector('simple', summary) @@ plainto_tsquery('simple', $2)
			ORDER BY rank DESC
			LIMIT $5
		)
		SELECT s.id, s.tenant, s.summary, s.turn, s.type, s.merged_summary, s.embedding, s.created_ts, s.updated_ts,
			0.5 * COALESCE(1 - f.distance, 0) + 0.5 * COALESCE(LEAST(f.rank, 1), 0) AS score,
			f.distance
		FROM (
			SELECT id, vec.distance, kw.rank
			FROM vec FULL OUTER JOIN kw USING (id)
		) AS f
		JOIN summary s USING (id)
		ORDER BY score DESC
		LIMIT $5
	`
	rows, err := d.db.QueryContext(ctx, stmt, tenant, query, pgvector.NewVector(vector), maxDistance, topK)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hybrid search")
	}
	defer rows.Close()

	hits := []store.SummaryHit{}
	for rows.Next() {
		var (
			score    float64
			distance sql.NullFloat64
		)
		summary, err := scanSummary(rows, &score, &distance)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan hybrid hit")
		}
		s := score
		hit := store.SummaryHit{Summary: summary, Score: &s}
		if distance.Valid {
			d := distance.Float64
			hit.Distance = &d
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return hits, nil
}
