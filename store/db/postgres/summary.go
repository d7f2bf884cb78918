package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/recollect/store"
)

// foreignKeyViolation is the PostgreSQL error code raised when a summary
// references an absent tenant.
const foreignKeyViolation = "23503"

// InsertSummary inserts a new record and returns its store-assigned id.
func (d *DB) InsertSummary(ctx context.Context, create *store.Summary) (string, error) {
	merged, err := marshalMerged(create.Merged)
	if err != nil {
		return "", err
	}

	stmt := `
		INSERT INTO summary (tenant, summary, turn, type, merged_summary, embedding)
		VALUES (` + placeholders(6) + `)
		RETURNING id, created_ts, updated_ts
	`
	err = d.db.QueryRowContext(ctx, stmt,
		create.Tenant,
		create.Summary,
		nullInt(create.Turn),
		nullString(create.Type),
		merged,
		pgvector.NewVector(create.Embedding),
	).Scan(&create.ID, &create.CreatedAt, &create.UpdatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return "", store.ErrTenantNotFound
		}
		return "", errors.Wrap(err, "failed to insert summary")
	}
	return create.ID, nil
}

// UpdateSummary replaces text, turn, type and embedding in one statement so
// the stored vector always matches the stored text.
func (d *DB) UpdateSummary(ctx context.Context, update *store.UpdateSummary) error {
	stmt := `
		UPDATE summary
		SET summary = $1, turn = $2, type = $3, embedding = $4, updated_ts = now()
		WHERE tenant = $5 AND id = $6
	`
	result, err := d.db.ExecContext(ctx, stmt,
		update.Summary,
		nullInt(update.Turn),
		nullString(update.Type),
		pgvector.NewVector(update.Embedding),
		update.Tenant,
		update.ID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update summary")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to update summary")
	}
	if rows == 0 {
		return store.ErrSummaryNotFound
	}
	return nil
}

// DeleteSummary removes one record; absent ids are an error.
func (d *DB) DeleteSummary(ctx context.Context, tenant, id string) error {
	stmt := `DELETE FROM summary WHERE tenant = $1 AND id = $2`
	result, err := d.db.ExecContext(ctx, stmt, tenant, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete summary")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to delete summary")
	}
	if rows == 0 {
		return store.ErrSummaryNotFound
	}
	return nil
}

// DeleteSummaries removes the given ids. Ids already gone are skipped, which
// keeps concurrent retirement of the same records benign.
func (d *DB) DeleteSummaries(ctx context.Context, tenant string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	stmt := `DELETE FROM summary WHERE tenant = $1 AND id = ANY($2::uuid[])`
	if _, err := d.db.ExecContext(ctx, stmt, tenant, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "failed to delete summaries")
	}
	return nil
}

// GetSummary fetches one record by id within the tenant.
func (d *DB) GetSummary(ctx context.Context, tenant, id string) (*store.Summary, error) {
	stmt := `
		SELECT id, tenant, summary, turn, type, merged_summary, embedding, created_ts, updated_ts
		FROM summary
		WHERE tenant = $1 AND id = $2
	`
	summary, err := scanSummary(d.db.QueryRowContext(ctx, stmt, tenant, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSummaryNotFound
		}
		return nil, errors.Wrap(err, "failed to get summary")
	}
	return summary, nil
}

// CountSummaries returns the tenant's live record count.
func (d *DB) CountSummaries(ctx context.Context, tenant string) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM summary WHERE tenant = $1`, tenant).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count summaries")
	}
	return count, nil
}

// ListSummaries lists records most-recently-updated first, or in stable id
// order when find.ByID is set (cursor pagination).
func (d *DB) ListSummaries(ctx context.Context, find *store.FindSummary) ([]*store.Summary, error) {
	where, args := []string{"tenant = " + placeholder(1)}, []any{find.Tenant}

	if find.ByID && find.AfterID != "" {
		where = append(where, "id > "+placeholder(len(args)+1)+"::uuid")
		args = append(args, find.AfterID)
	}

	order := "updated_ts DESC, id"
	if find.ByID {
		order = "id ASC"
	}

	query := `
		SELECT id, tenant, summary, turn, type, merged_summary, embedding, created_ts, updated_ts
		FROM summary
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ` + order
	if find.Limit > 0 {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, find.Limit)
	}
	if find.Offset > 0 {
		query += " OFFSET " + placeholder(len(args)+1)
		args = append(args, find.Offset)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list summaries")
	}
	defer rows.Close()

	list := []*store.Summary{}
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan summary")
		}
		list = append(list, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSummary scans the common summary columns plus any trailing metric
// columns (score and/or distance) supplied by search queries.
func scanSummary(row rowScanner, extra ...any) (*store.Summary, error) {
	var (
		summary store.Summary
		turn    sql.NullInt64
		typ     sql.NullString
		merged  []byte
		vector  pgvector.Vector
	)
	dest := []any{
		&summary.ID,
		&summary.Tenant,
		&summary.Summary,
		&turn,
		&typ,
		&merged,
		&vector,
		&summary.CreatedAt,
		&summary.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if turn.Valid {
		t := int(turn.Int64)
		summary.Turn = &t
	}
	if typ.Valid {
		summary.Type = &typ.String
	}
	if len(merged) > 0 {
		if err := json.Unmarshal(merged, &summary.Merged); err != nil {
			return nil, errors.Wrap(err, "failed to decode merged_summary")
		}
	}
	summary.Embedding = vector.Slice()
	return &summary, nil
}

func marshalMerged(merged []store.MergedSummary) (any, error) {
	if len(merged) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode merged_summary")
	}
	return raw, nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}
