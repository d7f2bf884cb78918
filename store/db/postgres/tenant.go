package postgres

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/recollect/store"
)

// CreateTenant provisions a partition for the tenant. Creating a name that
// already exists fails; deduplicating create calls is the caller's job.
func (d *DB) CreateTenant(ctx context.Context, name string) error {
	stmt := `INSERT INTO tenant (name) VALUES (` + placeholder(1) + `) ON CONFLICT (name) DO NOTHING`
	result, err := d.db.ExecContext(ctx, stmt, name)
	if err != nil {
		return errors.Wrap(err, "failed to create tenant")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to create tenant")
	}
	if rows == 0 {
		return store.ErrTenantExists
	}
	return nil
}

// RemoveTenant drops the partition; the summary FK cascades so every record
// in it is deleted with it.
func (d *DB) RemoveTenant(ctx context.Context, name string) error {
	stmt := `DELETE FROM tenant WHERE name = ` + placeholder(1)
	result, err := d.db.ExecContext(ctx, stmt, name)
	if err != nil {
		return errors.Wrap(err, "failed to remove tenant")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to remove tenant")
	}
	if rows == 0 {
		return store.ErrTenantNotFound
	}
	return nil
}

// ListTenants returns every tenant with its live record count. Counts are
// taken at call time, one query per tenant, so cost is linear in tenant
// count.
func (d *DB) ListTenants(ctx context.Context) (map[string]store.TenantInfo, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT name FROM tenant ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tenants")
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan tenant")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tenants := make(map[string]store.TenantInfo, len(names))
	for _, name := range names {
		count, err := d.CountSummaries(ctx, name)
		if err != nil {
			return nil, err
		}
		tenants[name] = store.TenantInfo{
			Name:           name,
			DataCount:      count,
			ActivityStatus: "ACTIVE",
		}
	}
	return tenants, nil
}
