package chromem

import (
	"context"
	"sort"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"github.com/pkg/errors"

	"github.com/hrygo/recollect/store"
)

// InsertSummary inserts a new record and returns its assigned id.
func (d *DB) InsertSummary(ctx context.Context, create *store.Summary) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.tenants[create.Tenant]
	if !ok {
		return "", store.ErrTenantNotFound
	}

	create.ID = newID()
	create.CreatedAt = time.Now()
	create.UpdatedAt = create.CreatedAt

	if err := p.collection.AddDocument(ctx, chromem.Document{
		ID:        create.ID,
		Content:   create.Summary,
		Embedding: create.Embedding,
	}); err != nil {
		return "", errors.Wrap(err, "failed to add document")
	}
	p.records[create.ID] = cloneSummary(create)
	return create.ID, nil
}

// UpdateSummary replaces text, turn, type and embedding together so the
// indexed vector always matches the stored text.
func (d *DB) UpdateSummary(ctx context.Context, update *store.UpdateSummary) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.tenants[update.Tenant]
	if !ok {
		return store.ErrSummaryNotFound
	}
	record, ok := p.records[update.ID]
	if !ok {
		return store.ErrSummaryNotFound
	}

	if err := p.collection.Delete(ctx, nil, nil, update.ID); err != nil {
		return errors.Wrap(err, "failed to drop old document")
	}
	if err := p.collection.AddDocument(ctx, chromem.Document{
		ID:        update.ID,
		Content:   update.Summary,
		Embedding: update.Embedding,
	}); err != nil {
		return errors.Wrap(err, "failed to re-add document")
	}

	record.Summary = update.Summary
	record.Turn = update.Turn
	record.Type = update.Type
	record.Embedding = update.Embedding
	record.UpdatedAt = time.Now()
	return nil
}

// DeleteSummary removes one record; an absent id is an error.
func (d *DB) DeleteSummary(ctx context.Context, tenant, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.tenants[tenant]
	if !ok {
		return store.ErrSummaryNotFound
	}
	if _, ok := p.records[id]; !ok {
		return store.ErrSummaryNotFound
	}
	if err := p.collection.Delete(ctx, nil, nil, id); err != nil {
		return errors.Wrap(err, "failed to delete document")
	}
	delete(p.records, id)
	return nil
}

// DeleteSummaries removes the given ids, skipping ids already gone.
func (d *DB) DeleteSummaries(ctx context.Context, tenant string, ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.tenants[tenant]
	if !ok {
		return nil
	}
	for _, id := range ids {
		if _, ok := p.records[id]; !ok {
			continue
		}
		if err := p.collection.Delete(ctx, nil, nil, id); err != nil {
			return errors.Wrap(err, "failed to delete document")
		}
		delete(p.records, id)
	}
	return nil
}

// GetSummary fetches one record by id within the tenant.
func (d *DB) GetSummary(_ context.Context, tenant, id string) (*store.Summary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.tenants[tenant]
	if !ok {
		return nil, store.ErrSummaryNotFound
	}
	record, ok := p.records[id]
	if !ok {
		return nil, store.ErrSummaryNotFound
	}
	return cloneSummary(record), nil
}

// CountSummaries returns the tenant's live record count.
func (d *DB) CountSummaries(_ context.Context, tenant string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.tenants[tenant]
	if !ok {
		return 0, nil
	}
	return len(p.records), nil
}

// ListSummaries lists records most-recently-updated first, or in stable id
// order when find.ByID is set (cursor pagination).
func (d *DB) ListSummaries(_ context.Context, find *store.FindSummary) ([]*store.Summary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.tenants[find.Tenant]
	if !ok {
		return []*store.Summary{}, nil
	}

	list := make([]*store.Summary, 0, len(p.records))
	for _, record := range p.records {
		if find.ByID && find.AfterID != "" && record.ID <= find.AfterID {
			continue
		}
		list = append(list, cloneSummary(record))
	}

	if find.ByID {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	} else {
		sort.Slice(list, func(i, j int) bool {
			if !list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
				return list[i].UpdatedAt.After(list[j].UpdatedAt)
			}
			return list[i].ID < list[j].ID
		})
	}

	if find.Offset > 0 {
		if find.Offset >= len(list) {
			return []*store.Summary{}, nil
		}
		list = list[find.Offset:]
	}
	if find.Limit > 0 && find.Limit < len(list) {
		list = list[:find.Limit]
	}
	return list, nil
}
