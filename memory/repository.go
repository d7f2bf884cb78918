// Package memory implements the consolidation and retrieval core on top of
// the tenant-partitioned summary store.
package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hrygo/recollect/ai"
	"github.com/hrygo/recollect/store"
)

// Config carries the tunable thresholds of the memory core. The merge
// threshold is tighter than the retrieval threshold on purpose: a wrong
// merge destroys information, a wrong retrieval only adds noise.
type Config struct {
	MergeDistance     float64
	MergeTopK         int
	RetrievalDistance float64
	RetrievalTopK     int
}

// Repository exposes tenant-scoped CRUD, listing and search over summary
// records. Texts are embedded on every write so the stored vector always
// matches the stored text.
type Repository struct {
	store    *store.Store
	embedder ai.EmbeddingService
	cfg      Config
}

// NewRepository creates a Repository.
func NewRepository(s *store.Store, embedder ai.EmbeddingService, cfg Config) *Repository {
	return &Repository{store: s, embedder: embedder, cfg: cfg}
}

// AddRequest describes a new record. Merged is the provenance list written
// by consolidation; direct API writes leave it empty.
type AddRequest struct {
	Summary string
	Turn    *int
	Type    *string
	Merged  []store.MergedSummary
}

// UpdateRequest replaces the text of an existing record. The new text is
// re-embedded before the write.
type UpdateRequest struct {
	Summary string
	Turn    *int
	Type    *string
}

// Add validates, embeds and stores a new summary for the tenant.
func (r *Repository) Add(ctx context.Context, tenant string, req *AddRequest) (*Record, error) {
	if strings.TrimSpace(req.Summary) == "" {
		return nil, errors.Wrap(ErrValidation, "summary must not be empty")
	}

	vector, err := r.embedder.Embed(ctx, req.Summary)
	if err != nil {
		return nil, errors.Wrap(ErrEmbedding, err.Error())
	}

	create := &store.Summary{
		Tenant:    tenant,
		Summary:   req.Summary,
		Turn:      req.Turn,
		Type:      req.Type,
		Merged:    req.Merged,
		Embedding: vector,
	}
	if _, err := r.store.InsertSummary(ctx, create); err != nil {
		return nil, err
	}

	record := toRecord(create)
	return &record, nil
}

// Update re-embeds the new text and replaces the record in place.
func (r *Repository) Update(ctx context.Context, tenant, id string, req *UpdateRequest) (*Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Summary) == "" {
		return nil, errors.Wrap(ErrValidation, "summary must not be empty")
	}

	vector, err := r.embedder.Embed(ctx, req.Summary)
	if err != nil {
		return nil, errors.Wrap(ErrEmbedding, err.Error())
	}

	update := &store.UpdateSummary{
		ID:        id,
		Tenant:    tenant,
		Summary:   req.Summary,
		Turn:      req.Turn,
		Type:      req.Type,
		Embedding: vector,
	}
	if err := r.store.UpdateSummary(ctx, update); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, tenant, id)
}

// Delete removes one record by id.
func (r *Repository) Delete(ctx context.Context, tenant, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	return r.store.DeleteSummary(ctx, tenant, id)
}

// DeleteMany removes a batch of records. Malformed ids are rejected up
// front; ids that are valid but already gone are skipped silently.
func (r *Repository) DeleteMany(ctx context.Context, tenant string, ids []string) error {
	if len(ids) == 0 {
		return errors.Wrap(ErrValidation, "no ids given")
	}
	for _, id := range ids {
		if err := validateID(id); err != nil {
			return err
		}
	}
	return r.store.DeleteSummaries(ctx, tenant, ids)
}

// GetByID fetches one record.
func (r *Repository) GetByID(ctx context.Context, tenant, id string) (*Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	s, err := r.store.GetSummary(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	record := toRecord(s)
	return &record, nil
}

// List returns up to limit records, most recently updated first. Total is
// the tenant's full record count, not the page size.
func (r *Repository) List(ctx context.Context, tenant string, limit int) (*Page, error) {
	if limit <= 0 {
		return nil, errors.Wrap(ErrValidation, "limit must be positive")
	}
	total, err := r.store.CountSummaries(ctx, tenant)
	if err != nil {
		return nil, err
	}
	list, err := r.store.ListSummaries(ctx, &store.FindSummary{Tenant: tenant, Limit: limit})
	if err != nil {
		return nil, err
	}
	return &Page{Total: total, Data: toRecords(list)}, nil
}

// ListOffset returns one page of records using 1-indexed page numbers.
func (r *Repository) ListOffset(ctx context.Context, tenant string, page, size int) (*Page, error) {
	if page < 1 {
		return nil, errors.Wrap(ErrValidation, "page must be >= 1")
	}
	if size < 1 {
		return nil, errors.Wrap(ErrValidation, "page size must be >= 1")
	}
	total, err := r.store.CountSummaries(ctx, tenant)
	if err != nil {
		return nil, err
	}
	list, err := r.store.ListSummaries(ctx, &store.FindSummary{
		Tenant: tenant,
		Limit:  size,
		Offset: (page - 1) * size,
	})
	if err != nil {
		return nil, err
	}
	return &Page{Total: total, Data: toRecords(list)}, nil
}

// ListCursor returns up to limit records in stable id order, resuming after
// the given cursor. An empty cursor starts from the beginning.
func (r *Repository) ListCursor(ctx context.Context, tenant, after string, limit int) (*Page, error) {
	if limit <= 0 {
		return nil, errors.Wrap(ErrValidation, "limit must be positive")
	}
	if after != "" {
		if err := validateID(after); err != nil {
			return nil, err
		}
	}
	total, err := r.store.CountSummaries(ctx, tenant)
	if err != nil {
		return nil, err
	}
	list, err := r.store.ListSummaries(ctx, &store.FindSummary{
		Tenant:  tenant,
		ByID:    true,
		AfterID: after,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	return &Page{Total: total, Data: toRecords(list)}, nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrapf(ErrValidation, "invalid id %q", id)
	}
	return nil
}
