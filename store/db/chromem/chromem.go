// Package chromem implements the summary store driver on chromem-go, an
// embedded pure-Go vector database. It keeps everything in process memory:
// chromem holds one collection per tenant for nearest-neighbor search, and a
// guarded record map per tenant backs CRUD, listing and keyword matching.
//
// The driver is volatile and meant for dev mode and tests; production runs
// use the postgres driver.
package chromem

import (
	"context"
	"sync"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"github.com/pkg/errors"

	"github.com/hrygo/recollect/store"
)

// DB is the embedded driver. All methods are safe for concurrent use.
type DB struct {
	db *chromem.DB

	mu      sync.RWMutex
	tenants map[string]*partition
}

// partition is one tenant's slice of the store.
type partition struct {
	collection *chromem.Collection
	records    map[string]*store.Summary
}

// NewDB creates an empty embedded store.
func NewDB() *DB {
	return &DB{
		db:      chromem.NewDB(),
		tenants: make(map[string]*partition),
	}
}

func (d *DB) Migrate(_ context.Context) error { return nil }

func (d *DB) Ping(_ context.Context) error { return nil }

func (d *DB) Close() error { return nil }

// CreateTenant provisions an isolated collection for the tenant.
func (d *DB) CreateTenant(_ context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.tenants[name]; ok {
		return store.ErrTenantExists
	}

	// Embeddings are always supplied by the caller, so the collection gets
	// no embedding function of its own.
	col, err := d.db.CreateCollection("tenant-"+name, nil, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create collection")
	}
	d.tenants[name] = &partition{
		collection: col,
		records:    make(map[string]*store.Summary),
	}
	return nil
}

// RemoveTenant drops the tenant's collection and every record in it.
func (d *DB) RemoveTenant(_ context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.tenants[name]; !ok {
		return store.ErrTenantNotFound
	}
	if err := d.db.DeleteCollection("tenant-" + name); err != nil {
		return errors.Wrap(err, "failed to delete collection")
	}
	delete(d.tenants, name)
	return nil
}

// ListTenants returns every tenant with its record count taken at call time.
func (d *DB) ListTenants(_ context.Context) (map[string]store.TenantInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tenants := make(map[string]store.TenantInfo, len(d.tenants))
	for name, p := range d.tenants {
		tenants[name] = store.TenantInfo{
			Name:           name,
			DataCount:      len(p.records),
			ActivityStatus: "ACTIVE",
		}
	}
	return tenants, nil
}

func cloneSummary(s *store.Summary) *store.Summary {
	out := *s
	if s.Turn != nil {
		t := *s.Turn
		out.Turn = &t
	}
	if s.Type != nil {
		typ := *s.Type
		out.Type = &typ
	}
	if s.Merged != nil {
		out.Merged = make([]store.MergedSummary, len(s.Merged))
		copy(out.Merged, s.Merged)
	}
	if s.Embedding != nil {
		out.Embedding = make([]float32, len(s.Embedding))
		copy(out.Embedding, s.Embedding)
	}
	return &out
}

func newID() string {
	return uuid.NewString()
}
