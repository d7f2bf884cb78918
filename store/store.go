package store

import (
	"context"
)

// Driver is the interface every vector store backend implements.
// Tenants are isolated partitions: no operation ever returns records from a
// tenant other than the one named in the call.
type Driver interface {
	// Tenant partition management.
	CreateTenant(ctx context.Context, name string) error
	RemoveTenant(ctx context.Context, name string) error
	ListTenants(ctx context.Context) (map[string]TenantInfo, error)

	// Summary CRUD within one tenant.
	InsertSummary(ctx context.Context, create *Summary) (string, error)
	UpdateSummary(ctx context.Context, update *UpdateSummary) error
	DeleteSummary(ctx context.Context, tenant, id string) error
	// DeleteSummaries removes the given ids; ids already gone are skipped so
	// concurrent retirements of the same records stay benign.
	DeleteSummaries(ctx context.Context, tenant string, ids []string) error
	GetSummary(ctx context.Context, tenant, id string) (*Summary, error)
	CountSummaries(ctx context.Context, tenant string) (int, error)
	ListSummaries(ctx context.Context, find *FindSummary) ([]*Summary, error)

	// Search. All three are scoped to one tenant and capped at topK.
	// SearchVector returns hits whose cosine distance is strictly below
	// maxDistance, ascending.
	SearchKeyword(ctx context.Context, tenant, query string, topK int) ([]SummaryHit, error)
	SearchVector(ctx context.Context, tenant string, vector []float32, maxDistance float64, topK int) ([]SummaryHit, error)
	SearchHybrid(ctx context.Context, tenant, query string, vector []float32, maxDistance float64, topK int) ([]SummaryHit, error)

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Store provides access to the summary store. It owns the single long-lived
// driver connection, which is opened once at process start and shared by all
// requests; construct it explicitly and pass it into every component.
type Store struct {
	driver Driver
}

// New creates a new instance of Store.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

func (s *Store) ready() error {
	if s == nil || s.driver == nil {
		return ErrNotInitialized
	}
	return nil
}

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.driver.Migrate(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.driver.Ping(ctx)
}

func (s *Store) Close() error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.driver.Close()
}

func (s *Store) CreateTenant(ctx context.Context, name string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.driver.CreateTenant(ctx, name)
}

func (s *Store) RemoveTenant(ctx context.Context, name string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.driver.RemoveTenant(ctx, name)
}

func (s *Store) ListTenants(ctx context.Context) (map[string]TenantInfo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.driver.ListTenants(ctx)
}

func (s *Store) InsertSummary(ctx context.Context, create *Summary) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	return s.driver.InsertSummary(ctx, create)
}

func (s *Store) UpdateSummary(ctx context.Context, update *UpdateSummary) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.driver.UpdateSummary(ctx, update)
}

func (s *Store) DeleteSummary(ctx context.Context, tenant, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.driver.DeleteSummary(ctx, tenant, id)
}

func (s *Store) DeleteSummaries(ctx context.Context, tenant string, ids []string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.driver.DeleteSummaries(ctx, tenant, ids)
}

func (s *Store) GetSummary(ctx context.Context, tenant, id string) (*Summary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.driver.GetSummary(ctx, tenant, id)
}

func (s *Store) CountSummaries(ctx context.Context, tenant string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.driver.CountSummaries(ctx, tenant)
}

func (s *Store) ListSummaries(ctx context.Context, find *FindSummary) ([]*Summary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.driver.ListSummaries(ctx, find)
}

func (s *Store) SearchKeyword(ctx context.Context, tenant, query string, topK int) ([]SummaryHit, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.driver.SearchKeyword(ctx, tenant, query, topK)
}

func (s *Store) SearchVector(ctx context.Context, tenant string, vector []float32, maxDistance float64, topK int) ([]SummaryHit, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.driver.SearchVector(ctx, tenant, vector, maxDistance, topK)
}

func (s *Store) SearchHybrid(ctx context.Context, tenant, query string, vector []float32, maxDistance float64, topK int) ([]SummaryHit, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.driver.SearchHybrid(ctx, tenant, query, vector, maxDistance, topK)
}
