package store

import "github.com/pkg/errors"

var (
	// ErrNotInitialized is returned when the store is used before a driver
	// has been wired in at the composition root.
	ErrNotInitialized = errors.New("store: driver not initialized")

	// ErrTenantExists is returned by CreateTenant for a duplicate name.
	ErrTenantExists = errors.New("store: tenant already exists")

	// ErrTenantNotFound is returned when the named tenant is absent.
	ErrTenantNotFound = errors.New("store: tenant not found")

	// ErrSummaryNotFound is returned when a record id is absent in the
	// tenant's partition. Batch deletes treat absent ids as no-ops and do
	// not return this.
	ErrSummaryNotFound = errors.New("store: summary not found")
)
