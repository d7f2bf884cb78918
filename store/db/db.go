// Package db constructs the concrete store driver for a profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/recollect/internal/profile"
	"github.com/hrygo/recollect/store"
	"github.com/hrygo/recollect/store/db/chromem"
	"github.com/hrygo/recollect/store/db/postgres"
)

// NewDriver creates the store driver named by the profile.
func NewDriver(p *profile.Profile) (store.Driver, error) {
	switch p.Driver {
	case "postgres":
		return postgres.NewDB(p.DSN, p.EmbeddingDimensions)
	case "embedded":
		return chromem.NewDB(), nil
	default:
		return nil, errors.Errorf("unknown driver %q", p.Driver)
	}
}
