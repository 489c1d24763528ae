package storage

import (
	"context"

	"github.com/bartlomiej-milosz/warsaw-property-analysis/models"
)

// PropertyWriter is the interface any storage backend for cleaned
// properties must satisfy.
type PropertyWriter interface {
	Write(ctx context.Context, listingType models.ListingType, props []*models.Property) error
	Close() error
}

// PropertyReader loads cleaned properties back for analysis.
type PropertyReader interface {
	FetchAll(ctx context.Context, listingType models.ListingType) ([]*models.Property, error)
}
