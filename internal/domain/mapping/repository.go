package mapping

import (
	"context"
)

// Lookup is the authoritative existence check behind the mapping cache.
// Implementations must distinguish "not found" (false, nil) from
// "could not check" (an error) — callers never conflate the two.
type Lookup interface {
	ExistsPair(ctx context.Context, category, subcategory string) (bool, error)
	ExistsCategory(ctx context.Context, category string) (bool, error)
}

// Repository defines the administrative operations on mapping entries.
type Repository interface {
	Lookup

	Create(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, category, subcategory string) error
	ListAll(ctx context.Context) ([]*Entry, error)
}
