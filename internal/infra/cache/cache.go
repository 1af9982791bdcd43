// internal/infra/cache/cache.go
package cache

import (
	"context"
	"fmt"
	"time"

	"expiry_reminder_service/internal/domain/mapping"

	"github.com/sirupsen/logrus"
)

// ErrLookupUnavailable reports that the authoritative mapping source could
// not be consulted. Callers must not treat it as "mapping absent".
var ErrLookupUnavailable = fmt.Errorf("authoritative mapping lookup unavailable")

// Store holds cached existence results. A Get miss is (false, false, nil);
// store-level failures surface as errors so the cache can fall back to the
// authoritative source instead of serving a wrong answer.
type Store interface {
	Get(ctx context.Context, key string) (value bool, ok bool, err error)
	Set(ctx context.Context, key string, value bool) error
	Delete(ctx context.Context, keys ...string) error
}

// MappingCache is a read-through cache over the authoritative mapping
// lookup. Results are cached per exact (category, subcategory) pair and
// separately per category. Entries carry no TTL; administrative writes
// invalidate them explicitly. Concurrent lookups for the same key may race
// to populate the store; last-write-wins is fine since all writers derive
// the value from the same source.
type MappingCache struct {
	store         Store
	lookup        mapping.Lookup
	lookupTimeout time.Duration
	logger        *logrus.Logger
}

func NewMappingCache(store Store, lookup mapping.Lookup, lookupTimeout time.Duration, logger *logrus.Logger) *MappingCache {
	return &MappingCache{
		store:         store,
		lookup:        lookup,
		lookupTimeout: lookupTimeout,
		logger:        logger,
	}
}

func pairKey(category, subcategory string) string {
	return fmt.Sprintf("pair:%s|%s", category, subcategory)
}

func categoryKey(category string) string {
	return fmt.Sprintf("cat:%s", category)
}

// ExistsPair reports whether the (category, subcategory) pair is a known
// mapping entry. A failure of the authoritative source surfaces as
// ErrLookupUnavailable, never as false.
func (c *MappingCache) ExistsPair(ctx context.Context, category, subcategory string) (bool, error) {
	return c.existsThrough(ctx, pairKey(category, subcategory), func(ctx context.Context) (bool, error) {
		return c.lookup.ExistsPair(ctx, category, subcategory)
	})
}

// ExistsCategory reports whether any mapping entry exists for the category.
func (c *MappingCache) ExistsCategory(ctx context.Context, category string) (bool, error) {
	return c.existsThrough(ctx, categoryKey(category), func(ctx context.Context) (bool, error) {
		return c.lookup.ExistsCategory(ctx, category)
	})
}

func (c *MappingCache) existsThrough(ctx context.Context, key string, authoritative func(context.Context) (bool, error)) (bool, error) {
	cached, ok, err := c.store.Get(ctx, key)
	if err != nil {
		// A broken cache store is not a broken lookup; fall through to the
		// authoritative source.
		c.logger.WithError(err).WithField("key", key).Warn("Mapping cache store read failed; consulting authoritative source directly")
	} else if ok {
		return cached, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, c.lookupTimeout)
	defer cancel()

	exists, err := authoritative(lookupCtx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLookupUnavailable, err)
	}

	if err := c.store.Set(ctx, key, exists); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Mapping cache store write failed")
	}
	return exists, nil
}

// Invalidate drops the cached results affected by an administrative add or
// remove of the given pair: the exact pair key and the category key (whose
// answer may have flipped in either direction).
func (c *MappingCache) Invalidate(ctx context.Context, category, subcategory string) error {
	if err := c.store.Delete(ctx, pairKey(category, subcategory), categoryKey(category)); err != nil {
		return fmt.Errorf("error invalidating mapping cache for (%s, %s): %w", category, subcategory, err)
	}
	return nil
}
