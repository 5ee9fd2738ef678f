package metadata

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// CacheBackend stores resolved schemas keyed by an opaque string. DeleteAll
// reports whether the backend supports bulk invalidation; backends that do
// not make FlushGlobal a no-op (a documented gap for system-scope mutations).
type CacheBackend interface {
	Get(key string) ([]ResolvedField, bool)
	Set(key string, fields []ResolvedField)
	DeleteAll() bool
}

// TTLCacheBackend is the default in-process backend. Entries never expire on
// their own; invalidation is purely version/flush driven.
type TTLCacheBackend struct {
	cache *ttlcache.Cache[string, []ResolvedField]
}

func NewTTLCacheBackend(capacity uint64) *TTLCacheBackend {
	return &TTLCacheBackend{
		cache: ttlcache.New(
			ttlcache.WithTTL[string, []ResolvedField](ttlcache.NoTTL),
			ttlcache.WithCapacity[string, []ResolvedField](capacity),
		),
	}
}

func (b *TTLCacheBackend) Get(key string) ([]ResolvedField, bool) {
	item := b.cache.Get(key)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (b *TTLCacheBackend) Set(key string, fields []ResolvedField) {
	b.cache.Set(key, fields, ttlcache.NoTTL)
}

func (b *TTLCacheBackend) DeleteAll() bool {
	b.cache.DeleteAll()
	return true
}

// SchemaCache memoizes Resolver output per (tenant, version, brand, category,
// asset-type). Each tenant has a monotonic version counter embedded in the
// cache key: bumping the counter strands every previously cached entry for
// that tenant rather than deleting it. A nil backend degrades to always-miss
// resolution, which is always correct, just slower.
//
// Cached slices are shared between callers and must be treated as read-only.
type SchemaCache struct {
	resolver *Resolver
	backend  CacheBackend

	mu       sync.Mutex
	versions map[uuid.UUID]uint64
}

func NewSchemaCache(resolver *Resolver, backend CacheBackend) *SchemaCache {
	return &SchemaCache{
		resolver: resolver,
		backend:  backend,
		versions: make(map[uuid.UUID]uint64),
	}
}

func (c *SchemaCache) Resolve(req Request) ([]ResolvedField, error) {
	if c.backend == nil {
		return c.resolver.Resolve(req)
	}

	key := c.cacheKey(req)
	if fields, ok := c.backend.Get(key); ok {
		return fields, nil
	}

	fields, err := c.resolver.Resolve(req)
	if err != nil {
		return nil, err
	}

	c.backend.Set(key, fields)
	return fields, nil
}

// BumpVersion invalidates every cached schema for the tenant. Mutation
// observers call this after any write to the tenant's fields, options, or
// override rows. A lost increment under racing observers only extends
// staleness by one mutation cycle; the next bump strands the entry anyway.
func (c *SchemaCache) BumpVersion(tenantId uuid.UUID) {
	c.mu.Lock()
	c.versions[tenantId]++
	c.mu.Unlock()
}

// FlushGlobal invalidates every cached schema for every tenant. Used for
// system-scope mutations, which have no single tenant counter to bump. If the
// backend cannot bulk-invalidate this degrades silently to a no-op.
func (c *SchemaCache) FlushGlobal() {
	if c.backend == nil {
		return
	}
	if !c.backend.DeleteAll() {
		slog.Warn("cache backend does not support bulk invalidation, system-scope mutation not flushed")
	}
}

func (c *SchemaCache) version(tenantId uuid.UUID) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[tenantId]
}

func (c *SchemaCache) cacheKey(req Request) string {
	brand, category := "-", "-"
	if req.BrandId != nil {
		brand = req.BrandId.String()
	}
	if req.CategoryId != nil {
		category = req.CategoryId.String()
	}
	return fmt.Sprintf("%v:%d:%v:%v:%v", req.TenantId, c.version(req.TenantId), brand, category, req.AssetType)
}
