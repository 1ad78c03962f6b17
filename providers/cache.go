package providers

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nashir/pushgate/fields"
)

// DefaultCacheSize bounds the number of live provider instances held across
// all tenants. Eviction only costs reconstruction latency on the next resolve
// for that (tenant, vendor) pair, never correctness.
const DefaultCacheSize = 100

// Builder constructs a provider from tenant credentials.
type Builder func(ctx context.Context, cfg fields.ProviderConfig) (PushProvider, error)

// Resolver maps (tenant, vendor kind) to a live, authenticated provider
// instance through a bounded LRU cache. Safe for concurrent use; two resolves
// racing on the same key may both construct, and the loser's instance is
// simply dropped. Providers are cheaply and safely reconstructible.
type Resolver struct {
	cache *lru.Cache[string, PushProvider]
	build Builder
}

func NewResolver(capacity int, build Builder) (*Resolver, error) {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	if build == nil {
		build = Build
	}
	cache, err := lru.New[string, PushProvider](capacity)
	if err != nil {
		return nil, err
	}
	return &Resolver{cache: cache, build: build}, nil
}

func (r *Resolver) Resolve(ctx context.Context, tenant fields.Tenant, kind fields.ProviderKind) (PushProvider, error) {
	cfg, err := tenant.ProviderConfig(kind)
	if err != nil {
		return nil, err
	}

	key := tenant.ID + "/" + string(kind)
	if p, ok := r.cache.Get(key); ok {
		return p, nil
	}

	p, err := r.build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	r.cache.Add(key, p)
	return p, nil
}

// Invalidate drops any cached instance for the key, forcing reconstruction on
// the next resolve. Called when tenant credentials change.
func (r *Resolver) Invalidate(tenantID string, kind fields.ProviderKind) {
	r.cache.Remove(tenantID + "/" + string(kind))
}

// Len reports how many live instances are cached.
func (r *Resolver) Len() int {
	return r.cache.Len()
}
