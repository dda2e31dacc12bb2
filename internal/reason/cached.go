package reason

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/ruleproof/ruleproof/internal/cache"
	"github.com/ruleproof/ruleproof/internal/model"
)

// CachedProvider memoizes verdicts from an inner provider. The key covers
// the citation text and the shortlist ids, so a changed shortlist always
// reaches the service; strict retries skip the cache altogether.
type CachedProvider struct {
	inner Provider
	store cache.Cache
	ttl   time.Duration
}

// NewCachedProvider wraps a provider with a response cache.
func NewCachedProvider(inner Provider, store cache.Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, store: store, ttl: ttl}
}

// Name returns the inner provider name
func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

// IsAvailable defers to the inner provider
func (p *CachedProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

// Review returns a cached verdict when one exists, otherwise calls the
// inner provider and stores its answer. Strict requests bypass the cache
// entirely: each strict retry exists to give the service a fresh chance,
// and replaying an earlier rejected answer would defeat it.
func (p *CachedProvider) Review(ctx context.Context, req ReviewRequest) (*model.ReviewResponse, error) {
	if req.Strict {
		return p.inner.Review(ctx, req)
	}

	key := p.key(req)

	if data, found := p.store.Get(key); found {
		var resp model.ReviewResponse
		if err := json.Unmarshal(data, &resp); err == nil {
			return &resp, nil
		}
		_ = p.store.Delete(key) // unreadable entry, refetch
	}

	resp, err := p.inner.Review(ctx, req)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(resp); err == nil {
		_ = p.store.Set(key, data, p.ttl)
	}
	return resp, nil
}

func (p *CachedProvider) key(req ReviewRequest) string {
	ids := make([]string, 0, len(req.Rules))
	for _, rule := range req.Rules {
		ids = append(ids, string(rule.Source)+":"+rule.ID)
	}
	sort.Strings(ids)

	parts := append([]string{req.Citation.FullText}, ids...)
	return cache.Key(parts...)
}
