package cache

import (
	"context"

	"go.uber.org/zap"

	"local-marketplace/internal/domain"
	"local-marketplace/internal/store"
)

// Repository is a read-through cache in front of a store.Repository for slug lookups.
// Writes go straight to the store and then evict the affected slugs. Cache failures are
// logged and never fail the request.
type Repository[T any, PT store.DocPtr[T]] struct {
	inner      store.Repository[T]
	cache      *SlugCache
	collection string
}

// Wrap puts c in front of inner. A nil cache returns inner unchanged.
func Wrap[T any, PT store.DocPtr[T]](inner store.Repository[T], c *SlugCache, collection string) store.Repository[T] {
	if c == nil {
		return inner
	}
	return &Repository[T, PT]{inner: inner, cache: c, collection: collection}
}

func (r *Repository[T, PT]) Create(ctx context.Context, doc *T) (*T, error) {
	return r.inner.Create(ctx, doc)
}

func (r *Repository[T, PT]) GetByID(ctx context.Context, id string) (*T, error) {
	return r.inner.GetByID(ctx, id)
}

func (r *Repository[T, PT]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	slug = domain.NormalizeSlug(slug)
	cached := new(T)
	hit, err := r.cache.Get(ctx, r.collection, slug, cached)
	if err != nil {
		r.cache.logger.Warn("cache read failed", zap.String("collection", r.collection), zap.String("slug", slug), zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	doc, err := r.inner.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, r.collection, slug, doc); err != nil {
		r.cache.logger.Warn("cache write failed", zap.String("collection", r.collection), zap.String("slug", slug), zap.Error(err))
	}
	return doc, nil
}

func (r *Repository[T, PT]) List(ctx context.Context, params store.ListParams) ([]T, int, error) {
	return r.inner.List(ctx, params)
}

func (r *Repository[T, PT]) Update(ctx context.Context, doc *T) (*T, error) {
	previous := ""
	if old, err := r.inner.GetByID(ctx, PT(doc).Base().ID); err == nil {
		previous = PT(old).SlugKey()
	}
	updated, err := r.inner.Update(ctx, doc)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, previous, PT(updated).SlugKey())
	return updated, nil
}

func (r *Repository[T, PT]) Delete(ctx context.Context, id string) error {
	previous := ""
	if old, err := r.inner.GetByID(ctx, id); err == nil {
		previous = PT(old).SlugKey()
	}
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.evict(ctx, previous)
	return nil
}

func (r *Repository[T, PT]) evict(ctx context.Context, slugs ...string) {
	if err := r.cache.Invalidate(ctx, r.collection, slugs...); err != nil {
		r.cache.logger.Warn("cache eviction failed", zap.String("collection", r.collection), zap.Strings("slugs", slugs), zap.Error(err))
	}
}
