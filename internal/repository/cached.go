package repository

import (
	"context"
	"errors"
	"sync"

	"hbnb/internal/cache"
	"hbnb/internal/models"
	"hbnb/internal/observability"
)

var errAbsent = errors.New("record absent")

// CachedStore serves Get through the Redis cache-aside helpers and drops
// cached copies on every write. Without a Redis client it is a pass-through.
//
// Cached users carry no password hash (it is never serialized), so
// credential checks must go through FindBy.
type CachedStore struct {
	inner Store
	// pending is set inside Atomic. Evictions are replayed once the
	// transaction has finished.
	pending *evictions
}

// NewCachedStore wraps inner.
func NewCachedStore(inner Store) *CachedStore {
	return &CachedStore{inner: inner}
}

func (s *CachedStore) Users() Repository[*models.User] {
	return &cachedRepository[models.User, *models.User]{Repository: s.inner.Users(), store: s, kind: models.KindUser}
}

func (s *CachedStore) Places() PlaceRepository {
	inner := s.inner.Places()
	return &cachedPlaceRepository{
		cachedRepository: cachedRepository[models.Place, *models.Place]{Repository: inner, store: s, kind: models.KindPlace},
		places:           inner,
	}
}

func (s *CachedStore) Reviews() Repository[*models.Review] {
	return &cachedRepository[models.Review, *models.Review]{Repository: s.inner.Reviews(), store: s, kind: models.KindReview}
}

// Amenities invalidates cached places on writes since places embed them.
func (s *CachedStore) Amenities() Repository[*models.Amenity] {
	return &cachedRepository[models.Amenity, *models.Amenity]{
		Repository: s.inner.Amenities(),
		store:      s,
		kind:       models.KindAmenity,
		dependents: []models.Kind{models.KindPlace},
	}
}

// Atomic evicts as it goes and evicts the same keys again after the inner
// transaction returns, so rows cached by readers before the commit do not
// outlive it.
func (s *CachedStore) Atomic(ctx context.Context, fn func(Store) error) error {
	pending := s.pending
	if pending == nil {
		pending = &evictions{}
		defer pending.replay(ctx)
	}
	return s.inner.Atomic(ctx, func(tx Store) error {
		return fn(&CachedStore{inner: tx, pending: pending})
	})
}

func (s *CachedStore) Reset(ctx context.Context) error {
	if err := s.inner.Reset(ctx); err != nil {
		return err
	}
	return cache.Flush(ctx)
}

// evict drops a cached record, or every record of kind when id is empty.
func (s *CachedStore) evict(ctx context.Context, kind models.Kind, id string) {
	dropCached(ctx, kind, id)
	if s.pending != nil {
		s.pending.add(kind, id)
	}
}

type eviction struct {
	kind models.Kind
	id   string
}

type evictions struct {
	mu   sync.Mutex
	keys []eviction
}

func (e *evictions) add(kind models.Kind, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys = append(e.keys, eviction{kind: kind, id: id})
}

func (e *evictions) replay(ctx context.Context) {
	e.mu.Lock()
	keys := e.keys
	e.keys = nil
	e.mu.Unlock()

	for _, k := range keys {
		dropCached(ctx, k.kind, k.id)
	}
}

func dropCached(ctx context.Context, kind models.Kind, id string) {
	if id == "" {
		cache.InvalidateKind(ctx, string(kind))
		return
	}
	cache.InvalidateRecord(ctx, string(kind), id)
}

type cachedRepository[T any, P recordPtr[T]] struct {
	Repository[P]
	store      *CachedStore
	kind       models.Kind
	dependents []models.Kind
}

func (r *cachedRepository[T, P]) Get(ctx context.Context, id string) (P, bool, error) {
	// Uncommitted rows never reach the cache.
	if r.store.pending != nil {
		return r.Repository.Get(ctx, id)
	}

	var row T
	result := "hit"
	err := cache.Aside(ctx, cache.RecordKey(string(r.kind), id), &row, cache.RecordTTL, func() error {
		result = "miss"
		rec, ok, err := r.Repository.Get(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errAbsent
		}
		row = *rec
		return nil
	})
	observability.CacheLookups.WithLabelValues(string(r.kind), result).Inc()

	if errors.Is(err, errAbsent) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return P(&row), true, nil
}

func (r *cachedRepository[T, P]) Update(ctx context.Context, id string, changes map[string]any) (P, bool, error) {
	out, ok, err := r.Repository.Update(ctx, id, changes)
	r.invalidate(ctx, id)
	return out, ok, err
}

func (r *cachedRepository[T, P]) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.Repository.Delete(ctx, id)
	r.invalidate(ctx, id)
	return ok, err
}

func (r *cachedRepository[T, P]) invalidate(ctx context.Context, id string) {
	r.store.evict(ctx, r.kind, id)
	for _, k := range r.dependents {
		r.store.evict(ctx, k, "")
	}
}

type cachedPlaceRepository struct {
	cachedRepository[models.Place, *models.Place]
	places PlaceRepository
}

func (r *cachedPlaceRepository) AddAmenity(ctx context.Context, placeID, amenityID string) (*models.Place, error) {
	out, err := r.places.AddAmenity(ctx, placeID, amenityID)
	r.invalidate(ctx, placeID)
	return out, err
}

func (r *cachedPlaceRepository) DetachAmenity(ctx context.Context, amenityID string) error {
	err := r.places.DetachAmenity(ctx, amenityID)
	r.store.evict(ctx, models.KindPlace, "")
	return err
}
