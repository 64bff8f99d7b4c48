// Package facade is the single entry point for CRUD over the four entity
// kinds. Dispatch is an explicit switch over models.Kind, or over the
// concrete record type for Create.
package facade

import (
	"context"

	"hbnb/internal/models"
	"hbnb/internal/observability"
	"hbnb/internal/repository"
)

// Facade routes generic calls to the repository of the right kind.
type Facade struct {
	store repository.Store
}

// New returns a facade over store.
func New(store repository.Store) *Facade {
	return &Facade{store: store}
}

// Store exposes the underlying store.
func (f *Facade) Store() repository.Store { return f.store }

// Atomic runs fn with a facade whose writes commit together.
func (f *Facade) Atomic(ctx context.Context, fn func(tx *Facade) error) error {
	return f.store.Atomic(ctx, func(tx repository.Store) error {
		return fn(New(tx))
	})
}

// Reset removes every record.
func (f *Facade) Reset(ctx context.Context) error {
	return f.store.Reset(ctx)
}

// Create stores rec. Records outside the four known kinds are rejected with
// an UNSUPPORTED_TYPE error.
func (f *Facade) Create(ctx context.Context, rec models.Record) (out models.Record, err error) {
	kind := "unknown"
	if rec != nil {
		kind = string(rec.Kind())
	}
	ctx, span := observability.StartFacadeSpan(ctx, "create", kind, "")
	defer func() { observability.EndSpan(span, err) }()

	if nilRecord(rec) {
		return nil, models.NewUnsupportedTypeError(rec)
	}
	switch r := rec.(type) {
	case *models.User:
		out, err = add(ctx, f.store.Users(), r)
	case *models.Place:
		out, err = add[*models.Place](ctx, f.store.Places(), r)
	case *models.Review:
		out, err = add(ctx, f.store.Reviews(), r)
	case *models.Amenity:
		out, err = add(ctx, f.store.Amenities(), r)
	default:
		return nil, models.NewUnsupportedTypeError(rec)
	}
	if err == nil {
		observability.EntityMutations.WithLabelValues(kind, "create").Inc()
	}
	return out, err
}

// nilRecord reports a nil interface or a typed nil pointer.
func nilRecord(rec models.Record) bool {
	switch r := rec.(type) {
	case *models.User:
		return r == nil
	case *models.Place:
		return r == nil
	case *models.Review:
		return r == nil
	case *models.Amenity:
		return r == nil
	}
	return rec == nil
}

// Get returns the record of kind with id, or false when it does not exist.
func (f *Facade) Get(ctx context.Context, kind models.Kind, id string) (models.Record, bool, error) {
	switch kind {
	case models.KindUser:
		return get(ctx, f.store.Users(), id)
	case models.KindPlace:
		return get[*models.Place](ctx, f.store.Places(), id)
	case models.KindReview:
		return get(ctx, f.store.Reviews(), id)
	case models.KindAmenity:
		return get(ctx, f.store.Amenities(), id)
	}
	return nil, false, models.NewUnsupportedTypeError(kind)
}

// Find resolves an id whose kind the caller does not know. Ids are unique
// across kinds, so at most one kind matches.
func (f *Facade) Find(ctx context.Context, id string) (models.Record, bool, error) {
	for _, kind := range models.Kinds {
		rec, ok, err := f.Get(ctx, kind, id)
		if err != nil || ok {
			return rec, ok, err
		}
	}
	return nil, false, nil
}

// GetAll concatenates every record of every kind, in models.Kinds order.
func (f *Facade) GetAll(ctx context.Context) ([]models.Record, error) {
	var out []models.Record
	for _, kind := range models.Kinds {
		recs, err := f.GetAllOf(ctx, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// GetAllOf lists the records of one kind.
func (f *Facade) GetAllOf(ctx context.Context, kind models.Kind) ([]models.Record, error) {
	switch kind {
	case models.KindUser:
		return list(ctx, f.store.Users())
	case models.KindPlace:
		return list[*models.Place](ctx, f.store.Places())
	case models.KindReview:
		return list(ctx, f.store.Reviews())
	case models.KindAmenity:
		return list(ctx, f.store.Amenities())
	}
	return nil, models.NewUnsupportedTypeError(kind)
}

// Update applies the whitelisted keys of changes to the record of kind.
func (f *Facade) Update(ctx context.Context, kind models.Kind, id string, changes map[string]any) (out models.Record, found bool, err error) {
	ctx, span := observability.StartFacadeSpan(ctx, "update", string(kind), id)
	defer func() { observability.EndSpan(span, err) }()

	switch kind {
	case models.KindUser:
		out, found, err = update(ctx, f.store.Users(), id, changes)
	case models.KindPlace:
		out, found, err = update[*models.Place](ctx, f.store.Places(), id, changes)
	case models.KindReview:
		out, found, err = update(ctx, f.store.Reviews(), id, changes)
	case models.KindAmenity:
		out, found, err = update(ctx, f.store.Amenities(), id, changes)
	default:
		return nil, false, models.NewUnsupportedTypeError(kind)
	}
	if err == nil && found {
		observability.EntityMutations.WithLabelValues(string(kind), "update").Inc()
	}
	return out, found, err
}

// Delete removes the record and everything that depends on it:
//
//	user    -> the user's reviews, the user's places (and their reviews)
//	place   -> the place's reviews and amenity links
//	amenity -> its links to places
//
// The cascade runs in one atomic unit.
func (f *Facade) Delete(ctx context.Context, kind models.Kind, id string) (removed bool, err error) {
	ctx, span := observability.StartFacadeSpan(ctx, "delete", string(kind), id)
	defer func() { observability.EndSpan(span, err) }()

	switch kind {
	case models.KindUser, models.KindPlace, models.KindReview, models.KindAmenity:
	default:
		return false, models.NewUnsupportedTypeError(kind)
	}

	err = f.Atomic(ctx, func(tx *Facade) error {
		var err error
		removed, err = tx.deleteCascade(ctx, kind, id)
		return err
	})
	if err == nil && removed {
		observability.EntityMutations.WithLabelValues(string(kind), "delete").Inc()
	}
	return removed, err
}

func (f *Facade) deleteCascade(ctx context.Context, kind models.Kind, id string) (bool, error) {
	switch kind {
	case models.KindUser:
		reviews, err := f.store.Reviews().FindBy(ctx, repository.Eq("user_id", id))
		if err != nil {
			return false, err
		}
		for _, r := range reviews {
			if _, err := f.store.Reviews().Delete(ctx, r.ID); err != nil {
				return false, err
			}
		}
		places, err := f.store.Places().FindBy(ctx, repository.Eq("owner_id", id))
		if err != nil {
			return false, err
		}
		for _, p := range places {
			if _, err := f.deleteCascade(ctx, models.KindPlace, p.ID); err != nil {
				return false, err
			}
		}
		return f.store.Users().Delete(ctx, id)

	case models.KindPlace:
		reviews, err := f.store.Reviews().FindBy(ctx, repository.Eq("place_id", id))
		if err != nil {
			return false, err
		}
		for _, r := range reviews {
			if _, err := f.store.Reviews().Delete(ctx, r.ID); err != nil {
				return false, err
			}
		}
		return f.store.Places().Delete(ctx, id)

	case models.KindAmenity:
		if err := f.store.Places().DetachAmenity(ctx, id); err != nil {
			return false, err
		}
		return f.store.Amenities().Delete(ctx, id)

	case models.KindReview:
		return f.store.Reviews().Delete(ctx, id)
	}
	return false, models.NewUnsupportedTypeError(kind)
}

func add[P models.Record](ctx context.Context, repo repository.Repository[P], rec P) (models.Record, error) {
	out, err := repo.Add(ctx, rec)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func get[P models.Record](ctx context.Context, repo repository.Repository[P], id string) (models.Record, bool, error) {
	rec, ok, err := repo.Get(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	return rec, true, nil
}

func list[P models.Record](ctx context.Context, repo repository.Repository[P]) ([]models.Record, error) {
	recs, err := repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Record, 0, len(recs))
	for _, r := range recs {
		out = append(out, r)
	}
	return out, nil
}

func update[P models.Record](ctx context.Context, repo repository.Repository[P], id string, changes map[string]any) (models.Record, bool, error) {
	rec, ok, err := repo.Update(ctx, id, changes)
	if err != nil || !ok {
		return nil, ok, err
	}
	return rec, true, nil
}
