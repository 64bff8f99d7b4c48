// Package repository implements the storage layer for entity records.
//
// Two interchangeable backends exist: an in-process store and a GORM store
// with one table per kind. Both satisfy Store, so callers never learn which
// one they are talking to.
package repository

import (
	"context"

	"hbnb/internal/models"
)

// Cond is a single column equality used by FindBy.
type Cond struct {
	Column string
	Value  any
}

// Eq builds a Cond.
func Eq(column string, value any) Cond {
	return Cond{Column: column, Value: value}
}

// Repository is the storage contract for one entity kind. A missing id is
// reported through the boolean results, never as an error.
type Repository[P models.Record] interface {
	// Add stamps the record with an id and timestamps if absent and stores it.
	Add(ctx context.Context, rec P) (P, error)
	Get(ctx context.Context, id string) (P, bool, error)
	// GetAll returns every record of the kind. The memory backend keeps
	// insertion order; the GORM backend orders by creation time.
	GetAll(ctx context.Context) ([]P, error)
	// Update applies the recognized keys of changes, refreshes updated_at
	// and returns the stored result.
	Update(ctx context.Context, id string, changes map[string]any) (P, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	// FindBy returns the records matching every condition.
	FindBy(ctx context.Context, conds ...Cond) ([]P, error)
}

// PlaceRepository adds the Place to Amenity link operations.
type PlaceRepository interface {
	Repository[*models.Place]
	// AddAmenity links amenityID to the place. Linking twice is a no-op.
	AddAmenity(ctx context.Context, placeID, amenityID string) (*models.Place, error)
	// DetachAmenity removes every link to amenityID.
	DetachAmenity(ctx context.Context, amenityID string) error
}

// Store groups the repositories of the four kinds.
type Store interface {
	Users() Repository[*models.User]
	Places() PlaceRepository
	Reviews() Repository[*models.Review]
	Amenities() Repository[*models.Amenity]

	// Atomic runs fn against a store whose writes commit together or not at all.
	Atomic(ctx context.Context, fn func(Store) error) error
	// Reset removes every record. Tests and the seed command use it.
	Reset(ctx context.Context) error
}

// recordPtr is the constraint every generic backend uses: a pointer to an
// entity struct that implements models.Record.
type recordPtr[T any] interface {
	*T
	models.Record
}

func checkColumns[T any, P recordPtr[T]](conds []Cond) error {
	probe := P(new(T))
	for _, c := range conds {
		if _, ok := probe.Attr(c.Column); !ok {
			return models.NewValidationError("unknown filter column " + c.Column)
		}
	}
	return nil
}

func tableName(kind models.Kind) string {
	switch kind {
	case models.KindUser:
		return "users"
	case models.KindPlace:
		return "places"
	case models.KindReview:
		return "reviews"
	case models.KindAmenity:
		return "amenities"
	}
	return string(kind)
}
