package service

import (
	"context"
	"slices"

	"hbnb/internal/facade"
	"hbnb/internal/models"
	"hbnb/internal/notifications"
	"hbnb/internal/policy"
)

type PlaceService struct {
	facade *facade.Facade
	emitter
}

// CreatePlaceInput is the payload of a new listing. The owner is always the
// caller.
type CreatePlaceInput struct {
	Name          string
	Description   string
	City          string
	PricePerNight *float64
	Latitude      *float64
	Longitude     *float64
	AmenityIDs    []string
}

func NewPlaceService(f *facade.Facade, events Publisher) *PlaceService {
	return &PlaceService{facade: f, emitter: emitter{events: events}}
}

func (s *PlaceService) CreatePlace(ctx context.Context, p policy.Principal, in CreatePlaceInput) (*models.Place, error) {
	if err := policy.CanCreatePlace(p); err != nil {
		return nil, err
	}

	place, err := models.NewPlace(models.PlaceInput{
		Name:          in.Name,
		Description:   in.Description,
		City:          in.City,
		PricePerNight: in.PricePerNight,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		OwnerID:       p.UserID,
	})
	if err != nil {
		return nil, err
	}

	var out *models.Place
	err = s.facade.Atomic(ctx, func(tx *facade.Facade) error {
		seen := make([]string, 0, len(in.AmenityIDs))
		for _, id := range in.AmenityIDs {
			if slices.Contains(seen, id) {
				continue
			}
			amenity, err := tx.Amenity(ctx, id)
			if err != nil {
				return err
			}
			seen = append(seen, id)
			place.Amenities = append(place.Amenities, *amenity)
		}

		rec, err := tx.Create(ctx, place)
		if err != nil {
			return err
		}
		out = rec.(*models.Place)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, models.KindPlace, notifications.OpCreated, out.ID, p)
	return out, nil
}

func (s *PlaceService) ListPlaces(ctx context.Context) ([]*models.Place, error) {
	return s.facade.Places(ctx)
}

func (s *PlaceService) GetPlace(ctx context.Context, id string) (*models.Place, error) {
	return s.facade.Place(ctx, id)
}

// UpdatePlace applies the descriptive fields of changes. Ownership is not
// transferable, so owner_id in changes is ignored.
func (s *PlaceService) UpdatePlace(ctx context.Context, p policy.Principal, id string, changes map[string]any) (*models.Place, error) {
	place, err := s.facade.Place(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanModifyPlace(p, place); err != nil {
		return nil, err
	}

	rec, ok, err := s.facade.Update(ctx, models.KindPlace, id, changes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(models.KindPlace)
	}
	s.emit(ctx, models.KindPlace, notifications.OpUpdated, id, p)
	return rec.(*models.Place), nil
}

// DeletePlace removes the place with its reviews.
func (s *PlaceService) DeletePlace(ctx context.Context, p policy.Principal, id string) error {
	place, err := s.facade.Place(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.CanModifyPlace(p, place); err != nil {
		return err
	}

	removed, err := s.facade.Delete(ctx, models.KindPlace, id)
	if err != nil {
		return err
	}
	if !removed {
		return notFound(models.KindPlace)
	}
	s.emit(ctx, models.KindPlace, notifications.OpDeleted, id, p)
	return nil
}

// AddAmenity links an existing amenity to the place. Linking twice is a
// no-op.
func (s *PlaceService) AddAmenity(ctx context.Context, p policy.Principal, placeID, amenityID string) (*models.Place, error) {
	place, err := s.facade.Place(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanModifyPlace(p, place); err != nil {
		return nil, err
	}
	if place.HasAmenity(amenityID) {
		return place, nil
	}

	out, err := s.facade.LinkAmenity(ctx, placeID, amenityID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, models.KindPlace, notifications.OpUpdated, placeID, p)
	return out, nil
}

// PlaceReviews lists the reviews of an existing place.
func (s *PlaceService) PlaceReviews(ctx context.Context, placeID string) ([]*models.Review, error) {
	if _, err := s.facade.Place(ctx, placeID); err != nil {
		return nil, err
	}
	return s.facade.ReviewsForPlace(ctx, placeID)
}
