package service

import (
	"context"

	"hbnb/internal/facade"
	"hbnb/internal/models"
	"hbnb/internal/notifications"
	"hbnb/internal/policy"
)

// AmenityService manages the amenity catalog. Reads are public, writes are
// admin only.
type AmenityService struct {
	facade *facade.Facade
	emitter
}

func NewAmenityService(f *facade.Facade, events Publisher) *AmenityService {
	return &AmenityService{facade: f, emitter: emitter{events: events}}
}

func (s *AmenityService) CreateAmenity(ctx context.Context, p policy.Principal, in models.AmenityInput) (*models.Amenity, error) {
	if err := policy.CanManageAmenity(p); err != nil {
		return nil, err
	}
	amenity, err := models.NewAmenity(in)
	if err != nil {
		return nil, err
	}
	rec, err := s.facade.Create(ctx, amenity)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, models.KindAmenity, notifications.OpCreated, rec.GetID(), p)
	return rec.(*models.Amenity), nil
}

func (s *AmenityService) ListAmenities(ctx context.Context) ([]*models.Amenity, error) {
	return s.facade.Amenities(ctx)
}

func (s *AmenityService) GetAmenity(ctx context.Context, id string) (*models.Amenity, error) {
	return s.facade.Amenity(ctx, id)
}

func (s *AmenityService) UpdateAmenity(ctx context.Context, p policy.Principal, id string, changes map[string]any) (*models.Amenity, error) {
	if err := policy.CanManageAmenity(p); err != nil {
		return nil, err
	}
	rec, ok, err := s.facade.Update(ctx, models.KindAmenity, id, changes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(models.KindAmenity)
	}
	s.emit(ctx, models.KindAmenity, notifications.OpUpdated, id, p)
	return rec.(*models.Amenity), nil
}

// DeleteAmenity removes the amenity and unlinks it from every place.
func (s *AmenityService) DeleteAmenity(ctx context.Context, p policy.Principal, id string) error {
	if err := policy.CanManageAmenity(p); err != nil {
		return err
	}
	removed, err := s.facade.Delete(ctx, models.KindAmenity, id)
	if err != nil {
		return err
	}
	if !removed {
		return notFound(models.KindAmenity)
	}
	s.emit(ctx, models.KindAmenity, notifications.OpDeleted, id, p)
	return nil
}
