package facade

import (
	"context"

	"hbnb/internal/models"
	"hbnb/internal/repository"
)

// User returns the user with id or a NOT_FOUND error.
func (f *Facade) User(ctx context.Context, id string) (*models.User, error) {
	return one(ctx, f.store.Users(), id, models.KindUser)
}

// Place returns the place with id or a NOT_FOUND error.
func (f *Facade) Place(ctx context.Context, id string) (*models.Place, error) {
	return one[*models.Place](ctx, f.store.Places(), id, models.KindPlace)
}

// Review returns the review with id or a NOT_FOUND error.
func (f *Facade) Review(ctx context.Context, id string) (*models.Review, error) {
	return one(ctx, f.store.Reviews(), id, models.KindReview)
}

// Amenity returns the amenity with id or a NOT_FOUND error.
func (f *Facade) Amenity(ctx context.Context, id string) (*models.Amenity, error) {
	return one(ctx, f.store.Amenities(), id, models.KindAmenity)
}

func one[P models.Record](ctx context.Context, repo repository.Repository[P], id string, kind models.Kind) (P, error) {
	var zero P
	rec, ok, err := repo.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, models.NewNotFoundError(kind.Label())
	}
	return rec, nil
}

// UserByEmail looks a user up by normalized email. The returned record
// carries the password hash.
func (f *Facade) UserByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	users, err := f.store.Users().FindBy(ctx, repository.Eq("email", models.NormalizeEmail(email)))
	if err != nil || len(users) == 0 {
		return nil, false, err
	}
	return users[0], true, nil
}

// Admins lists the users holding the admin flag.
func (f *Facade) Admins(ctx context.Context) ([]*models.User, error) {
	return f.store.Users().FindBy(ctx, repository.Eq("is_admin", true))
}

// Users lists every user.
func (f *Facade) Users(ctx context.Context) ([]*models.User, error) {
	return f.store.Users().GetAll(ctx)
}

// Places lists every place.
func (f *Facade) Places(ctx context.Context) ([]*models.Place, error) {
	return f.store.Places().GetAll(ctx)
}

// Reviews lists every review.
func (f *Facade) Reviews(ctx context.Context) ([]*models.Review, error) {
	return f.store.Reviews().GetAll(ctx)
}

// Amenities lists every amenity.
func (f *Facade) Amenities(ctx context.Context) ([]*models.Amenity, error) {
	return f.store.Amenities().GetAll(ctx)
}

// PlacesOwnedBy lists the places whose owner is userID.
func (f *Facade) PlacesOwnedBy(ctx context.Context, userID string) ([]*models.Place, error) {
	return f.store.Places().FindBy(ctx, repository.Eq("owner_id", userID))
}

// ReviewsForPlace lists the reviews of placeID.
func (f *Facade) ReviewsForPlace(ctx context.Context, placeID string) ([]*models.Review, error) {
	return f.store.Reviews().FindBy(ctx, repository.Eq("place_id", placeID))
}

// ReviewByAuthor returns userID's review of placeID, if any.
func (f *Facade) ReviewByAuthor(ctx context.Context, userID, placeID string) (*models.Review, bool, error) {
	reviews, err := f.store.Reviews().FindBy(ctx,
		repository.Eq("user_id", userID),
		repository.Eq("place_id", placeID),
	)
	if err != nil || len(reviews) == 0 {
		return nil, false, err
	}
	return reviews[0], true, nil
}

// LinkAmenity attaches amenityID to placeID.
func (f *Facade) LinkAmenity(ctx context.Context, placeID, amenityID string) (*models.Place, error) {
	return f.store.Places().AddAmenity(ctx, placeID, amenityID)
}
