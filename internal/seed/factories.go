package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"hbnb/internal/facade"
	"hbnb/internal/middleware"
	"hbnb/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// DemoPassword is the password of every generated user.
const DemoPassword = "password123"

// Options sizes the generated demo data.
type Options struct {
	Users           int
	PlacesPerUser   int
	ReviewsPerPlace int
	// Seed makes the generated data reproducible when non-zero.
	Seed int64
}

// DemoSummary counts the records Demo created.
type DemoSummary struct {
	Users   int
	Places  int
	Reviews int
}

// Factory builds plausible users, places and reviews and stores them
// through the facade, so every record passes the same validation as API
// input.
type Factory struct {
	facade *facade.Facade
	opts   Options
	rnd    *rand.Rand
}

// NewFactory creates a Factory writing through f.
func NewFactory(f *facade.Facade, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	gofakeit.Seed(seed)
	return &Factory{facade: f, opts: opts, rnd: rand.New(rand.NewSource(seed))}
}

// BuildUser returns an unsaved user. The index keeps emails unique.
func (f *Factory) BuildUser(i int) (*models.User, error) {
	return models.NewUser(models.UserInput{
		Email:     fmt.Sprintf("guest%03d@%s", i, gofakeit.DomainName()),
		Password:  DemoPassword,
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
	})
}

// BuildPlace returns an unsaved place owned by owner with a random subset
// of amenities.
func (f *Factory) BuildPlace(owner *models.User, amenities []*models.Amenity) (*models.Place, error) {
	price := gofakeit.Price(25, 400)
	lat := gofakeit.Latitude()
	lon := gofakeit.Longitude()
	city := gofakeit.City()
	place, err := models.NewPlace(models.PlaceInput{
		Name:          fmt.Sprintf("%s in %s", gofakeit.Sentence(2), city),
		Description:   gofakeit.Paragraph(1, 2, 8, " "),
		City:          city,
		PricePerNight: &price,
		Latitude:      &lat,
		Longitude:     &lon,
		OwnerID:       owner.ID,
	})
	if err != nil {
		return nil, err
	}
	for _, a := range amenities {
		if f.rnd.Intn(2) == 0 {
			place.Amenities = append(place.Amenities, *a)
		}
	}
	return place, nil
}

// BuildReview returns an unsaved review of place by author.
func (f *Factory) BuildReview(author *models.User, place *models.Place) (*models.Review, error) {
	rating := gofakeit.Number(1, 5)
	return models.NewReview(models.ReviewInput{
		Text:    gofakeit.Sentence(12),
		Rating:  &rating,
		UserID:  author.ID,
		PlaceID: place.ID,
	})
}

// Demo generates users, their places and reviews by other users. Nobody
// reviews their own place and nobody reviews a place twice.
func (f *Factory) Demo(ctx context.Context) (DemoSummary, error) {
	var sum DemoSummary
	amenities, err := f.facade.Amenities(ctx)
	if err != nil {
		return sum, err
	}

	users := make([]*models.User, 0, f.opts.Users)
	for i := 0; i < f.opts.Users; i++ {
		u, err := f.BuildUser(i)
		if err != nil {
			return sum, err
		}
		rec, err := f.facade.Create(ctx, u)
		if err != nil {
			return sum, fmt.Errorf("create demo user: %w", err)
		}
		users = append(users, rec.(*models.User))
		sum.Users++
	}

	for _, owner := range users {
		for j := 0; j < f.opts.PlacesPerUser; j++ {
			p, err := f.BuildPlace(owner, amenities)
			if err != nil {
				return sum, err
			}
			rec, err := f.facade.Create(ctx, p)
			if err != nil {
				return sum, fmt.Errorf("create demo place: %w", err)
			}
			place := rec.(*models.Place)
			sum.Places++

			written := 0
			for _, idx := range f.rnd.Perm(len(users)) {
				if written >= f.opts.ReviewsPerPlace {
					break
				}
				author := users[idx]
				if author.ID == owner.ID {
					continue
				}
				r, err := f.BuildReview(author, place)
				if err != nil {
					return sum, err
				}
				if _, err := f.facade.Create(ctx, r); err != nil {
					return sum, fmt.Errorf("create demo review: %w", err)
				}
				written++
				sum.Reviews++
			}
		}
	}

	middleware.Logger.InfoContext(ctx, "Demo data generated",
		slog.Int("users", sum.Users), slog.Int("places", sum.Places), slog.Int("reviews", sum.Reviews))
	return sum, nil
}
