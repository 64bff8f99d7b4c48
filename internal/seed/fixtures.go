// Package seed loads reference data and generates demo data for
// development and testing.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"

	"hbnb/internal/facade"
	"hbnb/internal/middleware"
	"hbnb/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/default.yml
var defaultFixtures []byte

// UserFixture is a user with a fixed id.
type UserFixture struct {
	ID        string `yaml:"id"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	IsAdmin   bool   `yaml:"is_admin"`
}

// AmenityFixture is an amenity with a fixed id.
type AmenityFixture struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Fixtures is the reference data applied by Apply.
type Fixtures struct {
	Users     []UserFixture    `yaml:"users"`
	Amenities []AmenityFixture `yaml:"amenities"`
}

// Summary counts what Apply created.
type Summary struct {
	Users     int
	Amenities int
}

// LoadFixtures decodes a YAML fixture document.
func LoadFixtures(r io.Reader) (*Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &fx, nil
}

// DefaultFixtures returns the bundled admin account and amenity catalog.
func DefaultFixtures() *Fixtures {
	var fx Fixtures
	if err := yaml.Unmarshal(defaultFixtures, &fx); err != nil {
		panic(fmt.Sprintf("bundled fixtures are invalid: %v", err))
	}
	return &fx
}

// Apply creates the fixture records that do not exist yet. Users are
// matched by email and amenities by id, so running it twice is harmless.
func Apply(ctx context.Context, f *facade.Facade, fx *Fixtures) (Summary, error) {
	var sum Summary
	err := f.Atomic(ctx, func(tx *facade.Facade) error {
		sum = Summary{}
		for _, uf := range fx.Users {
			if _, exists, err := tx.UserByEmail(ctx, uf.Email); err != nil {
				return err
			} else if exists {
				continue
			}
			user, err := models.NewUser(models.UserInput{
				Email:     uf.Email,
				Password:  uf.Password,
				FirstName: uf.FirstName,
				LastName:  uf.LastName,
				IsAdmin:   uf.IsAdmin,
			})
			if err != nil {
				return fmt.Errorf("fixture user %s: %w", uf.Email, err)
			}
			if uf.ID != "" {
				user.ID = uf.ID
			}
			if _, err := tx.Create(ctx, user); err != nil {
				return fmt.Errorf("fixture user %s: %w", uf.Email, err)
			}
			sum.Users++
		}

		for _, af := range fx.Amenities {
			if af.ID != "" {
				if _, exists, err := tx.Get(ctx, models.KindAmenity, af.ID); err != nil {
					return err
				} else if exists {
					continue
				}
			}
			amenity, err := models.NewAmenity(models.AmenityInput{Name: af.Name, Description: af.Description})
			if err != nil {
				return fmt.Errorf("fixture amenity %s: %w", af.Name, err)
			}
			if af.ID != "" {
				amenity.ID = af.ID
			}
			if _, err := tx.Create(ctx, amenity); err != nil {
				return fmt.Errorf("fixture amenity %s: %w", af.Name, err)
			}
			sum.Amenities++
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	middleware.Logger.InfoContext(ctx, "Fixtures applied",
		slog.Int("users", sum.Users), slog.Int("amenities", sum.Amenities))
	return sum, nil
}
