package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"hbnb/internal/facade"
	"hbnb/internal/models"
	"hbnb/internal/notifications"
	"hbnb/internal/policy"
	"hbnb/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	models.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Kind+"."+string(ev.Op))
	}
	return out
}

type fixture struct {
	facade    *facade.Facade
	events    *recordingPublisher
	users     *UserService
	places    *PlaceService
	reviews   *ReviewService
	amenities *AmenityService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := facade.New(repository.NewMemoryStore())
	events := &recordingPublisher{}
	return &fixture{
		facade:    f,
		events:    events,
		users:     NewUserService(f, events),
		places:    NewPlaceService(f, events),
		reviews:   NewReviewService(f, events),
		amenities: NewAmenityService(f, events),
	}
}

func (fx *fixture) register(t *testing.T, email string, admin bool) policy.Principal {
	t.Helper()
	caller := policy.Anonymous()
	if admin {
		caller = policy.Principal{UserID: "bootstrap", IsAdmin: true}
	}
	u, err := fx.users.Register(context.Background(), caller, RegisterInput{
		Email:     email,
		Password:  "secret123",
		FirstName: "Test",
		LastName:  "User",
		IsAdmin:   admin,
	})
	require.NoError(t, err)
	return policy.Principal{UserID: u.ID, IsAdmin: u.IsAdmin}
}

func (fx *fixture) place(t *testing.T, owner policy.Principal, amenityIDs ...string) *models.Place {
	t.Helper()
	p, err := fx.places.CreatePlace(context.Background(), owner, CreatePlaceInput{
		Name:          "Loft",
		City:          "Lyon",
		PricePerNight: ptr(80.0),
		Latitude:      ptr(45.76),
		Longitude:     ptr(4.83),
		AmenityIDs:    amenityIDs,
	})
	require.NoError(t, err)
	return p
}

func ptr[T any](v T) *T { return &v }

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertRule(t *testing.T, err error, rule models.Rule) {
	t.Helper()
	assertCode(t, err, models.CodeForbidden)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, rule, appErr.Rule)
}
