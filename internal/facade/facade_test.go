package facade

import (
	"context"
	"testing"
	"time"

	"hbnb/internal/models"
	"hbnb/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	models.PasswordCost = bcrypt.MinCost
}

// strayRecord satisfies models.Record without being one of the four kinds.
type strayRecord struct{ models.Base }

func (*strayRecord) Kind() models.Kind          { return "stray" }
func (*strayRecord) Attr(string) (any, bool)    { return nil, false }
func (*strayRecord) Apply(map[string]any) error { return nil }

func ptr[V any](v V) *V { return &v }

type fixture struct {
	f      *Facade
	owner  *models.User
	guest  *models.User
	place  *models.Place
	wifi   *models.Amenity
	review *models.Review
}

func newFixture(t *testing.T, store repository.Store) fixture {
	t.Helper()
	ctx := context.Background()
	f := New(store)

	mustCreate := func(rec models.Record) models.Record {
		out, err := f.Create(ctx, rec)
		require.NoError(t, err)
		return out
	}

	owner, err := models.NewUser(models.UserInput{Email: "owner@example.com", Password: "pw"})
	require.NoError(t, err)
	guest, err := models.NewUser(models.UserInput{Email: "guest@example.com", Password: "pw"})
	require.NoError(t, err)
	wifi, err := models.NewAmenity(models.AmenityInput{Name: "WiFi"})
	require.NoError(t, err)

	fx := fixture{f: f}
	fx.owner = mustCreate(owner).(*models.User)
	fx.guest = mustCreate(guest).(*models.User)
	fx.wifi = mustCreate(wifi).(*models.Amenity)

	place, err := models.NewPlace(models.PlaceInput{
		Name: "Cabin", City: "Oslo",
		PricePerNight: ptr(80.0), Latitude: ptr(1.0), Longitude: ptr(2.0),
		OwnerID: fx.owner.ID,
	})
	require.NoError(t, err)
	fx.place = mustCreate(place).(*models.Place)
	_, err = f.LinkAmenity(ctx, fx.place.ID, fx.wifi.ID)
	require.NoError(t, err)

	review, err := models.NewReview(models.ReviewInput{Text: "Great", Rating: ptr(5), UserID: fx.guest.ID, PlaceID: fx.place.ID})
	require.NoError(t, err)
	fx.review = mustCreate(review).(*models.Review)
	return fx
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return models.Now(time.Now()) },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Amenity{}, &models.Place{}, &models.Review{}))
	return db
}

func stores(t *testing.T) map[string]repository.Store {
	return map[string]repository.Store{
		"memory": repository.NewMemoryStore(),
		"gorm":   repository.NewGormStore(openSQLite(t)),
	}
}

func TestCreate_UnsupportedType(t *testing.T) {
	f := New(repository.NewMemoryStore())

	_, err := f.Create(context.Background(), &strayRecord{})
	assert.True(t, models.IsCode(err, models.CodeUnsupportedType))

	_, err = f.Create(context.Background(), nil)
	assert.True(t, models.IsCode(err, models.CodeUnsupportedType))

	for _, rec := range []models.Record{(*models.User)(nil), (*models.Place)(nil), (*models.Review)(nil), (*models.Amenity)(nil)} {
		out, err := f.Create(context.Background(), rec)
		assert.Nil(t, out)
		assert.True(t, models.IsCode(err, models.CodeUnsupportedType), "%T", rec)
	}
}

func TestGet_ByKind(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			fx := newFixture(t, store)
			ctx := context.Background()

			rec, ok, err := fx.f.Get(ctx, models.KindPlace, fx.place.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "Cabin", rec.(*models.Place).Name)

			// Right id, wrong kind.
			_, ok, err = fx.f.Get(ctx, models.KindUser, fx.place.ID)
			require.NoError(t, err)
			assert.False(t, ok)

			_, _, err = fx.f.Get(ctx, models.Kind("stray"), fx.place.ID)
			assert.True(t, models.IsCode(err, models.CodeUnsupportedType))
		})
	}
}

func TestFind_ResolvesAnyKind(t *testing.T) {
	fx := newFixture(t, repository.NewMemoryStore())
	ctx := context.Background()

	for _, id := range []string{fx.owner.ID, fx.place.ID, fx.review.ID, fx.wifi.ID} {
		rec, ok, err := fx.f.Find(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, id, rec.GetID())
	}

	_, ok, err := fx.f.Find(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetAll_ConcatenatesKindsInOrder(t *testing.T) {
	fx := newFixture(t, repository.NewMemoryStore())

	all, err := fx.f.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 5)

	kinds := make([]models.Kind, 0, len(all))
	for _, r := range all {
		kinds = append(kinds, r.Kind())
	}
	assert.Equal(t, []models.Kind{
		models.KindUser, models.KindUser, models.KindPlace, models.KindReview, models.KindAmenity,
	}, kinds)

	places, err := fx.f.GetAllOf(context.Background(), models.KindPlace)
	require.NoError(t, err)
	assert.Len(t, places, 1)
}

func TestUpdate_ByKind(t *testing.T) {
	fx := newFixture(t, repository.NewMemoryStore())
	ctx := context.Background()

	rec, ok, err := fx.f.Update(ctx, models.KindReview, fx.review.ID, map[string]any{"rating": 3, "place_id": "elsewhere"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, rec.(*models.Review).Rating)
	assert.Equal(t, fx.place.ID, rec.(*models.Review).PlaceID)

	_, ok, err = fx.f.Update(ctx, models.KindAmenity, "missing", map[string]any{"name": "x"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete_UserCascades(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			fx := newFixture(t, store)
			ctx := context.Background()

			removed, err := fx.f.Delete(ctx, models.KindUser, fx.owner.ID)
			require.NoError(t, err)
			assert.True(t, removed)

			_, err = fx.f.Place(ctx, fx.place.ID)
			assert.True(t, models.IsCode(err, models.CodeNotFound))
			_, err = fx.f.Review(ctx, fx.review.ID)
			assert.True(t, models.IsCode(err, models.CodeNotFound))

			// Unrelated records survive.
			_, err = fx.f.User(ctx, fx.guest.ID)
			assert.NoError(t, err)
			_, err = fx.f.Amenity(ctx, fx.wifi.ID)
			assert.NoError(t, err)
		})
	}
}

func TestDelete_ReviewAuthorCascades(t *testing.T) {
	fx := newFixture(t, repository.NewMemoryStore())
	ctx := context.Background()

	removed, err := fx.f.Delete(ctx, models.KindUser, fx.guest.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	reviews, err := fx.f.ReviewsForPlace(ctx, fx.place.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)
	_, err = fx.f.Place(ctx, fx.place.ID)
	assert.NoError(t, err)
}

func TestDelete_PlaceCascades(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			fx := newFixture(t, store)
			ctx := context.Background()

			removed, err := fx.f.Delete(ctx, models.KindPlace, fx.place.ID)
			require.NoError(t, err)
			assert.True(t, removed)

			reviews, err := fx.f.Reviews(ctx)
			require.NoError(t, err)
			assert.Empty(t, reviews)
			_, err = fx.f.Amenity(ctx, fx.wifi.ID)
			assert.NoError(t, err)

			removed, err = fx.f.Delete(ctx, models.KindPlace, fx.place.ID)
			require.NoError(t, err)
			assert.False(t, removed)
		})
	}
}

func TestDelete_AmenityUnlinks(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			fx := newFixture(t, store)
			ctx := context.Background()

			removed, err := fx.f.Delete(ctx, models.KindAmenity, fx.wifi.ID)
			require.NoError(t, err)
			assert.True(t, removed)

			place, err := fx.f.Place(ctx, fx.place.ID)
			require.NoError(t, err)
			assert.Empty(t, place.Amenities)
		})
	}
}

func TestLookups(t *testing.T) {
	fx := newFixture(t, repository.NewMemoryStore())
	ctx := context.Background()

	u, ok, err := fx.f.UserByEmail(ctx, "  OWNER@example.com ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fx.owner.ID, u.ID)

	owned, err := fx.f.PlacesOwnedBy(ctx, fx.owner.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	r, ok, err := fx.f.ReviewByAuthor(ctx, fx.guest.ID, fx.place.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fx.review.ID, r.ID)

	_, ok, err = fx.f.ReviewByAuthor(ctx, fx.owner.ID, fx.place.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	admins, err := fx.f.Admins(ctx)
	require.NoError(t, err)
	assert.Empty(t, admins)

	_, err = fx.f.User(ctx, "missing")
	assert.Equal(t, "User not found", err.Error())
}
