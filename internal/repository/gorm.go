package repository

import (
	"context"
	"errors"
	"time"

	"hbnb/internal/models"
	"hbnb/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const placeAmenitiesTable = "place_amenities"

// GormStore persists records with one table per kind.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore returns a Store backed by db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() Repository[*models.User] {
	return &gormRepository[models.User, *models.User]{db: s.db, kind: models.KindUser}
}

func (s *GormStore) Places() PlaceRepository {
	return &gormPlaceRepository{gormRepository[models.Place, *models.Place]{
		db:      s.db,
		kind:    models.KindPlace,
		preload: []string{"Amenities"},
	}}
}

func (s *GormStore) Reviews() Repository[*models.Review] {
	return &gormRepository[models.Review, *models.Review]{db: s.db, kind: models.KindReview}
}

func (s *GormStore) Amenities() Repository[*models.Amenity] {
	return &gormRepository[models.Amenity, *models.Amenity]{db: s.db, kind: models.KindAmenity}
}

// Atomic runs fn inside a database transaction. Nested calls use savepoints.
func (s *GormStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{placeAmenitiesTable, "reviews", "places", "amenities", "users"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return models.NewInternalError(err)
			}
		}
		return nil
	})
}

// lockForUpdate adds SELECT ... FOR UPDATE where the dialect supports it.
// SQLite serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

type gormRepository[T any, P recordPtr[T]] struct {
	db      *gorm.DB
	kind    models.Kind
	preload []string
}

func (r *gormRepository[T, P]) query(db *gorm.DB) *gorm.DB {
	for _, assoc := range r.preload {
		db = db.Preload(assoc)
	}
	return db
}

func (r *gormRepository[T, P]) Add(ctx context.Context, rec P) (P, error) {
	defer observability.TrackQuery("add", tableName(r.kind))()

	rec.Meta().Stamp(time.Now())
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(rec).Error; err != nil {
		return nil, writeError(r.kind, err)
	}
	return rec, nil
}

func (r *gormRepository[T, P]) Get(ctx context.Context, id string) (P, bool, error) {
	defer observability.TrackQuery("get", tableName(r.kind))()

	var row T
	if err := r.query(r.db.WithContext(ctx)).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, models.NewInternalError(err)
	}
	return P(&row), true, nil
}

func (r *gormRepository[T, P]) GetAll(ctx context.Context) ([]P, error) {
	defer observability.TrackQuery("get_all", tableName(r.kind))()

	var rows []T
	if err := r.query(r.db.WithContext(ctx)).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return pointers[T, P](rows), nil
}

// Update performs the read-modify-write inside a transaction, holding a row
// lock on PostgreSQL so concurrent updates of the same id serialize.
func (r *gormRepository[T, P]) Update(ctx context.Context, id string, changes map[string]any) (P, bool, error) {
	defer observability.TrackQuery("update", tableName(r.kind))()

	var out P
	found := true
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row T
		if err := lockForUpdate(tx).First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				found = false
				return nil
			}
			return err
		}

		rec := P(&row)
		if err := rec.Apply(changes); err != nil {
			return err
		}
		rec.Meta().Touch(time.Now())
		if err := tx.Omit(clause.Associations).Save(rec).Error; err != nil {
			return err
		}

		var fresh T
		if err := r.query(tx).First(&fresh, "id = ?", id).Error; err != nil {
			return err
		}
		out = P(&fresh)
		return nil
	})
	if err != nil {
		return nil, found, writeError(r.kind, err)
	}
	if !found {
		return nil, false, nil
	}
	return out, true, nil
}

func (r *gormRepository[T, P]) Delete(ctx context.Context, id string) (bool, error) {
	defer observability.TrackQuery("delete", tableName(r.kind))()

	var row T
	rec := P(&row)
	rec.Meta().ID = id

	db := r.db.WithContext(ctx)
	if len(r.preload) > 0 {
		db = db.Select(clause.Associations)
	}
	res := db.Delete(rec)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepository[T, P]) FindBy(ctx context.Context, conds ...Cond) ([]P, error) {
	if err := checkColumns[T, P](conds); err != nil {
		return nil, err
	}
	defer observability.TrackQuery("find", tableName(r.kind))()

	db := r.query(r.db.WithContext(ctx))
	for _, c := range conds {
		db = db.Where(clause.Eq{Column: clause.Column{Name: c.Column}, Value: c.Value})
	}

	var rows []T
	if err := db.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return pointers[T, P](rows), nil
}

func pointers[T any, P recordPtr[T]](rows []T) []P {
	out := make([]P, 0, len(rows))
	for i := range rows {
		out = append(out, P(&rows[i]))
	}
	return out
}

type gormPlaceRepository struct {
	gormRepository[models.Place, *models.Place]
}

// Add stores the place and links the listed amenities that exist.
func (r *gormPlaceRepository) Add(ctx context.Context, p *models.Place) (*models.Place, error) {
	ids := p.AmenityIDs()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		base := gormRepository[models.Place, *models.Place]{db: tx, kind: models.KindPlace}
		if _, err := base.Add(ctx, p); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		var existing []models.Amenity
		if err := tx.Where("id IN ?", ids).Find(&existing).Error; err != nil {
			return err
		}
		for _, a := range existing {
			if err := tx.Exec("INSERT INTO "+placeAmenitiesTable+" (place_id, amenity_id) VALUES (?, ?)", p.ID, a.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, writeError(models.KindPlace, err)
	}

	out, _, err := r.Get(ctx, p.ID)
	return out, err
}

func (r *gormPlaceRepository) AddAmenity(ctx context.Context, placeID, amenityID string) (*models.Place, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var place models.Place
		if err := lockForUpdate(tx).First(&place, "id = ?", placeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Place")
			}
			return err
		}
		var amenity models.Amenity
		if err := tx.First(&amenity, "id = ?", amenityID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Amenity")
			}
			return err
		}

		var n int64
		if err := tx.Table(placeAmenitiesTable).
			Where("place_id = ? AND amenity_id = ?", placeID, amenityID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		if err := tx.Exec("INSERT INTO "+placeAmenitiesTable+" (place_id, amenity_id) VALUES (?, ?)", placeID, amenityID).Error; err != nil {
			return err
		}
		place.Touch(time.Now())
		return tx.Model(&models.Place{}).Where("id = ?", placeID).UpdateColumn("updated_at", place.UpdatedAt).Error
	})
	if err != nil {
		return nil, writeError(models.KindPlace, err)
	}

	out, _, err := r.Get(ctx, placeID)
	return out, err
}

func (r *gormPlaceRepository) DetachAmenity(ctx context.Context, amenityID string) error {
	err := r.db.WithContext(ctx).Exec("DELETE FROM "+placeAmenitiesTable+" WHERE amenity_id = ?", amenityID).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
