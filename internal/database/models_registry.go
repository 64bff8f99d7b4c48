package database

import "hbnb/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Amenity precedes Place so the join table can reference both.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Amenity{},
		&models.Place{},
		&models.Review{},
	}
}
