package models

import (
	"strings"
)

// Place is a rentable property. OwnerID is fixed at construction.
type Place struct {
	Base
	Name          string    `gorm:"type:varchar(128);not null" json:"name"`
	Description   string    `gorm:"type:varchar(1024);default:''" json:"description"`
	City          string    `gorm:"type:varchar(128);not null" json:"city"`
	PricePerNight float64   `gorm:"not null;default:0" json:"price_per_night"`
	Latitude      float64   `gorm:"not null" json:"latitude"`
	Longitude     float64   `gorm:"not null" json:"longitude"`
	OwnerID       string    `gorm:"type:varchar(36);not null;index" json:"owner_id"`
	Amenities     []Amenity `gorm:"many2many:place_amenities;constraint:OnDelete:CASCADE" json:"amenities,omitempty"`
}

// PlaceInput carries the fields accepted when a place is created. Numeric
// fields are pointers so that a missing value is distinguishable from zero.
type PlaceInput struct {
	Name          string
	Description   string
	City          string
	PricePerNight *float64
	Latitude      *float64
	Longitude     *float64
	OwnerID       string
}

// NewPlace validates input and returns a stamped record.
func NewPlace(in PlaceInput) (*Place, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewValidationError("Place name is required")
	}
	city := strings.TrimSpace(in.City)
	if city == "" {
		return nil, NewValidationError("City is required")
	}
	if in.PricePerNight == nil {
		return nil, NewValidationError("price_per_night is required")
	}
	if in.Latitude == nil {
		return nil, NewValidationError("latitude is required")
	}
	if in.Longitude == nil {
		return nil, NewValidationError("longitude is required")
	}
	if err := validatePrice(*in.PricePerNight); err != nil {
		return nil, err
	}
	if err := validateLatitude(*in.Latitude); err != nil {
		return nil, err
	}
	if err := validateLongitude(*in.Longitude); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.OwnerID) == "" {
		return nil, NewValidationError("Owner is required")
	}

	return &Place{
		Base:          newBase(),
		Name:          name,
		Description:   in.Description,
		City:          city,
		PricePerNight: *in.PricePerNight,
		Latitude:      *in.Latitude,
		Longitude:     *in.Longitude,
		OwnerID:       in.OwnerID,
	}, nil
}

func validatePrice(v float64) error {
	if v < 0 {
		return NewValidationError("Price must be non-negative")
	}
	return nil
}

func validateLatitude(v float64) error {
	if v < -90 || v > 90 {
		return NewValidationError("Invalid latitude")
	}
	return nil
}

func validateLongitude(v float64) error {
	if v < -180 || v > 180 {
		return NewValidationError("Invalid longitude")
	}
	return nil
}

func (*Place) Kind() Kind { return KindPlace }

func (p *Place) Attr(column string) (any, bool) {
	switch column {
	case "id":
		return p.ID, true
	case "owner_id":
		return p.OwnerID, true
	case "city":
		return p.City, true
	}
	return nil, false
}

// Apply updates the descriptive and geographic fields. owner_id and
// amenities are not changed here.
func (p *Place) Apply(changes map[string]any) error {
	next := *p
	for key, value := range changes {
		switch key {
		case "name":
			s, ok := asString(value)
			if !ok || strings.TrimSpace(s) == "" {
				return NewValidationError("Place name is required")
			}
			next.Name = strings.TrimSpace(s)
		case "description":
			s, ok := asString(value)
			if !ok {
				return NewValidationError("description must be a string")
			}
			next.Description = s
		case "city":
			s, ok := asString(value)
			if !ok || strings.TrimSpace(s) == "" {
				return NewValidationError("City is required")
			}
			next.City = strings.TrimSpace(s)
		case "price_per_night":
			f, ok := asFloat(value)
			if !ok {
				return NewValidationError("price_per_night must be a number")
			}
			if err := validatePrice(f); err != nil {
				return err
			}
			next.PricePerNight = f
		case "latitude":
			f, ok := asFloat(value)
			if !ok {
				return NewValidationError("Invalid latitude")
			}
			if err := validateLatitude(f); err != nil {
				return err
			}
			next.Latitude = f
		case "longitude":
			f, ok := asFloat(value)
			if !ok {
				return NewValidationError("Invalid longitude")
			}
			if err := validateLongitude(f); err != nil {
				return err
			}
			next.Longitude = f
		}
	}
	*p = next
	return nil
}

// AmenityIDs returns the ids of the linked amenities.
func (p *Place) AmenityIDs() []string {
	ids := make([]string, 0, len(p.Amenities))
	for _, a := range p.Amenities {
		ids = append(ids, a.ID)
	}
	return ids
}

// HasAmenity reports whether the amenity is already linked.
func (p *Place) HasAmenity(amenityID string) bool {
	for _, a := range p.Amenities {
		if a.ID == amenityID {
			return true
		}
	}
	return false
}
