package models

import "strings"

// Amenity is a feature a Place can offer.
type Amenity struct {
	Base
	Name        string `gorm:"type:varchar(128);not null" json:"name"`
	Description string `gorm:"type:varchar(255);default:''" json:"description"`
}

// AmenityInput carries the fields accepted when an amenity is created.
type AmenityInput struct {
	Name        string
	Description string
}

// NewAmenity validates input and returns a stamped record.
func NewAmenity(in AmenityInput) (*Amenity, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewValidationError("Amenity name is required")
	}
	return &Amenity{
		Base:        newBase(),
		Name:        name,
		Description: in.Description,
	}, nil
}

func (*Amenity) Kind() Kind { return KindAmenity }

func (a *Amenity) Attr(column string) (any, bool) {
	switch column {
	case "id":
		return a.ID, true
	case "name":
		return a.Name, true
	}
	return nil, false
}

func (a *Amenity) Apply(changes map[string]any) error {
	next := *a
	for key, value := range changes {
		switch key {
		case "name":
			s, ok := asString(value)
			if !ok || strings.TrimSpace(s) == "" {
				return NewValidationError("Amenity name is required")
			}
			next.Name = strings.TrimSpace(s)
		case "description":
			s, ok := asString(value)
			if !ok {
				return NewValidationError("description must be a string")
			}
			next.Description = s
		}
	}
	*a = next
	return nil
}
