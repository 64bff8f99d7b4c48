// Package models contains the entity records of the HBnB domain and the
// invariants enforced when they are built or changed.
package models

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// Kind is the closed set of entity kinds the store understands.
type Kind string

const (
	KindUser    Kind = "user"
	KindPlace   Kind = "place"
	KindReview  Kind = "review"
	KindAmenity Kind = "amenity"
)

// Kinds lists every entity kind in the canonical order used for listings.
var Kinds = []Kind{KindUser, KindPlace, KindReview, KindAmenity}

// Label returns the human name used in client-facing messages.
func (k Kind) Label() string {
	switch k {
	case KindUser:
		return "User"
	case KindPlace:
		return "Place"
	case KindReview:
		return "Review"
	case KindAmenity:
		return "Amenity"
	default:
		return string(k)
	}
}

// Base is the shape shared by every record.
type Base struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// GetID returns the record id.
func (b *Base) GetID() string { return b.ID }

// Meta exposes the shared fields so storage can stamp them.
func (b *Base) Meta() *Base { return b }

// Stamp assigns an id and creation timestamps when they are absent.
func (b *Base) Stamp(now time.Time) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now = Now(now)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
}

// Touch refreshes UpdatedAt after a successful mutation.
func (b *Base) Touch(now time.Time) {
	b.UpdatedAt = Now(now)
}

// Now normalizes t to the precision every backend can store: UTC,
// microseconds.
func Now(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func newBase() Base {
	var b Base
	b.Stamp(time.Now())
	return b
}

// Record is implemented by the four entity kinds.
type Record interface {
	Kind() Kind
	GetID() string
	Meta() *Base
	// Attr returns the value of a queryable column.
	Attr(column string) (any, bool)
	// Apply sets the mutable fields present in changes. Unknown keys are
	// ignored. Either every recognized change is applied or none is.
	Apply(changes map[string]any) error
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}
