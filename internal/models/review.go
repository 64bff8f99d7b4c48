package models

import "strings"

// Review is a rating left by a User on a Place.
type Review struct {
	Base
	Text    string `gorm:"type:varchar(1024);not null" json:"text"`
	Rating  int    `gorm:"not null" json:"rating"`
	UserID  string `gorm:"type:varchar(36);not null;uniqueIndex:idx_reviews_user_place" json:"user_id"`
	PlaceID string `gorm:"type:varchar(36);not null;index;uniqueIndex:idx_reviews_user_place" json:"place_id"`
}

// ReviewInput carries the fields accepted when a review is created.
type ReviewInput struct {
	Text    string
	Rating  *int
	UserID  string
	PlaceID string
}

// NewReview validates input and returns a stamped record.
func NewReview(in ReviewInput) (*Review, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, NewValidationError("Review text is required")
	}
	if in.Rating == nil {
		return nil, NewValidationError("rating is required")
	}
	if err := validateRating(*in.Rating); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.UserID) == "" {
		return nil, NewValidationError("user_id is required")
	}
	if strings.TrimSpace(in.PlaceID) == "" {
		return nil, NewValidationError("place_id is required")
	}

	return &Review{
		Base:    newBase(),
		Text:    text,
		Rating:  *in.Rating,
		UserID:  in.UserID,
		PlaceID: in.PlaceID,
	}, nil
}

func validateRating(r int) error {
	if r < 1 || r > 5 {
		return NewValidationError("Rating must be between 1 and 5")
	}
	return nil
}

func (*Review) Kind() Kind { return KindReview }

func (r *Review) Attr(column string) (any, bool) {
	switch column {
	case "id":
		return r.ID, true
	case "user_id":
		return r.UserID, true
	case "place_id":
		return r.PlaceID, true
	case "rating":
		return r.Rating, true
	}
	return nil, false
}

// Apply updates text and rating. The author and the place are fixed.
func (r *Review) Apply(changes map[string]any) error {
	next := *r
	for key, value := range changes {
		switch key {
		case "text":
			s, ok := asString(value)
			if !ok || strings.TrimSpace(s) == "" {
				return NewValidationError("Review text is required")
			}
			next.Text = strings.TrimSpace(s)
		case "rating":
			n, ok := asInt(value)
			if !ok {
				return NewValidationError("Rating must be between 1 and 5")
			}
			if err := validateRating(n); err != nil {
				return err
			}
			next.Rating = n
		}
	}
	*r = next
	return nil
}
