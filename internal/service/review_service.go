package service

import (
	"context"

	"hbnb/internal/facade"
	"hbnb/internal/models"
	"hbnb/internal/notifications"
	"hbnb/internal/policy"
)

type ReviewService struct {
	facade *facade.Facade
	emitter
}

// CreateReviewInput is the payload of a new review. UserID defaults to the
// caller; only admins may name somebody else.
type CreateReviewInput struct {
	Text    string
	Rating  *int
	UserID  string
	PlaceID string
}

func NewReviewService(f *facade.Facade, events Publisher) *ReviewService {
	return &ReviewService{facade: f, emitter: emitter{events: events}}
}

// CreateReview stores a review after the place, self-review and duplicate
// checks. The checks and the insert run in one atomic unit so two
// concurrent submissions cannot both pass the duplicate check.
func (s *ReviewService) CreateReview(ctx context.Context, p policy.Principal, in CreateReviewInput) (*models.Review, error) {
	if err := policy.RequireAuthenticated(p); err != nil {
		return nil, err
	}

	author := p
	if in.UserID != "" && in.UserID != p.UserID {
		if !p.IsAdmin {
			return nil, models.NewForbiddenError(models.RuleOwnership, "Unauthorized action")
		}
		author = policy.Principal{UserID: in.UserID}
	}

	review, err := models.NewReview(models.ReviewInput{
		Text:    in.Text,
		Rating:  in.Rating,
		UserID:  author.UserID,
		PlaceID: in.PlaceID,
	})
	if err != nil {
		return nil, err
	}

	var out *models.Review
	err = s.facade.Atomic(ctx, func(tx *facade.Facade) error {
		if author.UserID != p.UserID {
			if _, err := tx.User(ctx, author.UserID); err != nil {
				return err
			}
		}
		place, err := tx.Place(ctx, review.PlaceID)
		if err != nil {
			return err
		}
		_, reviewed, err := tx.ReviewByAuthor(ctx, author.UserID, place.ID)
		if err != nil {
			return err
		}
		if err := policy.CanCreateReview(author, place, reviewed); err != nil {
			return err
		}

		rec, err := tx.Create(ctx, review)
		if err != nil {
			return err
		}
		out = rec.(*models.Review)
		return nil
	})
	if models.IsCode(err, models.CodeConflict) {
		return nil, policy.DuplicateReview()
	}
	if err != nil {
		return nil, err
	}
	s.emit(ctx, models.KindReview, notifications.OpCreated, out.ID, p)
	return out, nil
}

func (s *ReviewService) ListReviews(ctx context.Context) ([]*models.Review, error) {
	return s.facade.Reviews(ctx)
}

func (s *ReviewService) GetReview(ctx context.Context, id string) (*models.Review, error) {
	return s.facade.Review(ctx, id)
}

// UpdateReview changes text and rating. Author and place are fixed.
func (s *ReviewService) UpdateReview(ctx context.Context, p policy.Principal, id string, changes map[string]any) (*models.Review, error) {
	review, err := s.facade.Review(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanModifyReview(p, review); err != nil {
		return nil, err
	}

	rec, ok, err := s.facade.Update(ctx, models.KindReview, id, changes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(models.KindReview)
	}
	s.emit(ctx, models.KindReview, notifications.OpUpdated, id, p)
	return rec.(*models.Review), nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, p policy.Principal, id string) error {
	review, err := s.facade.Review(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.CanModifyReview(p, review); err != nil {
		return err
	}

	removed, err := s.facade.Delete(ctx, models.KindReview, id)
	if err != nil {
		return err
	}
	if !removed {
		return notFound(models.KindReview)
	}
	s.emit(ctx, models.KindReview, notifications.OpDeleted, id, p)
	return nil
}
