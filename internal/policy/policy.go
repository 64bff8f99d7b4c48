// Package policy decides whether a principal may perform an operation on an
// entity. Every rule returns nil when the operation is allowed and an
// *models.AppError naming the violated rule otherwise. Admins satisfy every
// ownership check.
package policy

import (
	"hbnb/internal/models"
	"hbnb/internal/observability"
)

// Principal is the caller an operation runs on behalf of. The zero value is
// the anonymous principal.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Anonymous returns the unauthenticated principal.
func Anonymous() Principal { return Principal{} }

// Authenticated reports whether the principal carries an identity.
func (p Principal) Authenticated() bool { return p.UserID != "" }

// Owns reports whether the principal is ownerID or an admin.
func (p Principal) Owns(ownerID string) bool {
	return p.IsAdmin || (p.Authenticated() && p.UserID == ownerID)
}

const (
	msgAdminOnly        = "Admin only"
	msgUnauthorized     = "Unauthorized action"
	msgEmailOrPassword  = "You cannot modify email or password here"
	msgAdminFlag        = "Only admins can change is_admin"
	msgSelfReview       = "You cannot review your own place"
	msgDuplicateReview  = "You have already reviewed this place"
	msgMissingPrincipal = "Authentication required"
)

func deny(rule models.Rule, msg string) error {
	observability.PolicyDenials.WithLabelValues(string(rule)).Inc()
	return models.NewForbiddenError(rule, msg)
}

// RequireAuthenticated rejects the anonymous principal.
func RequireAuthenticated(p Principal) error {
	if !p.Authenticated() {
		return models.NewUnauthorizedError(msgMissingPrincipal)
	}
	return nil
}

// RequireAdmin allows admins only.
func RequireAdmin(p Principal) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if !p.IsAdmin {
		return deny(models.RuleAdminRequired, msgAdminOnly)
	}
	return nil
}

func requireOwner(p Principal, ownerID string) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if !p.Owns(ownerID) {
		return deny(models.RuleOwnership, msgUnauthorized)
	}
	return nil
}

// CanListUsers: admins only.
func CanListUsers(p Principal) error { return RequireAdmin(p) }

// CanReadUser: the user themself or an admin.
func CanReadUser(p Principal, userID string) error { return requireOwner(p, userID) }

// CanDeleteUser: the user themself or an admin.
func CanDeleteUser(p Principal, userID string) error { return requireOwner(p, userID) }

// CanUpdateUser checks both who may update userID and which keys of changes
// they may set. email and password are never settable here; is_admin is
// settable by admins only.
func CanUpdateUser(p Principal, userID string, changes map[string]any) error {
	if err := requireOwner(p, userID); err != nil {
		return err
	}
	_, hasEmail := changes["email"]
	_, hasPassword := changes["password"]
	if hasEmail || hasPassword {
		return models.NewValidationError(msgEmailOrPassword)
	}
	if _, ok := changes["is_admin"]; ok && !p.IsAdmin {
		return deny(models.RuleFieldNotAllowed, msgAdminFlag)
	}
	return nil
}

// CanCreatePlace: any authenticated user. The caller becomes the owner.
func CanCreatePlace(p Principal) error { return RequireAuthenticated(p) }

// CanModifyPlace covers update, delete and amenity linking.
func CanModifyPlace(p Principal, place *models.Place) error {
	return requireOwner(p, place.OwnerID)
}

// CanManageAmenity: admins only, for create, update and delete.
func CanManageAmenity(p Principal) error { return RequireAdmin(p) }

// CanCreateReview rejects reviews of one's own place and second reviews of
// the same place. The two checks are independent. Admins are held to them
// too since neither is an ownership check.
func CanCreateReview(p Principal, place *models.Place, alreadyReviewed bool) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if place.OwnerID == p.UserID {
		return deny(models.RuleSelfReview, msgSelfReview)
	}
	if alreadyReviewed {
		return deny(models.RuleDuplicateReview, msgDuplicateReview)
	}
	return nil
}

// DuplicateReview is the rejection for a second review of the same place.
// Storage reports the same condition as a unique violation; services turn
// that into this error.
func DuplicateReview() error {
	return deny(models.RuleDuplicateReview, msgDuplicateReview)
}

// CanModifyReview covers update and delete: the author or an admin.
func CanModifyReview(p Principal, review *models.Review) error {
	return requireOwner(p, review.UserID)
}
