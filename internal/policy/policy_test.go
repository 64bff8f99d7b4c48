package policy

import (
	"testing"

	"hbnb/internal/models"

	"github.com/stretchr/testify/assert"
)

var (
	anon  = Anonymous()
	alice = Principal{UserID: "alice"}
	bob   = Principal{UserID: "bob"}
	admin = Principal{UserID: "root", IsAdmin: true}
)

func assertRule(t *testing.T, err error, code string, rule models.Rule) {
	t.Helper()
	if code == "" {
		assert.NoError(t, err)
		return
	}
	if assert.Error(t, err) {
		assert.Equal(t, code, models.ErrorCode(err))
		if rule != "" {
			var appErr *models.AppError
			if assert.ErrorAs(t, err, &appErr) {
				assert.Equal(t, rule, appErr.Rule)
			}
		}
	}
}

func TestUserRules(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		rule models.Rule
	}{
		{"anonymous cannot list", CanListUsers(anon), models.CodeUnauthorized, ""},
		{"user cannot list", CanListUsers(alice), models.CodeForbidden, models.RuleAdminRequired},
		{"admin lists", CanListUsers(admin), "", ""},
		{"self reads", CanReadUser(alice, "alice"), "", ""},
		{"other cannot read", CanReadUser(bob, "alice"), models.CodeForbidden, models.RuleOwnership},
		{"admin reads anyone", CanReadUser(admin, "alice"), "", ""},
		{"self deletes", CanDeleteUser(alice, "alice"), "", ""},
		{"other cannot delete", CanDeleteUser(bob, "alice"), models.CodeForbidden, models.RuleOwnership},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertRule(t, tt.err, tt.code, tt.rule)
		})
	}
}

func TestCanUpdateUser(t *testing.T) {
	tests := []struct {
		name      string
		principal Principal
		target    string
		changes   map[string]any
		code      string
		rule      models.Rule
	}{
		{"self names", alice, "alice", map[string]any{"first_name": "A"}, "", ""},
		{"unknown keys are fine", alice, "alice", map[string]any{"favorite_color": "red"}, "", ""},
		{"other user", bob, "alice", map[string]any{"first_name": "A"}, models.CodeForbidden, models.RuleOwnership},
		{"self email", alice, "alice", map[string]any{"email": "x@y.z"}, models.CodeValidation, ""},
		{"admin password", admin, "alice", map[string]any{"password": "x"}, models.CodeValidation, ""},
		{"self promotes", alice, "alice", map[string]any{"is_admin": true}, models.CodeForbidden, models.RuleFieldNotAllowed},
		{"admin promotes", admin, "alice", map[string]any{"is_admin": true}, "", ""},
		{"anonymous", anon, "alice", map[string]any{}, models.CodeUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertRule(t, CanUpdateUser(tt.principal, tt.target, tt.changes), tt.code, tt.rule)
		})
	}
}

func TestPlaceAndAmenityRules(t *testing.T) {
	place := &models.Place{OwnerID: "alice"}

	assertRule(t, CanCreatePlace(anon), models.CodeUnauthorized, "")
	assertRule(t, CanCreatePlace(bob), "", "")
	assertRule(t, CanModifyPlace(alice, place), "", "")
	assertRule(t, CanModifyPlace(bob, place), models.CodeForbidden, models.RuleOwnership)
	assertRule(t, CanModifyPlace(admin, place), "", "")

	assertRule(t, CanManageAmenity(alice), models.CodeForbidden, models.RuleAdminRequired)
	assertRule(t, CanManageAmenity(admin), "", "")
}

func TestReviewRules(t *testing.T) {
	place := &models.Place{OwnerID: "alice"}
	review := &models.Review{UserID: "bob"}

	assertRule(t, CanCreateReview(bob, place, false), "", "")
	assertRule(t, CanCreateReview(alice, place, false), models.CodeForbidden, models.RuleSelfReview)
	assertRule(t, CanCreateReview(bob, place, true), models.CodeForbidden, models.RuleDuplicateReview)
	assertRule(t, CanCreateReview(alice, place, true), models.CodeForbidden, models.RuleSelfReview)
	assertRule(t, CanCreateReview(anon, place, false), models.CodeUnauthorized, "")

	assertRule(t, CanModifyReview(bob, review), "", "")
	assertRule(t, CanModifyReview(alice, review), models.CodeForbidden, models.RuleOwnership)
	assertRule(t, CanModifyReview(admin, review), "", "")
}
