package service

import (
	"context"

	"hbnb/internal/facade"
	"hbnb/internal/models"
	"hbnb/internal/notifications"
	"hbnb/internal/policy"
)

type UserService struct {
	facade *facade.Facade
	emitter
}

// RegisterInput is the payload of a registration. IsAdmin is honored only
// when an admin registers the account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	IsAdmin   bool
}

func NewUserService(f *facade.Facade, events Publisher) *UserService {
	return &UserService{facade: f, emitter: emitter{events: events}}
}

// Register creates an account. Anyone may register; only an admin may
// create another admin.
func (s *UserService) Register(ctx context.Context, p policy.Principal, in RegisterInput) (*models.User, error) {
	if in.IsAdmin && !p.IsAdmin {
		return nil, models.NewForbiddenError(models.RuleFieldNotAllowed, "Only admins can change is_admin")
	}

	user, err := models.NewUser(models.UserInput{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		IsAdmin:   in.IsAdmin,
	})
	if err != nil {
		return nil, err
	}

	if _, exists, err := s.facade.UserByEmail(ctx, user.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, models.NewConflictError("Email already registered")
	}

	rec, err := s.facade.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, models.KindUser, notifications.OpCreated, rec.GetID(), p)
	return rec.(*models.User), nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, ok, err := s.facade.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !ok || !user.CheckPassword(password) {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// Principal resolves the caller behind a verified token. The admin flag is
// read from storage so revocations apply without waiting for token expiry.
func (s *UserService) Principal(ctx context.Context, userID string) (policy.Principal, error) {
	rec, ok, err := s.facade.Get(ctx, models.KindUser, userID)
	if err != nil {
		return policy.Anonymous(), err
	}
	if !ok {
		return policy.Anonymous(), models.NewUnauthorizedError("User no longer exists")
	}
	user := rec.(*models.User)
	return policy.Principal{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}

func (s *UserService) ListUsers(ctx context.Context, p policy.Principal) ([]*models.User, error) {
	if err := policy.CanListUsers(p); err != nil {
		return nil, err
	}
	return s.facade.Users(ctx)
}

func (s *UserService) GetUser(ctx context.Context, p policy.Principal, id string) (*models.User, error) {
	if err := policy.CanReadUser(p, id); err != nil {
		return nil, err
	}
	return s.facade.User(ctx, id)
}

// UpdateUser applies first_name, last_name and, for admins, is_admin.
func (s *UserService) UpdateUser(ctx context.Context, p policy.Principal, id string, changes map[string]any) (*models.User, error) {
	if err := policy.CanUpdateUser(p, id, changes); err != nil {
		return nil, err
	}
	rec, ok, err := s.facade.Update(ctx, models.KindUser, id, changes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(models.KindUser)
	}
	s.emit(ctx, models.KindUser, notifications.OpUpdated, id, p)
	return rec.(*models.User), nil
}

// DeleteUser removes the account with its places and reviews.
func (s *UserService) DeleteUser(ctx context.Context, p policy.Principal, id string) error {
	if err := policy.CanDeleteUser(p, id); err != nil {
		return err
	}
	removed, err := s.facade.Delete(ctx, models.KindUser, id)
	if err != nil {
		return err
	}
	if !removed {
		return notFound(models.KindUser)
	}
	s.emit(ctx, models.KindUser, notifications.OpDeleted, id, p)
	return nil
}

// SetAdmin grants or revokes the admin flag. It backs the operator CLI and
// performs no authorization of its own.
func (s *UserService) SetAdmin(ctx context.Context, id string, isAdmin bool) (*models.User, error) {
	rec, ok, err := s.facade.Update(ctx, models.KindUser, id, map[string]any{"is_admin": isAdmin})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(models.KindUser)
	}
	s.emit(ctx, models.KindUser, notifications.OpUpdated, id, policy.Anonymous())
	return rec.(*models.User), nil
}

// FindUser resolves an id or an email address.
func (s *UserService) FindUser(ctx context.Context, idOrEmail string) (*models.User, error) {
	if user, ok, err := s.facade.UserByEmail(ctx, idOrEmail); err != nil {
		return nil, err
	} else if ok {
		return user, nil
	}
	return s.facade.User(ctx, idOrEmail)
}

// Admins lists the users holding the admin flag.
func (s *UserService) Admins(ctx context.Context) ([]*models.User, error) {
	return s.facade.Admins(ctx)
}
