package models

import (
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// PasswordCost is the bcrypt cost used when hashing new passwords.
var PasswordCost = bcrypt.DefaultCost

// User represents an account. It owns Places as landlord and Reviews as author.
type User struct {
	Base
	Email     string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string `gorm:"type:varchar(255);not null" json:"-"`
	FirstName string `gorm:"type:varchar(128);not null;default:''" json:"first_name"`
	LastName  string `gorm:"type:varchar(128);not null;default:''" json:"last_name"`
	IsAdmin   bool   `gorm:"not null;default:false" json:"is_admin"`
}

// UserInput carries the fields accepted when a user is created.
type UserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	IsAdmin   bool
}

// NewUser validates input, hashes the password and returns a stamped record.
func NewUser(in UserInput) (*User, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, NewValidationError("Email is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, NewValidationError("Invalid email format")
	}
	if in.Password == "" {
		return nil, NewValidationError("Password is required")
	}

	u := &User{
		Base:      newBase(),
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		IsAdmin:   in.IsAdmin,
	}
	if err := u.SetPassword(in.Password); err != nil {
		return nil, err
	}
	return u, nil
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword replaces the stored hash. Plaintext is never kept.
func (u *User) SetPassword(plain string) error {
	if plain == "" {
		return NewValidationError("Password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return NewInternalError(err)
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	if u.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

func (*User) Kind() Kind { return KindUser }

func (u *User) Attr(column string) (any, bool) {
	switch column {
	case "id":
		return u.ID, true
	case "email":
		return u.Email, true
	case "is_admin":
		return u.IsAdmin, true
	}
	return nil, false
}

// Apply updates first_name, last_name and is_admin. Email and password are
// not reachable through this path.
func (u *User) Apply(changes map[string]any) error {
	next := *u
	for key, value := range changes {
		switch key {
		case "first_name":
			s, ok := asString(value)
			if !ok {
				return NewValidationError("first_name must be a string")
			}
			next.FirstName = strings.TrimSpace(s)
		case "last_name":
			s, ok := asString(value)
			if !ok {
				return NewValidationError("last_name must be a string")
			}
			next.LastName = strings.TrimSpace(s)
		case "is_admin":
			b, ok := asBool(value)
			if !ok {
				return NewValidationError("is_admin must be a boolean")
			}
			next.IsAdmin = b
		}
	}
	*u = next
	return nil
}
