package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/AkshatJain-webdev/Natours/pkg/validator"
)

// DefaultPhoto is assigned to users who never uploaded one.
const DefaultPhoto = "default.jpg"

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var namePattern = regexp.MustCompile(`(?i)^[a-z ,.'-]+$`)

// User represents a registered account.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
	Role  string `json:"role"`

	PasswordHash         string     `json:"-"`
	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetToken   string     `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`

	// Active is false once the user deleted their account. Inactive users
	// are hidden from every lookup.
	Active bool `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
}

// Normalize trims the name, lowercases the email and fills defaults.
func (u *User) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Photo == "" {
		u.Photo = DefaultPhoto
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
}

// Validate checks the stored fields. Passwords are checked separately by
// ValidatePassword since only their hash is kept.
func (u *User) Validate() error {
	var v validator.Violations
	if u.Name == "" {
		v.Add("name", "Please provide a name")
	} else {
		v.Check(namePattern.MatchString(u.Name), "name", "Please provide a valid name")
	}
	if u.Email == "" {
		v.Add("email", "Please provide an email")
	} else {
		v.Email(u.Email, "email", "Please provide a valid email")
	}
	v.Check(IsValidRole(u.Role), "role", "Role is either: user, guide, lead-guide or admin")
	return v.Err()
}

// ValidatePassword checks a new password and its confirmation.
func ValidatePassword(password, confirm string) error {
	var v validator.Violations
	switch {
	case password == "":
		v.Add("password", "Please provide a password")
	case len(password) < MinPasswordLength:
		v.Add("password", "A password must have at least 8 characters")
	}
	switch {
	case confirm == "":
		v.Add("passwordConfirm", "Please confirm your password")
	case confirm != password:
		v.Add("passwordConfirm", "Passwords are not the same!")
	}
	return v.Err()
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at iat. Both are compared in whole seconds.
func (u *User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > iat.Unix()
}

// FirstName is the first word of the name, used to greet the user.
func (u *User) FirstName() string {
	name, _, _ := strings.Cut(strings.TrimSpace(u.Name), " ")
	return name
}
