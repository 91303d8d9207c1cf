package user

import (
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/shikkhaloy/shikkhaloy/core"
)

// User is the authentication principal. Its public face is the Profile sharing its ID.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    null.Time `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// Profile is the account as the portal knows it: one-to-one with a User.
type Profile struct {
	ID        string      `json:"id" db:"id"`
	Name      string      `json:"name" db:"name"`
	Mobile    string      `json:"mobile" db:"mobile"`
	Email     null.String `json:"email" db:"email"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

// IsEmail tells whether an identifier is shaped like an email address rather than a mobile number.
func IsEmail(identifier string) bool {
	addr, err := mail.ParseAddress(identifier)
	return err == nil && addr.Address == identifier
}

// Registration contains the information needed to create a new account.
type Registration struct {
	Name     string `json:"name" validate:"required,max=255"`
	Mobile   string `json:"mobile" validate:"required,mobile"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

func (r *Registration) Clean() {
	r.Name = core.CleanString(r.Name)
	r.Mobile = CleanMobile(r.Mobile)
	r.Email = core.CleanString(r.Email, true /* lower */)
}

func (r *Registration) Validate(validate *validator.Validate) error {
	r.Clean()
	return validate.Struct(r)
}

// ProfileUpdate defines what information may be provided to modify a Profile.
type ProfileUpdate struct {
	Name   string `json:"name" validate:"omitempty,max=255"`
	Mobile string `json:"mobile" validate:"omitempty,mobile"`
}

func (pu *ProfileUpdate) Validate(validate *validator.Validate, orig Profile) error {
	if name := core.CleanString(pu.Name); name != "" {
		pu.Name = name
	} else {
		pu.Name = orig.Name
	}
	if mobile := CleanMobile(pu.Mobile); mobile != "" {
		pu.Mobile = mobile
	} else {
		pu.Mobile = orig.Mobile
	}
	return validate.Struct(pu)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp *ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

// CleanMobile trims the number and drops inner spaces & dashes.
func CleanMobile(mobile string) string {
	mobile = core.CleanString(mobile)
	out := make([]rune, 0, len(mobile))
	for _, r := range mobile {
		if r == ' ' || r == '-' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// GetFilter selects one record by the first non-empty field.
type GetFilter struct {
	ID     string
	Email  string
	Mobile string
}
