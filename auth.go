package main

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"cmsbe/models"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicate          = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// A valid username starts with a letter; the rest may be letters, digits,
// underscore or dash, total length 3-256.
var usernameRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{2,255}$`)

type RegisterInput struct {
	Username   string
	Passphrase string
	FirstName  string
	LastName   string
	Email      string
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// RegisterUser validates the input, hashes the passphrase exactly once with
// the configured cost and persists the record. A unique-constraint violation
// maps to ErrDuplicate, which also covers two concurrent registrations
// racing past any pre-check.
func RegisterUser(in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if !usernameRE.MatchString(in.Username) {
		return nil, validationError("please provide a valid username")
	}
	if len(in.Passphrase) < 10 || len(in.Passphrase) > 256 {
		return nil, validationError("the passphrase must be between 10 and 256 characters")
	}
	if len(in.FirstName) < 1 || len(in.FirstName) > 256 {
		return nil, validationError("the first name must be between 1 and 256 characters")
	}
	if len(in.LastName) < 1 || len(in.LastName) > 256 {
		return nil, validationError("the last name must be between 1 and 256 characters")
	}
	if len(in.Email) > 254 {
		return nil, validationError("the e-mail must be of maximum length 254 characters")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, validationError("please provide a valid email address")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Passphrase), cfg.BcryptRounds)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username:   in.Username,
		Passphrase: hashed,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
	}
	if err := db.Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate looks the user up by username and compares the bcrypt hash.
// A missing user and a wrong passphrase are indistinguishable from outside,
// so usernames cannot be enumerated through this path.
func Authenticate(username, passphrase string) (*models.User, error) {
	username = strings.TrimSpace(username)
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.Passphrase, []byte(passphrase)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}
