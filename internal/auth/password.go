package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/susu/internal/models"
	"github.com/mmynk/susu/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8

	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72

	// MaxDisplayNameLength bounds the name other members see, in runes.
	MaxDisplayNameLength = 64
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = fmt.Errorf("password must be %d to %d bytes", MinPasswordLength, MaxPasswordBytes)
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("email address is not valid")
	ErrInvalidDisplayName = fmt.Errorf("display name must be 1 to %d characters", MaxDisplayNameLength)
)

var validate = validator.New()

// UserStorage defines the interface for user persistence operations.
// Lookups return an error wrapping storage.ErrNotFound for unknown users.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// PasswordAuthenticator signs members in with an email and a bcrypt-hashed
// password. The email doubles as the payer contact sent to the payment
// gateway, so it is stored trimmed and lower-cased.
type PasswordAuthenticator struct {
	users UserStorage
	cost  int
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(users UserStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{users: users, cost: bcrypt.DefaultCost}
}

// ValidateCredential checks the password length against bcrypt's limits.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < MinPasswordLength || len(credential) > MaxPasswordBytes {
		return ErrWeakPassword
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address and checks that it is a
// bare address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email"); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// NormalizeDisplayName trims surrounding space and enforces the length bound.
func NormalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := validate.Var(name, fmt.Sprintf("required,max=%d", MaxDisplayNameLength)); err != nil {
		return "", ErrInvalidDisplayName
	}
	return name, nil
}

// Register creates a member account.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, displayName, credential string) (*models.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	displayName, err = NormalizeDisplayName(displayName)
	if err != nil {
		return nil, err
	}
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	switch _, err := a.users.GetUserByEmail(ctx, email); {
	case err == nil:
		return nil, ErrEmailExists
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credential), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(email, displayName, string(hash))
	if err := a.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate returns the member for email if credential matches. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
