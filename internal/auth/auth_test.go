package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/susu/internal/models"
	"github.com/mmynk/susu/internal/storage"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*models.User)}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[strings.ToLower(user.Email)] = user
	return nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[strings.ToLower(email)]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
}

func (m *memoryUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := NewPasswordAuthenticator(newMemoryUsers())

	if _, err := a.Register(ctx, "kofi@example.com", "Kofi", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}

	user, err := a.Register(ctx, "kofi@example.com", "Kofi", "correct horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.PasswordHash == "correct horse" {
		t.Error("password stored in plain text")
	}

	if _, err := a.Register(ctx, "kofi@example.com", "Kofi", "another pass"); !errors.Is(err, ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}

	got, err := a.Authenticate(ctx, "kofi@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("Authenticate returned %s, want %s", got.ID, user.ID)
	}

	if _, err := a.Authenticate(ctx, "kofi@example.com", "wrong horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := a.Authenticate(ctx, "nobody@example.com", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestRegisterNormalizesProfile(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUsers()
	a := NewPasswordAuthenticator(users)

	user, err := a.Register(ctx, "  Abena@Example.COM ", "  Abena Mensah ", "correct horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "abena@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "abena@example.com")
	}
	if user.DisplayName != "Abena Mensah" {
		t.Errorf("DisplayName = %q, want %q", user.DisplayName, "Abena Mensah")
	}

	if _, err := a.Register(ctx, "ABENA@example.com", "Abena", "another pass"); !errors.Is(err, ErrEmailExists) {
		t.Errorf("expected ErrEmailExists for case variant, got %v", err)
	}
	if _, err := a.Authenticate(ctx, " ABENA@example.com", "correct horse"); err != nil {
		t.Errorf("Authenticate with case variant failed: %v", err)
	}

	tests := []struct {
		name        string
		email       string
		displayName string
		password    string
		wantErr     error
	}{
		{"missing at sign", "abena.example.com", "Abena", "correct horse", ErrInvalidEmail},
		{"named address", "Abena <abena2@example.com>", "Abena", "correct horse", ErrInvalidEmail},
		{"blank display name", "yaw@example.com", "   ", "correct horse", ErrInvalidDisplayName},
		{"long display name", "yaw@example.com", strings.Repeat("y", MaxDisplayNameLength+1), "correct horse", ErrInvalidDisplayName},
		{"password over bcrypt limit", "yaw@example.com", "Yaw", strings.Repeat("p", MaxPasswordBytes+1), ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Register(ctx, tt.email, tt.displayName, tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("0123456789abcdef", time.Hour)
	user := &models.User{ID: "u-1", Email: "esi@example.com", DisplayName: "Esi"}

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != "u-1" || claims.DisplayName != "Esi" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("fedcba9876543210", time.Hour)
		if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		later := NewJWTManager("0123456789abcdef", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		if _, err := later.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Validate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}
