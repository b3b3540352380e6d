package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	api "github.com/mmynk/susu/pkg/api"
)

func TestAuthService(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	ama := env.register(t, "ama")
	if ama.token == "" || ama.id == "" {
		t.Fatal("expected user ID and token from Register")
	}

	t.Run("duplicate email", func(t *testing.T) {
		_, err := env.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
			Email:       "ama@example.com",
			DisplayName: "Ama again",
			Password:    "another horse",
		}))
		assertCode(t, err, connect.CodeAlreadyExists)
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := env.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
			Email:       "kojo@example.com",
			DisplayName: "Kojo",
			Password:    "short",
		}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := env.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
			Email:       "kojo.example.com",
			DisplayName: "Kojo",
			Password:    "correct horse",
		}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("login", func(t *testing.T) {
		resp, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Email:    "ama@example.com",
			Password: "correct horse",
		}))
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if resp.Msg.User.Id != ama.id {
			t.Errorf("Login returned user %s, want %s", resp.Msg.User.Id, ama.id)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Email:    "ama@example.com",
			Password: "wrong horse",
		}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})

	t.Run("current user", func(t *testing.T) {
		resp, err := env.auth.GetCurrentUser(ctx, as(ama, &api.GetCurrentUserRequest{}))
		if err != nil {
			t.Fatalf("GetCurrentUser failed: %v", err)
		}
		if resp.Msg.User.DisplayName != "ama" || resp.Msg.User.Email != "ama@example.com" {
			t.Errorf("GetCurrentUser = %+v", resp.Msg.User)
		}
	})

	t.Run("current user needs a token", func(t *testing.T) {
		_, err := env.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
		assertCode(t, err, connect.CodeUnauthenticated)

		bad := testUser{token: "not-a-jwt"}
		_, err = env.auth.GetCurrentUser(ctx, as(bad, &api.GetCurrentUserRequest{}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})
}
