package service

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterAndLogin(t *testing.T) {
	services, _, _ := newTestServices(t)
	ctx := context.Background()

	user, access, refresh, err := services.Auth.Register(ctx, "Ana", "ana@example.com", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == "" || access == "" || refresh == "" {
		t.Fatal("register returned empty identity or tokens")
	}
	if user.Email != "ana@example.com" {
		t.Errorf("email = %q, want normalized", user.Email)
	}

	if _, _, _, err := services.Auth.Register(ctx, "Ana", "ANA@example.com", "password123"); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate register err = %v, want ErrUserExists", err)
	}

	if _, _, _, err := services.Auth.Login(ctx, "ana@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, _, err := services.Auth.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	services, _, _ := newTestServices(t)
	ctx := context.Background()

	_, _, refresh, err := services.Auth.Register(ctx, "Ana", "ana@example.com", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	access2, refresh2, err := services.Auth.RefreshToken(ctx, refresh)
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}
	if access2 == "" || refresh2 == "" || refresh2 == refresh {
		t.Fatal("refresh did not rotate tokens")
	}

	// The consumed token is dead.
	if _, _, err := services.Auth.RefreshToken(ctx, refresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("reused token err = %v, want ErrInvalidToken", err)
	}

	if err := services.Auth.Logout(ctx, refresh2); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, _, err := services.Auth.RefreshToken(ctx, refresh2); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("post-logout refresh err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenValidation(t *testing.T) {
	services, _, _ := newTestServices(t)
	ctx := context.Background()

	user, access, _, err := services.Auth.Register(ctx, "Ana", "ana@example.com", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	token, err := services.Auth.ValidateToken(access)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	userID, err := services.Auth.GetUserIDFromToken(token)
	if err != nil || userID != user.ID {
		t.Errorf("token subject = %q, %v; want %q", userID, err, user.ID)
	}

	if _, err := services.Auth.ValidateToken("not.a.jwt"); err == nil {
		t.Error("garbage token validated")
	}
}
