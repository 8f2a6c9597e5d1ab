package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dlms/dlms-backend/internal/model"
)

func TestLoginIssuesRoleToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.CreateUser(ctx, "Officer Tadesse", " Officer@DLMS.test ", "secret123", model.RoleTrafficPolice)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Email != "officer@dlms.test" {
		t.Fatalf("email not normalized: %q", u.Email)
	}

	resp, err := f.auth.Login(ctx, "officer@dlms.test", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := f.auth.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != u.ID || claims.Role != model.RoleTrafficPolice || claims.Name != "Officer Tadesse" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestLoginRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.auth.CreateUser(ctx, "Abebe", "abebe@dlms.test", "secret123", model.RoleCitizen); err != nil {
		t.Fatal(err)
	}
	inactive, err := f.auth.CreateUser(ctx, "Gone", "gone@dlms.test", "secret123", model.RoleCitizen)
	if err != nil {
		t.Fatal(err)
	}
	f.store.Users().SetActive(inactive.ID, false)

	cases := []struct{ email, password string }{
		{"abebe@dlms.test", "wrong-password"},
		{"nobody@dlms.test", "secret123"},
		{"gone@dlms.test", "secret123"},
	}
	for _, tc := range cases {
		if _, err := f.auth.Login(ctx, tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Login(%s) err = %v", tc.email, err)
		}
	}
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	f := newFixture(t)
	token, err := f.auth.GenerateToken(&model.User{ID: 1, Role: model.RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}

	other := testConfig()
	other.JWTSecret = "another-secret"
	if _, err := NewAuthService(other, f.store.Users()).ValidateToken(token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	f := newFixture(t)
	var ve *ValidationError
	if _, err := f.auth.CreateUser(context.Background(), "x", "x@dlms.test", "secret123", "wizard"); !errors.As(err, &ve) {
		t.Fatalf("err = %v", err)
	}
}
