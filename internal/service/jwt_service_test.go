package service

import (
	"errors"
	"testing"
	"time"

	"chatsense/internal/domain"
)

func testUser() domain.User {
	return domain.User{
		ID:       "11111111-1111-1111-1111-111111111111",
		Email:    "alice@example.com",
		FullName: "Alice",
	}
}

func TestJWTGenerateAndParse(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("incomplete token pair: %+v", pair)
	}
	if pair.ExpiresIn != 60 {
		t.Fatalf("expected expires_in 60, got %d", pair.ExpiresIn)
	}

	claims, err := svc.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != testUser().ID || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTRefreshRotates(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour)

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next, err := svc.RefreshPair(pair.RefreshToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.AccessToken == pair.AccessToken {
		t.Fatalf("a refresh must mint a new access token")
	}

	// El refresh usado queda revocado.
	if _, err := svc.RefreshPair(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("refresh reuse must fail with ErrJWTInvalid, got %v", err)
	}
}

func TestJWTRejectsAccessAsRefresh(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour)
	pair, _ := svc.GeneratePair(testUser())

	if _, err := svc.RefreshPair(pair.AccessToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("an access token is no good for refresh: %v", err)
	}
	if _, err := svc.ParseAccessToken(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("a refresh token is no good as access: %v", err)
	}
}

func TestJWTExpired(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour)
	svc.accessTTL = -time.Minute

	pair, err := svc.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}

func TestJWTForeignSignature(t *testing.T) {
	a := NewJWTService("secret-a", time.Minute, time.Hour)
	b := NewJWTService("secret-b", time.Minute, time.Hour)

	pair, _ := a.GeneratePair(testUser())
	if _, err := b.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("a foreign signature must be rejected: %v", err)
	}
}

func TestJWTRevokeRefresh(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour)
	pair, _ := svc.GeneratePair(testUser())

	if err := svc.RevokeRefresh(pair.RefreshToken); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.RefreshPair(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("a revoked refresh must fail: %v", err)
	}
}
