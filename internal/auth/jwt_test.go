// Platewise | 2026
// jwt_test.go

package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/platewise/backend/internal/config"
	"github.com/platewise/backend/internal/core"
)

func newTestJWTManager(t *testing.T, expire time.Duration) *JWTManager {
	t.Helper()

	dir := t.TempDir()
	privatePath := filepath.Join(dir, "jwt_private.pem")
	publicPath := filepath.Join(dir, "jwt_public.pem")

	if err := GenerateKeyPair(privatePath, publicPath); err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	manager, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     privatePath,
		PublicKeyPath:      publicPath,
		AccessTokenExpire:  expire,
		RefreshTokenExpire: 30 * 24 * time.Hour,
		Issuer:             "platewise-test",
		Audience:           "platewise-api",
	})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return manager
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	manager := newTestJWTManager(t, 15*time.Minute)

	claims := AccessTokenClaims{
		MemberID:        "aaaaaaaa-0000-0000-0000-000000000001",
		Role:            "manager",
		EstablishmentID: "11111111-1111-1111-1111-111111111111",
		TokenVersion:    3,
	}

	token, err := manager.CreateAccessToken(claims)
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}

	verified, err := manager.VerifyAccessToken(context.Background(), token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}

	if verified.MemberID != claims.MemberID {
		t.Errorf("member id = %q, want %q", verified.MemberID, claims.MemberID)
	}
	if verified.Role != claims.Role {
		t.Errorf("role = %q, want %q", verified.Role, claims.Role)
	}
	if verified.EstablishmentID != claims.EstablishmentID {
		t.Errorf("establishment id = %q, want %q",
			verified.EstablishmentID, claims.EstablishmentID)
	}
	if verified.TokenVersion != claims.TokenVersion {
		t.Errorf("token version = %d, want %d",
			verified.TokenVersion, claims.TokenVersion)
	}
}

func TestVerifyAccessTokenExpired(t *testing.T) {
	t.Parallel()

	manager := newTestJWTManager(t, -time.Minute)

	token, err := manager.CreateAccessToken(AccessTokenClaims{
		MemberID: "aaaaaaaa-0000-0000-0000-000000000001",
		Role:     "employee",
	})
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}

	_, err = manager.VerifyAccessToken(context.Background(), token)
	if !errors.Is(err, core.ErrTokenExpired) {
		t.Fatalf("error = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyAccessTokenRejectsForeignKey(t *testing.T) {
	t.Parallel()

	signer := newTestJWTManager(t, 15*time.Minute)
	verifier := newTestJWTManager(t, 15*time.Minute)

	token, err := signer.CreateAccessToken(AccessTokenClaims{
		MemberID: "aaaaaaaa-0000-0000-0000-000000000001",
		Role:     "manager",
	})
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}

	_, err = verifier.VerifyAccessToken(context.Background(), token)
	if !errors.Is(err, core.ErrTokenInvalid) {
		t.Fatalf("error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyAccessTokenGarbage(t *testing.T) {
	t.Parallel()

	manager := newTestJWTManager(t, 15*time.Minute)

	_, err := manager.VerifyAccessToken(
		context.Background(), "not.a.token")
	if !errors.Is(err, core.ErrTokenInvalid) {
		t.Fatalf("error = %v, want ErrTokenInvalid", err)
	}
}
