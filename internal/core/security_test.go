// Platewise | 2026
// security_test.go

package core

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("hash format = %q", hash)
	}

	valid, err := VerifyPassword("correct horse battery staple", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error: %v", err)
	}
	if !valid {
		t.Fatalf("correct password rejected")
	}

	valid, err = VerifyPassword("wrong password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error: %v", err)
	}
	if valid {
		t.Fatalf("wrong password accepted")
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("same input")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	second, err := HashPassword("same input")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if first == second {
		t.Fatalf("two hashes of the same password are identical")
	}
}

func TestVerifyPasswordTimingSafeMissingHash(t *testing.T) {
	t.Parallel()

	valid, _, err := VerifyPasswordTimingSafe("anything", nil)
	if err != nil {
		t.Fatalf("nil hash returned error: %v", err)
	}
	if valid {
		t.Fatalf("nil hash verified as valid")
	}

	empty := ""
	valid, _, err = VerifyPasswordTimingSafe("anything", &empty)
	if err != nil {
		t.Fatalf("empty hash returned error: %v", err)
	}
	if valid {
		t.Fatalf("empty hash verified as valid")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	t.Parallel()

	if _, err := VerifyPassword("pw", "not-an-argon-hash"); err == nil {
		t.Fatalf("malformed hash did not error")
	}
}

func TestRefreshTokenHashing(t *testing.T) {
	t.Parallel()

	token, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("generated token is empty")
	}

	hash := HashToken(token)
	if hash == token {
		t.Fatalf("token stored unhashed")
	}
	if !CompareTokenHash(token, hash) {
		t.Fatalf("token does not match its own hash")
	}
	if CompareTokenHash("tampered", hash) {
		t.Fatalf("foreign token matched the hash")
	}
}
