package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken("test-secret", userID, "ADMIN", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	gotID, gotRole, err := ParseToken("test-secret", token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if gotID != userID {
		t.Errorf("user id = %s, want %s", gotID, userID)
	}
	if gotRole != "ADMIN" {
		t.Errorf("role = %q, want ADMIN", gotRole)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("test-secret", uuid.New(), "MEMBER", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, _, err := ParseToken("other-secret", token); err == nil {
		t.Fatal("token signed with a different secret must not parse")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("test-secret", uuid.New(), "MEMBER", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, _, err := ParseToken("test-secret", token); err == nil {
		t.Fatal("expired token must not parse")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, _, err := ParseToken("test-secret", "not-a-jwt"); err == nil {
		t.Fatal("malformed token must not parse")
	}
}
