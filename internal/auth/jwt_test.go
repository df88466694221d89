package auth

import (
	"testing"
	"time"
)

func TestIssueParseRoundTrip(t *testing.T) {
	token, expiresAt, err := Issue("admin", "admin", "facetrack", "test-key", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if until := time.Until(expiresAt); until < 55*time.Minute || until > time.Hour {
		t.Errorf("expiresAt %s not about an hour out", expiresAt)
	}

	claims, err := Parse(token, "test-key", "facetrack")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "admin" || claims.Role != "admin" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	token, _, err := Issue("admin", "admin", "facetrack", "key-a", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := Parse(token, "key-b", "facetrack"); err == nil {
		t.Error("expected signature error with the wrong key")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, _, err := Issue("admin", "admin", "someone-else", "test-key", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := Parse(token, "test-key", "facetrack"); err == nil {
		t.Error("expected issuer mismatch error")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, _, err := Issue("admin", "admin", "facetrack", "test-key", -time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := Parse(token, "test-key", "facetrack"); err == nil {
		t.Error("expected expiry error")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("not.a.token", "test-key", "facetrack"); err == nil {
		t.Error("expected parse error")
	}
}
