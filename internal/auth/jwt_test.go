package auth

import (
	"testing"
	"time"
)

func TestSessionRoundTrip(t *testing.T) {
	sess, err := IssueSession("alice@example.com", "Alice A", "https://example.com/a.png", "classcall", "secret", time.Hour)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	claims, err := ParseSession(sess.Token, "secret", "classcall")
	if err != nil {
		t.Fatalf("ParseSession: %v", err)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Email = %q, want alice@example.com", claims.Email)
	}
	if claims.Name != "Alice A" {
		t.Errorf("Name = %q, want Alice A", claims.Name)
	}
	if claims.Picture != "https://example.com/a.png" {
		t.Errorf("Picture = %q", claims.Picture)
	}
}

func TestParseSession_WrongKey(t *testing.T) {
	sess, err := IssueSession("alice@example.com", "Alice", "", "classcall", "secret", time.Hour)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	if _, err := ParseSession(sess.Token, "other-secret", "classcall"); err == nil {
		t.Fatal("ParseSession should reject a token signed with another key")
	}
}

func TestParseSession_IssuerMismatch(t *testing.T) {
	sess, err := IssueSession("alice@example.com", "Alice", "", "someone-else", "secret", time.Hour)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	if _, err := ParseSession(sess.Token, "secret", "classcall"); err == nil {
		t.Fatal("ParseSession should reject an issuer mismatch")
	}
}

func TestParseSession_Expired(t *testing.T) {
	sess, err := IssueSession("alice@example.com", "Alice", "", "classcall", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	if _, err := ParseSession(sess.Token, "secret", "classcall"); err == nil {
		t.Fatal("ParseSession should reject an expired token")
	}
}
