package utils

import (
	"testing"
	"time"
)

// TestAdminToken_RoundTrip parses what it issued.
func TestAdminToken_RoundTrip(t *testing.T) {
	token, exp, err := GenerateAdminToken("secret", "sid-1", "admin", time.Hour)
	if err != nil {
		t.Fatalf("GenerateAdminToken: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry %v is not in the future", exp)
	}
	claims, err := ParseAdminToken("secret", token)
	if err != nil {
		t.Fatalf("ParseAdminToken: %v", err)
	}
	if claims.SessionID != "sid-1" || claims.Username != "admin" {
		t.Fatalf("claims = %+v", claims)
	}
}

// TestAdminToken_Rejects refuses expired tokens and wrong secrets.
func TestAdminToken_Rejects(t *testing.T) {
	expired, _, err := GenerateAdminToken("secret", "sid", "admin", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateAdminToken: %v", err)
	}
	if _, err := ParseAdminToken("secret", expired); err == nil {
		t.Error("expired token accepted")
	}
	valid, _, _ := GenerateAdminToken("secret", "sid", "admin", time.Hour)
	if _, err := ParseAdminToken("other", valid); err == nil {
		t.Error("token with wrong secret accepted")
	}
}
