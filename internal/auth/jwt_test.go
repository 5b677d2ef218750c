package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("test-secret", 7*24*time.Hour)

	token, err := m.Issue("user-1", "sam@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if claims.UserID != "user-1" || claims.Email != "sam@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != 7*24*time.Hour {
		t.Fatalf("got ttl %s, want 168h", ttl)
	}
}

func TestVerify_Expired(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issuedAt }

	token, err := m.Issue("user-1", "sam@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = time.Now

	_, err = m.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
}

func TestVerify_Tampered(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.Issue("user-1", "sam@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	forged := NewManager("other-secret", time.Hour)
	otherToken, _ := forged.Issue("user-2", "eve@example.com")
	otherParts := strings.Split(otherToken, ".")

	tests := map[string]string{
		"wrong secret":    otherToken,
		"swapped payload": parts[0] + "." + otherParts[1] + "." + parts[2],
		"truncated":       parts[0] + "." + parts[1],
		"garbage":         "not-a-token",
		"empty":           "",
	}

	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(tok)
			if !errors.Is(err, ErrTokenInvalid) {
				t.Fatalf("got %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	claims := Claims{
		UserID: "user-1",
		Email:  "sam@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	if _, err := m.Verify(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_RequiresExpiry(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "user-1"}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.Verify(tok); err == nil {
		t.Fatalf("expected token without exp to be rejected")
	}
}
