package claims

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dealgrid/dealgrid/internal/errs"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func mintToken(t *testing.T, key []byte, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Access{
		Email:    "pat@example.com",
		TenantID: "tenant-1",
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-key-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	raw, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return raw
}

func TestParse(t *testing.T) {
	t.Parallel()

	raw := mintToken(t, testKey, time.Hour)
	c, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Subject != "user-key-1" || c.Email != "pat@example.com" || c.TenantID != "tenant-1" || c.Role != "admin" {
		t.Fatalf("claims = %+v", c)
	}
	if c.ExpiresAt.Before(c.IssuedAt) {
		t.Fatalf("expiry %v before issue %v", c.ExpiresAt, c.IssuedAt)
	}
	if c.Expired(time.Now()) {
		t.Fatalf("fresh token reported expired")
	}
	if !c.Expired(time.Now().Add(2 * time.Hour)) {
		t.Fatalf("token past expiry reported valid")
	}
}

func TestParse_Garbage(t *testing.T) {
	t.Parallel()

	if _, err := Parse("not.a.token"); err == nil {
		t.Fatalf("want error for malformed token")
	}
}

func TestParseVerified(t *testing.T) {
	t.Parallel()

	raw := mintToken(t, testKey, time.Hour)
	c, err := ParseVerified(raw, testKey)
	if err != nil {
		t.Fatalf("ParseVerified: %v", err)
	}
	if c.Subject != "user-key-1" {
		t.Fatalf("subject = %q", c.Subject)
	}
}

func TestParseVerified_WrongKey(t *testing.T) {
	t.Parallel()

	raw := mintToken(t, testKey, time.Hour)
	_, err := ParseVerified(raw, []byte("another-key-another-key-another!"))
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestParseVerified_Expired(t *testing.T) {
	t.Parallel()

	raw := mintToken(t, testKey, -time.Minute)
	_, err := ParseVerified(raw, testKey)
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestParseVerified_RejectsNonHMAC(t *testing.T) {
	t.Parallel()

	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Access{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-key-1"},
	})
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseVerified(raw, testKey); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for alg none, got %v", err)
	}
}
