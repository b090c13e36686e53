package credentials

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestIssuer(t *testing.T, secret string, ttl time.Duration) (*Issuer, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)}
	i, err := newIssuer([]byte(secret), ttl, clock.Now)
	if err != nil {
		t.Fatal(err)
	}
	return i, clock
}

func TestIssueAndVerify(t *testing.T) {
	i, _ := newTestIssuer(t, "super-secret", time.Minute)
	tk, err := i.Issue("a@b.com")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := i.Verify(tk)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "a@b.com" || claims.User != "a@b.com" {
		t.Fatalf("unexpected claims %#v", claims)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Minute {
		t.Fatalf("token should live %v got %v", time.Minute, got)
	}
}

func TestTokenExpiryBoundary(t *testing.T) {
	const ttl = 30 * time.Second
	i, clock := newTestIssuer(t, "super-secret", ttl)
	tk, err := i.Issue("a@b.com")
	if err != nil {
		t.Fatal(err)
	}

	clock.Advance(ttl - time.Second)
	if _, err := i.Verify(tk); err != nil {
		t.Fatalf("token should be accepted one second before expiry, got %v", err)
	}

	clock.Advance(2 * time.Second)
	_, err = i.Verify(tk)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("token should be expired one second after expiry, got %v", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	right, _ := newTestIssuer(t, "right-secret", time.Minute)
	wrong, _ := newTestIssuer(t, "wrong-secret", time.Minute)
	tk, err := right.Issue("u1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wrong.Verify(tk); err == nil {
		t.Fatal("token signed with another secret should be rejected")
	}
}

func TestTokenRejectsGarbage(t *testing.T) {
	i, _ := newTestIssuer(t, "secret", time.Minute)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "a@b.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "a@b.com"},
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	for _, tk := range []string{"", "not.a.jwt", "abc", unsigned, noExpiry} {
		if _, err := i.Verify(tk); err == nil {
			t.Errorf("token %q should be rejected", tk)
		}
	}
}

func TestNewIssuerValidation(t *testing.T) {
	if _, err := NewIssuer(nil, time.Minute); err == nil {
		t.Error("empty secret should be rejected")
	}
	if _, err := NewIssuer([]byte("s"), 0); err == nil {
		t.Error("zero lifetime should be rejected")
	}
}
