package credentials

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordRoundTrip(t *testing.T) {
	h := Hasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("abcdefg1")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "abcdefg1" {
		t.Fatal("hash must not be the password")
	}
	if !h.Verify("abcdefg1", hash) {
		t.Fatal("exact password should verify")
	}
	for _, wrong := range []string{"", "abcdefg", "abcdefg12", "ABCDEFG1", " abcdefg1", hash} {
		if h.Verify(wrong, hash) {
			t.Errorf("password %q should not verify", wrong)
		}
	}
}

func TestPasswordSalted(t *testing.T) {
	h := Hasher{Cost: bcrypt.MinCost}
	first, err := h.Hash("same-password-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := h.Hash("same-password-1")
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("two hashes of the same password should differ")
	}
}

func TestPasswordMalformedHash(t *testing.T) {
	h := Hasher{}
	for _, hash := range []string{"", "not-a-hash", "$2a$10$short"} {
		if h.Verify("", hash) || h.Verify("abcdefg1", hash) {
			t.Errorf("malformed hash %q should never verify", hash)
		}
	}
}

func TestPasswordTooLong(t *testing.T) {
	_, err := Hasher{Cost: bcrypt.MinCost}.Hash(strings.Repeat("a", 73))
	var invalid InvalidInput
	if !errors.As(err, &invalid) {
		t.Fatalf("long passwords should be rejected as invalid input, got %v", err)
	}
}
