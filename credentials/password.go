package credentials

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the cost used by existing deployments.
const DefaultCost = 10

type (
	Hasher struct {
		Cost int
	}
)

func (h Hasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	buf, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", InvalidInput{Field: "pw", Reason: "password longer than 72 bytes"}
	} else if err != nil {
		return "", err
	}
	return string(buf), nil
}

// Verify reports whether password produced hash. Malformed hashes never
// verify.
func (h Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
