package credentials

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type (
	// Claims carried by every bearer token. User duplicates the subject so
	// tokens keep the claim older clients look for.
	Claims struct {
		jwt.RegisteredClaims
		User string `json:"user"`
	}

	Issuer struct {
		secret []byte
		ttl    time.Duration
		now    func() time.Time
		parser *jwt.Parser
	}
)

var (
	errEmptySecret = errors.New("credentials: token secret cannot be empty")
	errInvalidTTL  = errors.New("credentials: token lifetime must be positive")
)

func NewIssuer(secret []byte, ttl time.Duration) (*Issuer, error) {
	return newIssuer(secret, ttl, time.Now)
}

func newIssuer(secret []byte, ttl time.Duration, now func() time.Time) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errEmptySecret
	}
	if ttl <= 0 {
		return nil, errInvalidTTL
	}
	i := &Issuer{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    now,
	}
	i.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return i.now() }),
	)
	return i, nil
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue mints a token for subject, valid for the issuer lifetime.
func (i *Issuer) Issue(subject string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		User: subject,
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("unable to sign token for %v, cause %w", subject, err)
	}
	return signed, nil
}

// Verify checks signature and expiration, returning the token claims.
func (i *Issuer) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := i.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	if !parsed.Valid {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		claims.Subject = claims.User
	}
	return claims, nil
}
