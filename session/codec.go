package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	DefaultName           = "session"
	DefaultDuration       = 30 * time.Minute
	DefaultActiveDuration = 5 * time.Minute

	keySize   = 32
	nonceSize = 24
	keyInfo   = "credbox/session/v1"
)

type (
	Options struct {
		Name string
		// Duration is the lifetime of a freshly set session.
		Duration time.Duration
		// ActiveDuration extends a session that is about to expire,
		// as long as the browser keeps using it.
		ActiveDuration time.Duration
		// Secure restricts the cookie to https.
		Secure bool
	}

	Codec struct {
		opts Options
		key  [keySize]byte
	}

	InvalidSecret struct{}
)

func (InvalidSecret) Error() string {
	return "session secret cannot be empty"
}

// NewCodec derives the sealing key from secret. Zero options take the
// package defaults.
func NewCodec(secret []byte, opts Options) (*Codec, error) {
	if len(secret) == 0 {
		return nil, InvalidSecret{}
	}
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}
	if opts.ActiveDuration <= 0 {
		opts.ActiveDuration = DefaultActiveDuration
	}
	c := &Codec{opts: opts}
	kdf := hkdf.New(sha256.New, secret, nil, []byte(keyInfo))
	if _, err := io.ReadFull(kdf, c.key[:]); err != nil {
		return nil, fmt.Errorf("unable to derive session key, cause %w", err)
	}
	return c, nil
}

func (c *Codec) Options() Options { return c.opts }

// Decode reads the session from r. Missing, tampered or expired cookies
// yield the anonymous session. refreshed reports that the expiry moved
// forward and the cookie should be written again.
func (c *Codec) Decode(r *http.Request, now time.Time) (s Session, refreshed bool) {
	cookie, err := r.Cookie(c.opts.Name)
	if err != nil {
		return Session{}, false
	}
	s, err = c.open(cookie.Value)
	if err != nil || !now.Before(s.Expires) {
		return Session{}, false
	}
	if s.Expires.Sub(now) < c.opts.ActiveDuration {
		s.Expires = now.Add(c.opts.ActiveDuration)
		refreshed = true
	}
	return s, refreshed
}

// Write applies u to w.
func (c *Codec) Write(w http.ResponseWriter, u Update, now time.Time) error {
	switch {
	case u.IsKeep():
		return nil
	case u.IsClear():
		http.SetCookie(w, c.cookie("", time.Unix(0, 0), -1))
		return nil
	}
	s, _ := u.Session()
	if s.Expires.IsZero() {
		s.Expires = now.Add(c.opts.Duration)
	}
	value, err := c.seal(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, c.cookie(value, s.Expires, int(s.Expires.Sub(now).Seconds())))
	return nil
}

func (c *Codec) cookie(value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.opts.Name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c *Codec) seal(s Session) (string, error) {
	s.Expires = s.Expires.UTC().Truncate(time.Second)
	buf, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("unable to generate nonce, cause %w", err)
	}
	sealed := secretbox.Seal(nonce[:], buf, &nonce, &c.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *Codec) open(value string) (Session, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return Session{}, err
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return Session{}, errors.New("session cookie too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	buf, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &c.key)
	if !ok {
		return Session{}, errors.New("session cookie was tampered with")
	}
	var s Session
	if err := json.Unmarshal(buf, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}
