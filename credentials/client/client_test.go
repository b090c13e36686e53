package client

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/andrebq/credbox/credentials"
	"github.com/andrebq/credbox/credentials/api"
	"github.com/andrebq/credbox/userstore"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const profile = `{"firstName":"A","lastName":"B"}`

func newBackend(t *testing.T, tlsServer bool) *url.URL {
	store, err := userstore.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	issuer, err := credentials.NewIssuer([]byte("test-secret-test-secret-test-secret"), time.Minute)
	require.NoError(t, err)
	svc := credentials.NewService(store, credentials.Hasher{Cost: bcrypt.MinCost}, issuer, credentials.Config{})
	var srv *httptest.Server
	if tlsServer {
		srv = httptest.NewTLSServer(api.AsHandler(context.Background(), svc))
	} else {
		srv = httptest.NewServer(api.AsHandler(context.Background(), svc))
	}
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return u
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := New(newBackend(t, false), Options{})

	token, err := c.Create(ctx, "a@b.com", "abcdefg1", []byte(profile))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	body, err := c.Fetch(ctx, "a@b.com", token)
	require.NoError(t, err)
	require.JSONEq(t, profile, string(body))

	token, err = c.Authenticate(ctx, "a@b.com", "abcdefg1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
}

func TestErrorMapping(t *testing.T) {
	ctx := context.Background()
	c := New(newBackend(t, false), Options{})
	token, err := c.Create(ctx, "a@b.com", "abcdefg1", []byte(profile))
	require.NoError(t, err)

	_, err = c.Create(ctx, "a@b.com", "abcdefg1", []byte(profile))
	var conflict credentials.Conflict
	require.True(t, errors.As(err, &conflict), "got %v", err)
	require.Equal(t, "user a@b.com already exists", conflict.Info)

	_, err = c.Create(ctx, "c@d.com", "abcdefg1", []byte(`{}`))
	require.True(t, errors.As(err, &credentials.InvalidInput{}), "got %v", err)

	_, err = c.Authenticate(ctx, "a@b.com", "wrong-password1")
	var unauthorized credentials.Unauthorized
	require.True(t, errors.As(err, &unauthorized), "got %v", err)
	require.Contains(t, unauthorized.Info, "/users/a@b.com/auth")

	_, err = c.Authenticate(ctx, "nobody@b.com", "abcdefg1")
	var notFound credentials.NotFound
	require.True(t, errors.As(err, &notFound), "got %v", err)
	require.Equal(t, "user nobody@b.com not found", notFound.Info)

	_, err = c.Fetch(ctx, "a@b.com", token+"x")
	require.True(t, errors.As(err, &credentials.Unauthorized{}), "got %v", err)
}

func TestUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	base, _ := url.Parse(srv.URL)

	_, err := New(base, Options{}).Fetch(context.Background(), "a@b.com", "token")
	var unavailable credentials.Unavailable
	require.True(t, errors.As(err, &unavailable), "got %v", err)
	require.Equal(t, http.StatusInternalServerError, unavailable.Status)
	require.False(t, unavailable.Timeout)
}

func TestRedirectIsNotFollowed(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Location", "/elsewhere")
		w.WriteHeader(http.StatusSeeOther)
		w.Write([]byte(`{"status":"EXISTS","info":"user a@b.com already exists"}`))
	}))
	defer srv.Close()
	base, _ := url.Parse(srv.URL)

	_, err := New(base, Options{}).Create(context.Background(), "a@b.com", "abcdefg1", []byte(profile))
	require.True(t, errors.As(err, &credentials.Conflict{}), "got %v", err)
	require.Equal(t, 1, hits)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)
	base, _ := url.Parse(srv.URL)

	start := time.Now()
	_, err := New(base, Options{Timeout: 50 * time.Millisecond}).Authenticate(context.Background(), "a@b.com", "abcdefg1")
	var unavailable credentials.Unavailable
	require.True(t, errors.As(err, &unavailable), "got %v", err)
	require.True(t, unavailable.Timeout)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base, _ := url.Parse(srv.URL)
	srv.Close()

	_, err := New(base, Options{}).Authenticate(context.Background(), "a@b.com", "abcdefg1")
	var unavailable credentials.Unavailable
	require.True(t, errors.As(err, &unavailable), "got %v", err)
	require.NotNil(t, errors.Unwrap(unavailable))
}

func TestTLSBackend(t *testing.T) {
	base := newBackend(t, true)

	_, err := New(base, Options{}).Create(context.Background(), "a@b.com", "abcdefg1", []byte(profile))
	require.True(t, errors.As(err, &credentials.Unavailable{}), "self-signed certificate should be rejected by default, got %v", err)

	insecure := New(base, Options{TLS: &tls.Config{InsecureSkipVerify: true}})
	_, err = insecure.Create(context.Background(), "a@b.com", "abcdefg1", []byte(profile))
	require.NoError(t, err)
}

func TestUserURL(t *testing.T) {
	base, _ := url.Parse("https://creds.example.com/api/?x=1")
	c := New(base, Options{})
	require.Equal(t, "https://creds.example.com/api/users/a@b.com/auth", c.userURL("a@b.com", "auth").String())
	require.Equal(t, "https://creds.example.com/api/users/a%20b", c.userURL("a b").String())
}
