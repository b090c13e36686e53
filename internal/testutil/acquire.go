package testutil

import (
	"context"
	"net/http/httptest"
	"net/url"
	"os"
	"time"

	"github.com/andrebq/credbox/credentials"
	"github.com/andrebq/credbox/credentials/api"
	"github.com/andrebq/credbox/userstore"
	"golang.org/x/crypto/bcrypt"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// TokenSecret is only meant for tests.
var TokenSecret = []byte("credbox-test-token-secret-do-not-deploy")

func AcquireSQLiteStore(ctx context.Context, t TestLog) (userstore.Store, func()) {
	dir, err := os.MkdirTemp("", "credbox-tests")
	if err != nil {
		t.Fatal(err)
	}
	store, err := userstore.OpenSQLite(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	return store, func() {
		err := store.Close()
		if err != nil {
			t.Log("unable to close store", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}

// AcquireCredentialServer starts the credential service over a fresh
// sqlite store and returns its base url.
func AcquireCredentialServer(ctx context.Context, t TestLog, ttl time.Duration, config credentials.Config) (*url.URL, func()) {
	store, cleanupStore := AcquireSQLiteStore(ctx, t)
	issuer, err := credentials.NewIssuer(TokenSecret, ttl)
	if err != nil {
		cleanupStore()
		t.Fatal(err)
	}
	svc := credentials.NewService(store, credentials.Hasher{Cost: bcrypt.MinCost}, issuer, config)
	server := httptest.NewServer(api.AsHandler(ctx, svc))
	base, err := url.Parse(server.URL)
	if err != nil {
		server.Close()
		cleanupStore()
		t.Fatal(err)
	}
	return base, func() {
		server.Close()
		cleanupStore()
	}
}
