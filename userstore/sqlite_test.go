package userstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/andrebq/credbox/userstore"
	"github.com/andrebq/credbox/userstore/storetest"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	dir, err := os.MkdirTemp("", "credbox-tests")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	store, err := userstore.OpenSQLite(context.Background(), filepath.Join(dir, "users"))
	require.NoError(t, err)
	defer store.Close()

	storetest.Run(t, store)
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	dir, err := os.MkdirTemp("", "credbox-tests")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	store, err := userstore.OpenSQLite(ctx, dir)
	require.NoError(t, err)
	_, err = store.Create(ctx, userstore.Record{ID: "a@b.com", Profile: []byte(`{"firstName":"A"}`), PasswordHash: "x"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = userstore.OpenSQLite(ctx, dir)
	require.NoError(t, err)
	defer store.Close()
	rec, err := store.Find(ctx, "a@b.com")
	require.NoError(t, err)
	require.JSONEq(t, `{"firstName":"A"}`, string(rec.Profile))
}
