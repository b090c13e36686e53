// Package storetest checks that a userstore.Store backend behaves like
// every other backend.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/andrebq/credbox/userstore"
	"github.com/stretchr/testify/require"
)

// Run exercises store with the behaviour every backend must share.
// The store must start empty.
func Run(t *testing.T, store userstore.Store) {
	ctx := context.Background()

	bob := userstore.Record{
		ID:           "bob@example.com",
		Profile:      []byte(`{"firstName":"Bob","lastName":"Builder"}`),
		PasswordHash: "$2a$10$fakehashfakehashfakehashfakehashfakehashfakehash",
	}

	t.Run("find missing", func(t *testing.T) {
		_, err := store.Find(ctx, bob.ID)
		require.ErrorIs(t, err, userstore.NotFound{ID: bob.ID})
	})

	t.Run("create", func(t *testing.T) {
		created, err := store.Create(ctx, bob)
		require.NoError(t, err)
		require.Equal(t, bob.ID, created.ID)

		found, err := store.Find(ctx, bob.ID)
		require.NoError(t, err)
		require.Equal(t, bob.ID, found.ID)
		require.Equal(t, bob.PasswordHash, found.PasswordHash)
		require.JSONEq(t, string(bob.Profile), string(found.Profile))
	})

	t.Run("duplicate keeps original", func(t *testing.T) {
		other := bob
		other.Profile = []byte(`{"firstName":"Mallory"}`)
		other.PasswordHash = "something-else"
		_, err := store.Create(ctx, other)
		var dup userstore.Duplicate
		require.True(t, errors.As(err, &dup), "expecting Duplicate got %v", err)
		require.Equal(t, bob.ID, dup.ID)

		found, err := store.Find(ctx, bob.ID)
		require.NoError(t, err)
		require.Equal(t, bob.PasswordHash, found.PasswordHash)
		require.JSONEq(t, string(bob.Profile), string(found.Profile))
	})

	t.Run("ids are exact", func(t *testing.T) {
		_, err := store.Find(ctx, "BOB@example.com")
		require.ErrorIs(t, err, userstore.NotFound{ID: "BOB@example.com"})
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, bob.ID))
		_, err := store.Find(ctx, bob.ID)
		require.ErrorIs(t, err, userstore.NotFound{ID: bob.ID})
		require.ErrorIs(t, store.Delete(ctx, bob.ID), userstore.NotFound{ID: bob.ID})
	})
}
