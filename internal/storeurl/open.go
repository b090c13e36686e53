// Package storeurl turns a --store value into an opened userstore.Store.
//
// Accepted forms:
//
//	memory:
//	sqlite:<directory>
//	mongodb://host:port/database (or mongodb+srv://)
package storeurl

import (
	"context"
	"fmt"
	"strings"

	"github.com/andrebq/credbox/userstore"
	"github.com/andrebq/credbox/userstore/mongodb"
)

type (
	UnknownStore struct {
		Location string
	}
)

func (u UnknownStore) Error() string {
	return fmt.Sprintf("store %q is not supported, use memory:, sqlite:<dir> or mongodb://...", u.Location)
}

func Open(ctx context.Context, location string) (userstore.Store, error) {
	switch {
	case location == "memory:":
		return userstore.NewMemory()
	case strings.HasPrefix(location, "sqlite:"):
		dir := strings.TrimPrefix(location, "sqlite:")
		if dir == "" {
			return nil, UnknownStore{Location: location}
		}
		store, err := userstore.OpenSQLite(ctx, dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case strings.HasPrefix(location, "mongodb://"), strings.HasPrefix(location, "mongodb+srv://"):
		store, err := mongodb.Open(ctx, location)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, UnknownStore{Location: location}
}
