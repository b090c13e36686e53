package userstore_test

import (
	"testing"

	"github.com/andrebq/credbox/userstore"
	"github.com/andrebq/credbox/userstore/storetest"
)

func TestMemoryStore(t *testing.T) {
	store, err := userstore.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	storetest.Run(t, store)
}
