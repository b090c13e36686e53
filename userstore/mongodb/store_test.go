package mongodb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/andrebq/credbox/userstore"
	"github.com/andrebq/credbox/userstore/storetest"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const testURIEnvVar = "CREDBOX_TEST_MONGODB_URI"

func TestMongoStore(t *testing.T) {
	uri := os.Getenv(testURIEnvVar)
	if uri == "" {
		t.Skipf("%v not set, skipping mongodb tests", testURIEnvVar)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	defer client.Disconnect(context.Background())

	db := client.Database(fmt.Sprintf("credbox_test_%d", time.Now().UnixNano()))
	defer db.Drop(context.Background())

	store, err := New(ctx, db)
	require.NoError(t, err)
	defer store.Close()

	storetest.Run(t, store)

	profile := `{"when":{"$date":"2020-01-01T00:00:00Z"},"ref":{"$oid":"5f1d7f3e9d1e8a0001a1b2c3"},"n":1}`
	_, err = store.Create(ctx, userstore.Record{ID: "ext@example.com", Profile: []byte(profile), PasswordHash: "h"})
	require.NoError(t, err)
	found, err := store.Find(ctx, "ext@example.com")
	require.NoError(t, err)
	require.JSONEq(t, profile, string(found.Profile))
}

func TestToDocumentKeepsOperatorKeys(t *testing.T) {
	doc, err := toDocument([]byte(`{"when":{"$date":"2020-01-01T00:00:00Z"},"n":7,"f":1.5}`))
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"$date": "2020-01-01T00:00:00Z"}, doc["when"])
	require.Equal(t, json.Number("7"), doc["n"])
	require.Equal(t, json.Number("1.5"), doc["f"])

	for _, bad := range []string{"", "null", "[]", "not json"} {
		_, err := toDocument([]byte(bad))
		require.Error(t, err, "%q", bad)
	}
}

func TestDatabaseName(t *testing.T) {
	for uri, expected := range map[string]string{
		"mongodb://localhost:27017/users":          "users",
		"mongodb://localhost:27017":                DefaultDatabase,
		"mongodb://localhost:27017/":               DefaultDatabase,
		"mongodb+srv://cluster.example.com/people": "people",
	} {
		if actual := databaseName(uri); actual != expected {
			t.Errorf("databaseName(%v) should be %v got %v", uri, expected, actual)
		}
	}
}
