// Package mongodb implements userstore.Store on top of a MongoDB
// collection. Documents keep the {id, body, password} layout.
package mongodb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/andrebq/credbox/userstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultDatabase    = "users"
	collectionName     = "users"
	createIndexTimeout = 5 * time.Second
)

type (
	Store struct {
		client     *mongo.Client
		collection *mongo.Collection
	}

	userDocument struct {
		ID       string   `bson:"id"`
		Body     bson.Raw `bson:"body"`
		Password string   `bson:"password"`
	}
)

// Open connects to the server at uri. The database is taken from the uri
// path and defaults to DefaultDatabase.
func Open(ctx context.Context, uri string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mongodb, cause %w", err)
	}
	err = client.Ping(ctx, nil)
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("unable to ping mongodb, cause %w", err)
	}
	s, err := New(ctx, client.Database(databaseName(uri)))
	if err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	s.client = client
	return s, nil
}

// New uses the users collection of database, creating the unique index on
// id if needed. Closing a Store built by New does not disconnect the client.
func New(ctx context.Context, database *mongo.Database) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, createIndexTimeout)
	defer cancel()
	collection := database.Collection(collectionName)
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to add indexes to users collection, cause %w", err)
	}
	return &Store{collection: collection}, nil
}

func (s *Store) Create(ctx context.Context, rec userstore.Record) (userstore.Record, error) {
	body, err := toDocument(rec.Profile)
	if err != nil {
		return userstore.Record{}, fmt.Errorf("profile for user %v is not a json object, cause %w", rec.ID, err)
	}
	_, err = s.collection.InsertOne(ctx, bson.D{
		{Key: "id", Value: rec.ID},
		{Key: "body", Value: body},
		{Key: "password", Value: rec.PasswordHash},
	})
	if mongo.IsDuplicateKeyError(err) {
		return userstore.Record{}, userstore.Duplicate{ID: rec.ID}
	} else if err != nil {
		return userstore.Record{}, fmt.Errorf("unable to insert user %v, cause %w", rec.ID, err)
	}
	return rec, nil
}

func (s *Store) Find(ctx context.Context, id string) (userstore.Record, error) {
	var doc userDocument
	err := s.collection.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return userstore.Record{}, userstore.NotFound{ID: id}
	} else if err != nil {
		return userstore.Record{}, fmt.Errorf("unable to find user %v, cause %w", id, err)
	}
	profile, err := bson.MarshalExtJSON(doc.Body, false, false)
	if err != nil {
		return userstore.Record{}, fmt.Errorf("unable to encode profile of user %v, cause %w", id, err)
	}
	return userstore.Record{
		ID:           doc.ID,
		Profile:      json.RawMessage(profile),
		PasswordHash: doc.Password,
	}, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("unable to delete user %v, cause %w", id, err)
	}
	if res.DeletedCount == 0 {
		return userstore.NotFound{ID: id}
	}
	return nil
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// toDocument decodes profile as plain json, keys like $date or $oid stay
// ordinary fields instead of becoming bson types.
func toDocument(profile json.RawMessage) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(profile))
	dec.UseNumber()
	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("profile is null")
	}
	return doc, nil
}

func databaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return DefaultDatabase
	}
	name := strings.Trim(u.Path, "/")
	if name == "" {
		return DefaultDatabase
	}
	return name
}
