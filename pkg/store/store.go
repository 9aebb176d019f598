// Package store persists named layout results in MongoDB.
//
// The server uses it for its PUT/GET layout endpoints: a client computes
// a layout once, stores it under a name, and fetches it later without
// re-running the solver. Names are unique; saving an existing name
// replaces the stored document.
package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nestflow/nestflow/pkg/errors"
	"github.com/nestflow/nestflow/pkg/layout"
)

// Default database and collection names.
const (
	DefaultDatabase   = "nestflow"
	DefaultCollection = "layouts"
)

// StoredLayout is the persisted document.
type StoredLayout struct {
	Name      string         `bson:"name" json:"name"`
	GraphHash string         `bson:"graph_hash" json:"graph_hash"`
	Layout    *layout.Result `bson:"layout" json:"layout"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}

// Store wraps a MongoDB collection of stored layouts.
type Store struct {
	coll *mongo.Collection
}

// Connect dials MongoDB and returns a store over the default database
// and collection. Close the returned store to release the client.
func Connect(ctx context.Context, uri string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return NewWithCollection(client.Database(DefaultDatabase).Collection(DefaultCollection)), nil
}

// NewWithCollection wraps an existing collection. Useful for tests and
// for callers managing their own client.
func NewWithCollection(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

// Save stores a layout under a name, replacing any previous document
// with that name.
func (s *Store) Save(ctx context.Context, doc StoredLayout) error {
	if err := errors.ValidateLayoutName(doc.Name); err != nil {
		return err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"name": doc.Name},
		doc,
		options.Replace().SetUpsert(true))
	return err
}

// Get fetches a stored layout by name.
func (s *Store) Get(ctx context.Context, name string) (*StoredLayout, error) {
	if err := errors.ValidateLayoutName(name); err != nil {
		return nil, err
	}
	var doc StoredLayout
	err := s.coll.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeLayoutNotFound, "layout %q not found", name)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns the names and hashes of all stored layouts, newest first.
// Layout payloads are omitted to keep the listing cheap.
func (s *Store) List(ctx context.Context) ([]StoredLayout, error) {
	cur, err := s.coll.Find(ctx, bson.M{},
		options.Find().
			SetProjection(bson.M{"layout": 0}).
			SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []StoredLayout
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Delete removes a stored layout by name.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := errors.ValidateLayoutName(name); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeLayoutNotFound, "layout %q not found", name)
	}
	return nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	if s.coll == nil {
		return nil
	}
	return s.coll.Database().Client().Disconnect(ctx)
}
