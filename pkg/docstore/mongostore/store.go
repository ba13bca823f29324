// Package mongostore keeps docstore documents in MongoDB, one Mongo
// collection per docstore collection with the document key as _id.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/selvamresidency/hotel-backend/pkg/config"
	"github.com/selvamresidency/hotel-backend/pkg/docstore"
)

const updatedAtField = "_updatedAt"

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ docstore.Store = (*Store)(nil)

// Connect dials Mongo and verifies the connection with a ping.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		opts = opts.SetTimeout(cfg.Timeout)
	}
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func New(client *mongo.Client, database string) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("mongo client required")
	}
	if strings.TrimSpace(database) == "" {
		return nil, fmt.Errorf("mongo database name required")
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Get(ctx context.Context, collection, key string) (docstore.Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": key}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, docstore.ErrNotFound
		}
		return nil, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}
	return fromBSON(raw), nil
}

// Set flattens nested maps into dotted $set paths, which gives the same
// deep-merge behaviour as the other backends in a single atomic update.
func (s *Store) Set(ctx context.Context, collection, key string, fields docstore.Document) error {
	update := bson.M{"$currentDate": bson.M{updatedAtField: true}}
	if set := flatten("", fields); len(set) > 0 {
		update["$set"] = set
	}
	_, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": key}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Store) Replace(ctx context.Context, collection, key string, doc docstore.Document) error {
	body := bson.M{}
	for k, v := range doc {
		body[k] = v
	}
	body["_id"] = key
	_, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": key}, body, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, key string) error {
	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, collection string) ([]docstore.Snapshot, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	var rows []bson.M
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	out := make([]docstore.Snapshot, 0, len(rows))
	for _, row := range rows {
		key := fmt.Sprint(row["_id"])
		out = append(out, docstore.Snapshot{Key: key, Data: fromBSON(row)})
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func flatten(prefix string, fields map[string]any) bson.M {
	out := bson.M{}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch v := fields[k].(type) {
		case docstore.Document:
			for nk, nv := range flatten(path, v) {
				out[nk] = nv
			}
		case map[string]any:
			for nk, nv := range flatten(path, v) {
				out[nk] = nv
			}
		default:
			out[path] = v
		}
	}
	return out
}

func fromBSON(raw bson.M) docstore.Document {
	doc := docstore.Document{}
	for k, v := range raw {
		if k == "_id" || k == updatedAtField {
			continue
		}
		doc[k] = normalize(v)
	}
	return doc
}

func normalize(value any) any {
	switch v := value.(type) {
	case bson.M:
		out := make(map[string]any, len(v))
		for k, nv := range v {
			out[k] = normalize(nv)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(v))
		for _, e := range v {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(v))
		for i, nv := range v {
			out[i] = normalize(nv)
		}
		return out
	default:
		return v
	}
}
