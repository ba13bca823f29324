// Package gormstore persists docstore documents in a relational table with
// a JSON body column. Merges run inside a transaction and take a row lock
// on Postgres, so each single-document write is atomic.
package gormstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/selvamresidency/hotel-backend/pkg/db"
	"github.com/selvamresidency/hotel-backend/pkg/db/models"
	"github.com/selvamresidency/hotel-backend/pkg/docstore"
)

type Store struct {
	client *db.Client
}

var _ docstore.Store = (*Store)(nil)

func New(client *db.Client) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Store{client: client}, nil
}

func (s *Store) Get(ctx context.Context, collection, key string) (docstore.Document, error) {
	var row models.Document
	err := s.client.DB().WithContext(ctx).
		Where("collection = ? AND doc_key = ?", collection, key).
		Take(&row).Error
	if err != nil {
		if db.IsRecordNotFound(err) {
			return nil, docstore.ErrNotFound
		}
		return nil, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}
	return decodeBody(row.Body)
}

func (s *Store) Set(ctx context.Context, collection, key string, fields docstore.Document) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		query := tx.Where("collection = ? AND doc_key = ?", collection, key)
		if s.client.IsPostgres() {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		current := docstore.Document{}
		var row models.Document
		err := query.Take(&row).Error
		switch {
		case err == nil:
			if current, err = decodeBody(row.Body); err != nil {
				return err
			}
		case db.IsRecordNotFound(err):
		default:
			return fmt.Errorf("load %s/%s: %w", collection, key, err)
		}

		return upsert(tx, collection, key, docstore.Merge(current, fields))
	})
}

func (s *Store) Replace(ctx context.Context, collection, key string, doc docstore.Document) error {
	if doc == nil {
		doc = docstore.Document{}
	}
	return upsert(s.client.DB().WithContext(ctx), collection, key, doc)
}

func (s *Store) Delete(ctx context.Context, collection, key string) error {
	err := s.client.DB().WithContext(ctx).
		Where("collection = ? AND doc_key = ?", collection, key).
		Delete(&models.Document{}).Error
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, collection string) ([]docstore.Snapshot, error) {
	var rows []models.Document
	err := s.client.DB().WithContext(ctx).
		Where("collection = ?", collection).
		Order("doc_key ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	out := make([]docstore.Snapshot, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeBody(row.Body)
		if err != nil {
			return nil, err
		}
		out = append(out, docstore.Snapshot{Key: row.Key, Data: doc})
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func upsert(tx *gorm.DB, collection, key string, doc docstore.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	row := models.Document{Collection: collection, Key: key, Body: string(body)}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", collection, key, err)
	}
	return nil
}

func decodeBody(body string) (docstore.Document, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var doc docstore.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document body: %w", err)
	}
	if doc == nil {
		doc = docstore.Document{}
	}
	return doc, nil
}
