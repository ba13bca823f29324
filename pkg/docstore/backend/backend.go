// Package backend opens the document store selected by HOTEL_STORE_BACKEND.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/selvamresidency/hotel-backend/pkg/config"
	"github.com/selvamresidency/hotel-backend/pkg/db"
	"github.com/selvamresidency/hotel-backend/pkg/docstore"
	"github.com/selvamresidency/hotel-backend/pkg/docstore/gormstore"
	"github.com/selvamresidency/hotel-backend/pkg/docstore/mongostore"
)

const disconnectTimeout = 5 * time.Second

// Opened is a ready store plus the cleanup its backend needs.
type Opened struct {
	Store docstore.Store
	// Pinger is set for backends that hold their own connection.
	Pinger interface {
		Ping(ctx context.Context) error
	}
	close func(ctx context.Context) error
}

// Close releases backend connections. Safe on stores without any.
func (o *Opened) Close() error {
	if o == nil || o.close == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return o.close(ctx)
}

// Open builds the configured store. The postgres backend shares dbClient.
func Open(ctx context.Context, cfg *config.Config, dbClient *db.Client) (*Opened, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		return &Opened{Store: docstore.NewMemory()}, nil
	case config.StoreBackendMongo:
		client, err := mongostore.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("connecting mongo: %w", err)
		}
		store, err := mongostore.New(client, cfg.Mongo.Database)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &Opened{Store: store, Pinger: store, close: store.Disconnect}, nil
	case config.StoreBackendPostgres, "":
		store, err := gormstore.New(dbClient)
		if err != nil {
			return nil, err
		}
		return &Opened{Store: store}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
