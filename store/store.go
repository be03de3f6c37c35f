// Package store persists the whole domain snapshot. Every driver reads and
// writes the complete Dataset at once; callers never see partial updates.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/poorspot/spotd/models"
)

// ErrPersistence wraps every driver failure.
var ErrPersistence = errors.New("persistence failure")

// Store loads and saves the full Dataset.
type Store interface {
	Load(ctx context.Context) (*models.Dataset, error)
	Save(ctx context.Context, ds *models.Dataset) error
	Close(ctx context.Context) error
}

// Options selects and configures a driver.
type Options struct {
	Driver        string
	DataFile      string
	DB            *gorm.DB
	MongoURI      string
	MongoDatabase string
	SQLitePath    string
	Logger        *zap.Logger
}

// Open builds the store named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "file":
		return NewFileStore(opts.DataFile, logger)
	case "memory":
		return NewMemoryStore(nil), nil
	case "mysql", "postgres":
		if opts.DB == nil {
			return nil, fmt.Errorf("store driver %q needs an open database", opts.Driver)
		}
		return NewGormStore(opts.DB, logger)
	case "sqlite":
		return OpenSQLiteStore(ctx, opts.SQLitePath, logger)
	case "mongo":
		return OpenMongoStore(ctx, opts.MongoURI, opts.MongoDatabase, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}
