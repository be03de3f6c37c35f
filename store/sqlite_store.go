package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/poorspot/spotd/models"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);`

// SQLiteStore keeps the snapshot as one JSON row in a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLiteStore opens (and creates if missing) the database at path.
func OpenSQLiteStore(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if path == "" {
		path = "spotd.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrap("open sqlite", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, wrap("ping sqlite", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, wrap("migrate sqlite", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*models.Dataset, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE id = ?`, snapshotID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewDataset(), nil
	}
	if err != nil {
		return nil, wrap("load snapshot", err)
	}
	ds := models.NewDataset()
	if err := json.Unmarshal([]byte(raw), ds); err != nil {
		return nil, wrap("decode snapshot", err)
	}
	ds.Normalize()
	return ds, nil
}

func (s *SQLiteStore) Save(ctx context.Context, ds *models.Dataset) error {
	b, err := json.Marshal(ds)
	if err != nil {
		return wrap("encode snapshot", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		snapshotID, string(b), time.Now().UTC())
	if err != nil {
		s.logger.Error("sqlite save failed", zap.Error(err))
		return wrap("save snapshot", err)
	}
	return nil
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	return wrap("close sqlite", s.db.Close())
}
