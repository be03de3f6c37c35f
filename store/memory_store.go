package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/poorspot/spotd/models"
)

// MemoryStore keeps a private copy of the snapshot in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	failErr error
}

// NewMemoryStore seeds the store with ds (nil means empty).
func NewMemoryStore(ds *models.Dataset) *MemoryStore {
	if ds == nil {
		ds = models.NewDataset()
	}
	m := &MemoryStore{}
	m.data, _ = json.Marshal(ds)
	return m
}

func (m *MemoryStore) Load(ctx context.Context) (*models.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds := models.NewDataset()
	if err := json.Unmarshal(m.data, ds); err != nil {
		return nil, wrap("decode memory snapshot", err)
	}
	ds.Normalize()
	return ds, nil
}

func (m *MemoryStore) Save(ctx context.Context, ds *models.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return wrap("save memory snapshot", m.failErr)
	}
	b, err := json.Marshal(ds)
	if err != nil {
		return wrap("encode memory snapshot", err)
	}
	m.data = b
	m.saves++
	return nil
}

func (m *MemoryStore) Close(ctx context.Context) error { return nil }

// Saves reports how many snapshots were written.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// FailSaves makes every following Save return err; nil restores normal saves.
func (m *MemoryStore) FailSaves(err error) {
	m.mu.Lock()
	m.failErr = err
	m.mu.Unlock()
}
