package store

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/gowebpki/jcs"
	"github.com/kaptinlin/jsonschema"
	"go.uber.org/zap"

	"github.com/poorspot/spotd/models"
)

//go:embed dataset.schema.json
var datasetSchema []byte

// FileStore keeps the snapshot in one JSON document on disk.
type FileStore struct {
	path   string
	schema *jsonschema.Schema
	logger *zap.Logger

	mu         sync.Mutex
	lastDigest string
}

// NewFileStore compiles the document schema and binds the store to path.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if path == "" {
		path = "db.json"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(datasetSchema)
	if err != nil {
		return nil, fmt.Errorf("compile dataset schema: %w", err)
	}
	return &FileStore{path: path, schema: schema, logger: logger}, nil
}

// Path returns the backing file.
func (f *FileStore) Path() string { return f.path }

// Load reads and validates the document. A missing file is an empty dataset;
// an unreadable or invalid one is an error, never an empty dataset, so a
// following Save cannot wipe it.
func (f *FileStore) Load(ctx context.Context) (*models.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.NewDataset(), nil
	}
	if err != nil {
		return nil, wrap("read "+f.path, err)
	}
	if err := f.validate(raw); err != nil {
		return nil, wrap("validate "+f.path, err)
	}
	ds := models.NewDataset()
	if err := json.Unmarshal(raw, ds); err != nil {
		return nil, wrap("decode "+f.path, err)
	}
	ds.Normalize()
	if digest, err := Digest(raw); err == nil {
		f.lastDigest = digest
	}
	return ds, nil
}

// Save writes the snapshot atomically. Writes whose canonical form matches the
// last loaded or saved document are skipped.
func (f *FileStore) Save(ctx context.Context, ds *models.Dataset) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := json.MarshalIndent(ds, "", "    ")
	if err != nil {
		return wrap("encode snapshot", err)
	}
	digest, err := Digest(raw)
	if err != nil {
		return wrap("digest snapshot", err)
	}
	if digest == f.lastDigest {
		f.logger.Debug("snapshot unchanged, skipping write", zap.String("path", f.path))
		return nil
	}
	if err := writeFileAtomic(f.path, raw, 0o600); err != nil {
		return wrap("write "+f.path, err)
	}
	f.lastDigest = digest
	return nil
}

func (f *FileStore) Close(ctx context.Context) error { return nil }

func (f *FileStore) validate(raw []byte) error {
	result := f.schema.ValidateJSON(raw)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", result.Errors)
}

// Digest returns the sha256 of the RFC 8785 canonical form of a JSON document.
func Digest(raw []byte) (string, error) {
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func writeFileAtomic(path string, content []byte, mode os.FileMode) error {
	parent := filepath.Dir(path)
	if parent != "." && parent != "" {
		if err := os.MkdirAll(parent, 0o750); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	tempFile, err := os.CreateTemp(parent, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(content); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tempFile.Chmod(mode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS != "windows" {
			return fmt.Errorf("rename temp file: %w", err)
		}
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			return fmt.Errorf("remove destination before rename: %w", removeErr)
		}
		if renameErr := os.Rename(tempPath, path); renameErr != nil {
			return fmt.Errorf("rename temp file after remove: %w", renameErr)
		}
	}
	cleanup = false
	return nil
}
