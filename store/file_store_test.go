package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poorspot/spotd/models"
)

const legacyDocument = `{
    "users": [
        {
            "id": "u1",
            "name": "Alice",
            "password_hash": "x",
            "attributes": ["music"],
            "history": [
                {"spotId": "s1", "spotName": "Gare", "timestamp": "2025-03-08T02:30:00.123456", "durationSeconds": 0},
                {"spotId": "s1", "spotName": "Gare", "timestamp": "2025-03-07T10:00:00", "durationSeconds": 120}
            ],
            "createdAt": "2025-03-01T09:00:00",
            "points": 10,
            "achievements": ["first_step"]
        }
    ],
    "spots": [
        {
            "id": "s1", "name": "Gare", "description": "", "latitude": 48.8, "longitude": 2.3,
            "category": "Transport", "createdAt": "2025-03-01T09:00:00", "createdBy": "u1",
            "currentActiveUsers": 0,
            "reviews": [
                {"id": "r1", "authorName": "Alice", "ratingRevenue": 4.0, "ratingSecurity": 3.5,
                 "ratingTraffic": 5, "attribute": "", "comment": "busy", "createdAt": "2025-03-02T09:00:00"}
            ]
        }
    ]
}`

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "db.json"), nil)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return fs
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	fs := newTestFileStore(t)
	ds, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Users) != 0 || len(ds.Spots) != 0 {
		t.Fatalf("expected empty dataset, got %#v", ds)
	}
}

func TestFileStoreLoadsLegacyDocument(t *testing.T) {
	fs := newTestFileStore(t)
	if err := os.WriteFile(fs.Path(), []byte(legacyDocument), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	ds, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	u := ds.FindUser("u1")
	if u == nil {
		t.Fatalf("user not loaded")
	}
	if u.Favorites == nil || len(u.Favorites) != 0 {
		t.Fatalf("missing favorites should normalize to empty: %#v", u.Favorites)
	}
	if len(u.History) != 2 || !u.History[0].IsOpen() || u.History[1].DurationSeconds != 120 {
		t.Fatalf("unexpected history: %#v", u.History)
	}
	s := ds.FindSpot("s1")
	if s == nil || len(s.Reviews) != 1 || s.Reviews[0].RatingTraffic != 5 {
		t.Fatalf("unexpected spot: %#v", s)
	}
}

func TestFileStoreRoundTripKeepsFieldNames(t *testing.T) {
	fs := newTestFileStore(t)
	ds := models.NewDataset()
	ds.Users = append(ds.Users, models.User{
		ID:   "u1",
		Name: "Bob",
		History: []models.CheckInLog{
			{SpotID: "s2", SpotName: "Parc", Timestamp: "2025-03-08T10:00:00.000000", DurationSeconds: 600},
		},
		Achievements: []string{"welcome"},
	})
	if err := fs.Save(context.Background(), ds); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := os.ReadFile(fs.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, key := range []string{`"spotId"`, `"durationSeconds"`, `"password_hash"`, `"createdAt"`} {
		if !strings.Contains(string(raw), key) {
			t.Fatalf("document missing %s:\n%s", key, raw)
		}
	}
	if strings.Contains(string(raw), "RowID") || strings.Contains(string(raw), "Position") {
		t.Fatalf("storage-only fields leaked into document:\n%s", raw)
	}

	got, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Users[0].History[0].DurationSeconds != 600 || got.Users[0].Achievements[0] != "welcome" {
		t.Fatalf("round trip mismatch: %#v", got.Users[0])
	}
}

func TestFileStoreRejectsMalformedTimestamp(t *testing.T) {
	fs := newTestFileStore(t)
	doc := `{"users":[{"id":"u1","name":"A","history":[{"spotId":"s","timestamp":"08/03/2025 02:30","durationSeconds":0}]}],"spots":[]}`
	if err := os.WriteFile(fs.Path(), []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := fs.Load(context.Background())
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestFileStoreCorruptFileIsAnError(t *testing.T) {
	fs := newTestFileStore(t)
	if err := os.WriteFile(fs.Path(), []byte(`{"users": [`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := fs.Load(context.Background()); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestFileStoreSkipsUnchangedSnapshot(t *testing.T) {
	fs := newTestFileStore(t)
	ds := models.NewDataset()
	ds.Spots = append(ds.Spots, models.Spot{ID: "s1", Name: "Gare", Reviews: []models.Review{}})
	ctx := context.Background()
	if err := fs.Save(ctx, ds); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Replace the file behind the store's back; an identical snapshot must not
	// rewrite it.
	if err := os.WriteFile(fs.Path(), []byte(`{"users":[],"spots":[]}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := fs.Save(ctx, ds); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, _ := os.ReadFile(fs.Path())
	if string(raw) != `{"users":[],"spots":[]}` {
		t.Fatalf("unchanged snapshot was rewritten")
	}

	ds.Spots[0].Name = "Gare du Nord"
	if err := fs.Save(ctx, ds); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, _ = os.ReadFile(fs.Path())
	if !strings.Contains(string(raw), "Gare du Nord") {
		t.Fatalf("changed snapshot was not written")
	}
}

func TestDigestIgnoresFormatting(t *testing.T) {
	a, err := Digest([]byte(`{"users":[],"spots":[{"id":"s","name":"x"}]}`))
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	b, err := Digest([]byte("{\n  \"spots\": [ {\"name\": \"x\", \"id\": \"s\"} ],\n  \"users\": []\n}"))
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if a != b {
		t.Fatalf("expected equal digests")
	}
}
