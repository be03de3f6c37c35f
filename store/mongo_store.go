package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/poorspot/spotd/models"
)

const snapshotID = "dataset"

// snapshotDocument is the single document holding the whole dataset, so a
// replace is atomic without multi-document transactions.
type snapshotDocument struct {
	ID        string         `bson:"_id"`
	Data      models.Dataset `bson:"data"`
	UpdatedAt time.Time      `bson:"updatedAt"`
}

// MongoStore keeps the snapshot in the "snapshots" collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

// OpenMongoStore connects and pings the server.
func OpenMongoStore(ctx context.Context, uri, database string, logger *zap.Logger) (*MongoStore, error) {
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	if database == "" {
		database = "spotd"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, wrap("connect mongo", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, wrap("ping mongo", err)
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection("snapshots"),
		logger:     logger,
	}, nil
}

func (m *MongoStore) Load(ctx context.Context) (*models.Dataset, error) {
	var doc snapshotDocument
	err := m.collection.FindOne(ctx, bson.M{"_id": snapshotID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewDataset(), nil
	}
	if err != nil {
		return nil, wrap("load snapshot", err)
	}
	ds := doc.Data
	ds.Normalize()
	return &ds, nil
}

func (m *MongoStore) Save(ctx context.Context, ds *models.Dataset) error {
	doc := snapshotDocument{ID: snapshotID, Data: *ds, UpdatedAt: time.Now()}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": snapshotID}, doc, opts); err != nil {
		return wrap("save snapshot", err)
	}
	return nil
}

func (m *MongoStore) Close(ctx context.Context) error {
	return wrap("disconnect mongo", m.client.Disconnect(ctx))
}
