package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/muratoffalex/ytscribe/internal/logger"
)

// MongoCache stores one collection per record kind with the key as _id.
type MongoCache struct {
	client *mongo.Client
	db     *mongo.Database
	logger logger.Logger
}

func NewMongoCache(ctx context.Context, uri, database string, l logger.Logger) (*MongoCache, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	l.WithField("database", database).Info("Mongo cache connected")

	return &MongoCache{
		client: client,
		db:     client.Database(database),
		logger: l,
	}, nil
}

func (c *MongoCache) Get(ctx context.Context, collection, key string) (Document, error) {
	var raw bson.Raw
	err := c.db.Collection(collection).FindOne(ctx, bson.M{"_id": key}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}

	ext, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	doc, err := decodeDocument(ext)
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	delete(doc, "_id")
	return doc, nil
}

func (c *MongoCache) Set(ctx context.Context, collection, key string, doc Document, mode WriteMode) error {
	coll := c.db.Collection(collection)
	filter := bson.M{"_id": key}

	if mode == ModeMerge {
		set, unset := bson.M{}, bson.M{}
		flattenPatch("", doc, set, unset)
		update := bson.M{}
		if len(set) > 0 {
			update["$set"] = set
		}
		if len(unset) > 0 {
			update["$unset"] = unset
		}
		if len(update) == 0 {
			return nil
		}
		if _, err := coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
			return errors.Join(ErrStore, err)
		}
		return nil
	}

	replacement := bson.M{"_id": key}
	for k, v := range doc {
		if k != "_id" {
			replacement[k] = v
		}
	}
	if _, err := coll.ReplaceOne(ctx, filter, replacement, options.Replace().SetUpsert(true)); err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

func (c *MongoCache) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}
