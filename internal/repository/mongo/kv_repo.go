package mongo

import (
	"ascend/physique-app/internal/repository"
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const recordCollectionName = "records"

// kvDocument is the shape of one stored record: the key is the document id,
// the value an opaque JSON string owned by the store layer.
type kvDocument struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// mongoKeyValue implements repository.KeyValue over a single collection.
// Each Set replaces the whole document, which matches the store's
// whole-record commit semantics: there are no partial writes to merge.
type mongoKeyValue struct {
	collection *mongo.Collection
}

// NewMongoKeyValue creates a KeyValue store backed by a MongoDB collection.
func NewMongoKeyValue(db *mongo.Database) repository.KeyValue {
	return &mongoKeyValue{
		collection: db.Collection(recordCollectionName),
	}
}

func (r *mongoKeyValue) Get(ctx context.Context, key string) (string, bool, error) {
	var doc kvDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, err
	}
	return doc.Value, true, nil
}

func (r *mongoKeyValue) Set(ctx context.Context, key, value string) error {
	doc := kvDocument{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts)
	return err
}

func (r *mongoKeyValue) Remove(ctx context.Context, key string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// Keys enumerates stored keys by prefix. The founder dashboard uses this to
// scan user records, so only ids are projected.
func (r *mongoKeyValue) Keys(ctx context.Context, prefix string) ([]string, error) {
	filter := bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	opts := options.Find().SetProjection(bson.M{"_id": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var keys []string
	for cursor.Next(ctx) {
		var doc struct {
			Key string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		keys = append(keys, doc.Key)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
