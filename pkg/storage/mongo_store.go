package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"igcomments/pkg/comments"
	errs "igcomments/pkg/errors"
	"igcomments/pkg/logger"
)

// commentDocument is the stored shape of one record. Exactly one of the
// timestamp fields is set when the record has a timestamp.
type commentDocument struct {
	Position       int     `bson:"position"`
	Username       string  `bson:"username"`
	Comment        string  `bson:"comment"`
	TimestampText  *string `bson:"timestamp_text,omitempty"`
	TimestampEpoch *int64  `bson:"timestamp_epoch,omitempty"`
	Likes          int     `bson:"likes"`
	Verified       bool    `bson:"verified"`
}

func toDocument(position int, r comments.Record) commentDocument {
	doc := commentDocument{
		Position: position,
		Username: r.Username,
		Comment:  r.Comment,
		Likes:    r.Likes,
		Verified: r.Verified,
	}
	if sec, ok := r.Timestamp.Epoch(); ok {
		doc.TimestampEpoch = &sec
	} else if text, ok := r.Timestamp.Text(); ok {
		doc.TimestampText = &text
	}
	return doc
}

func (d commentDocument) record() comments.Record {
	r := comments.Record{
		Username: d.Username,
		Comment:  d.Comment,
		Likes:    d.Likes,
		Verified: d.Verified,
	}
	switch {
	case d.TimestampEpoch != nil:
		r.Timestamp = comments.EpochTimestamp(*d.TimestampEpoch)
	case d.TimestampText != nil:
		r.Timestamp = comments.TextTimestamp(*d.TimestampText)
	}
	return r
}

// MongoStore keeps the collection as one document per record
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     logger.Logger
}

// ConnectMongo connects to uri and returns a store over database.collection
func ConnectMongo(ctx context.Context, uri, database, collection string, log logger.Logger) (*MongoStore, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("storage: connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("storage: ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "position", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("storage: create position index: %w", err)
	}

	return &MongoStore{client: client, collection: coll, logger: log}, nil
}

// Close disconnects the client
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// Load returns all records sorted by position
func (s *MongoStore) Load(ctx context.Context) ([]comments.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "find comments")
	}

	var docs []commentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "decode comments")
	}

	records := make([]comments.Record, len(docs))
	for i, d := range docs {
		records[i] = d.record()
	}
	return records, nil
}

// Save replaces the collection contents with records
func (s *MongoStore) Save(ctx context.Context, records []comments.Record) error {
	if _, err := s.collection.DeleteMany(ctx, bson.D{}); err != nil {
		return errs.Wrap(errs.ErrorTypeStorage, err, "clear comments")
	}
	if len(records) == 0 {
		return nil
	}

	docs := make([]interface{}, len(records))
	for i, r := range records {
		docs[i] = toDocument(i, r)
	}

	if _, err := s.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return errs.Wrap(errs.ErrorTypeStorage, err, "insert comments")
	}

	s.logger.DebugWithFields("Wrote comments collection", map[string]interface{}{
		"records": len(records),
	})
	return nil
}
