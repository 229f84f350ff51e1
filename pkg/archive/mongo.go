package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/pipeline"
)

const (
	defaultMongoDatabase = "parsimony"
	resultsCollection    = "results"
)

// MongoStore keeps results in the "results" collection. The result itself is
// stored as JSON next to indexed listing fields.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// record is the stored document.
type record struct {
	ID        string    `bson:"_id"`
	Kind      string    `bson:"kind"`
	CreatedAt time.Time `bson:"created_at"`
	Length    int       `bson:"length"`
	Data      []byte    `bson:"data"`
}

// NewMongoStore connects to uri, pings the server and ensures the listing
// index exists.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("archive: no MongoDB URI")
	}
	if database == "" {
		database = defaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackend, err, "connect to MongoDB")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeBackend, err, "ping MongoDB")
	}

	coll := client.Database(database).Collection(resultsCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeBackend, err, "create index")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Save(ctx context.Context, res *pipeline.Result) error {
	if err := errors.ValidateResultID(res.ID); err != nil {
		return err
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	rec := record{
		ID:        res.ID,
		Kind:      string(res.Kind),
		CreatedAt: res.CreatedAt,
		Length:    res.Length,
		Data:      data,
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": res.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeBackend, err, "save result")
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*pipeline.Result, error) {
	if err := errors.ValidateResultID(id); err != nil {
		return nil, err
	}
	var rec record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackend, err, "get result")
	}
	return decode(rec)
}

func (s *MongoStore) List(ctx context.Context, limit int) ([]*pipeline.Result, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(listLimit(limit)))
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackend, err, "list results")
	}
	var recs []record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackend, err, "list results")
	}
	out := make([]*pipeline.Result, 0, len(recs))
	for _, rec := range recs {
		res, err := decode(rec)
		if err != nil {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateResultID(id); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeBackend, err, "delete result")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func decode(rec record) (*pipeline.Result, error) {
	var res pipeline.Result
	if err := json.Unmarshal(rec.Data, &res); err != nil {
		return nil, fmt.Errorf("parse result %s: %w", rec.ID, err)
	}
	return &res, nil
}

var _ Store = (*MongoStore)(nil)
