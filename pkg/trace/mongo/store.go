// Package mongo archives solver traces in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/flowplan/pkg/trace"
)

// Collection is the collection traces are written to.
const Collection = "traces"

// document is the stored shape of a trace.
type document struct {
	ID        string          `bson:"_id"`
	Kind      string          `bson:"kind"`
	CreatedAt time.Time       `bson:"createdAt"`
	Steps     []step          `bson:"steps"`
	Warnings  []trace.Warning `bson:"warnings,omitempty"`
}

type step struct {
	Index    int           `bson:"index"`
	Pass     int           `bson:"pass"`
	NodeID   string        `bson:"nodeId"`
	OldCount float64       `bson:"oldCount"`
	NewCount float64       `bson:"newCount"`
	Applied  bool          `bson:"applied"`
	Reason   string        `bson:"reason,omitempty"`
	Touched  []trace.Touch `bson:"touched,omitempty"`
}

func toDocument(t *trace.Trace) document {
	d := document{
		ID:        t.ID,
		Kind:      string(t.Kind),
		CreatedAt: t.CreatedAt,
		Steps:     make([]step, len(t.Steps)),
		Warnings:  t.Warnings,
	}
	for i, s := range t.Steps {
		d.Steps[i] = step(s)
	}
	return d
}

func (d document) trace() *trace.Trace {
	t := &trace.Trace{
		ID:        d.ID,
		Kind:      trace.Kind(d.Kind),
		CreatedAt: d.CreatedAt,
		Steps:     make([]trace.Step, len(d.Steps)),
		Warnings:  d.Warnings,
	}
	for i, s := range d.Steps {
		t.Steps[i] = trace.Step(s)
	}
	return t
}

// Store implements trace.Store on a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects to uri and verifies the connection.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return New(client, database), nil
}

// New wraps an existing client.
func New(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		coll:   client.Database(database).Collection(Collection),
	}
}

// Save upserts t.
func (s *Store) Save(ctx context.Context, t *trace.Trace) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": t.ID}, toDocument(t), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save trace %s: %w", t.ID, err)
	}
	return nil
}

// Load fetches one trace.
func (s *Store) Load(ctx context.Context, id string) (*trace.Trace, error) {
	var d document
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, trace.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load trace %s: %w", id, err)
	}
	return d.trace(), nil
}

// Recent returns up to limit traces, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*trace.Trace, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list traces: %w", err)
	}
	defer cur.Close(ctx)

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list traces: %w", err)
	}
	out := make([]*trace.Trace, len(docs))
	for i, d := range docs {
		out[i] = d.trace()
	}
	return out, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ trace.Store = (*Store)(nil)
