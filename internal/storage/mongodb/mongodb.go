// Package mongodb provides a MongoDB-backed implementation of
// storage.Storage. Students live in one document collection; the
// identifier sequence lives in a second "counters" collection and is
// advanced with a single findOneAndUpdate.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/types"
)

const (
	studentsCollection = "students"
	countersCollection = "counters"

	idIndex    = "id_1"
	emailIndex = "email_1"
)

// studentDocument is the stored shape of a student. ObjectID is the
// store-assigned _id and never leaves this package.
type studentDocument struct {
	ObjectID  primitive.ObjectID `bson:"_id,omitempty"`
	ID        string             `bson:"id"`
	Email     string             `bson:"email"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d studentDocument) student() types.Student {
	return types.Student{
		ID:        d.ID,
		Email:     d.Email,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type counterDocument struct {
	Name string `bson:"_id"`
	Seq  int64  `bson:"seq"`
}

// Mongo is the concrete implementation of storage.Storage.
type Mongo struct {
	db       *mongo.Database
	students *mongo.Collection
	counters *mongo.Collection
	now      func() time.Time
}

// Connect dials uri, verifies the connection and makes sure the unique
// indexes on id and email exist.
func Connect(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo.Connect: ping: %w", err)
	}

	m := NewWithDatabase(client.Database(database))
	if err := m.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return m, nil
}

// NewWithDatabase wraps an existing database handle. No indexes are created.
func NewWithDatabase(db *mongo.Database) *Mongo {
	return &Mongo{
		db:       db,
		students: db.Collection(studentsCollection),
		counters: db.Collection(countersCollection),
		now:      time.Now,
	}
}

// EnsureIndexes creates the unique indexes on id and email.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.students.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(idIndex),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(emailIndex),
		},
	})
	if err != nil {
		return fmt.Errorf("EnsureIndexes: %w", err)
	}
	return nil
}

func (m *Mongo) Create(ctx context.Context, student types.Student) (types.Student, error) {
	// BSON dates carry millisecond precision.
	now := m.now().UTC().Truncate(time.Millisecond)

	doc := studentDocument{
		ObjectID:  primitive.NewObjectID(),
		ID:        student.ID,
		Email:     student.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := m.students.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), emailIndex) {
				return types.Student{}, fmt.Errorf("%w: %w", storage.ErrDuplicateEmail, err)
			}
			return types.Student{}, fmt.Errorf("%w: %w", storage.ErrDuplicateID, err)
		}
		return types.Student{}, fmt.Errorf("Create: insert: %w", err)
	}

	return doc.student(), nil
}

func (m *Mongo) FindAll(ctx context.Context) ([]types.Student, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := m.students.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("FindAll: find: %w", err)
	}

	var docs []studentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("FindAll: decode: %w", err)
	}

	students := make([]types.Student, 0, len(docs))
	for _, doc := range docs {
		students = append(students, doc.student())
	}

	return students, nil
}

// Next atomically increments the counter document named name, creating
// it on first use, and returns the incremented value.
func (m *Mongo) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter counterDocument
	err := m.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, fmt.Errorf("Next: %s: counter not returned: %w", name, err)
		}
		return 0, fmt.Errorf("Next: %s: %w", name, err)
	}

	return counter.Seq, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.db.Client().Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.db.Client().Disconnect(ctx)
}

var _ storage.Storage = (*Mongo)(nil)
