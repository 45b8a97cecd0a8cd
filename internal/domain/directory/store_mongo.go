package directory

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var EmployeeIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: FieldReportsTo, Value: 1}},
		Options: options.Index().SetName("idx_reportsTo"),
	},
}

// MongoStore keeps one document per employee keyed by _id, with _rev as the
// optimistic revision token.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.coll.Indexes().CreateMany(ctx, EmployeeIndexes); err != nil {
		return mapMongoError(err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (Employee, error) {
	var emp Employee
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&emp); err != nil {
		return Employee{}, mapMongoError(err)
	}
	return emp, nil
}

func (s *MongoStore) Exists(ctx context.Context, id string) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, mapMongoError(err)
	}
	return count > 0, nil
}

func (s *MongoStore) Insert(ctx context.Context, emp Employee) (Employee, error) {
	emp.Rev = 1
	if _, err := s.coll.InsertOne(ctx, emp); err != nil {
		return Employee{}, mapMongoError(err)
	}
	return emp, nil
}

func (s *MongoStore) Update(ctx context.Context, emp Employee) (Employee, error) {
	next := emp
	next.Rev = emp.Rev + 1
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": emp.ID, "_rev": emp.Rev}, next)
	if err != nil {
		return Employee{}, mapMongoError(err)
	}
	if res.MatchedCount == 0 {
		return Employee{}, s.missOrConflict(ctx, emp)
	}
	return next, nil
}

func (s *MongoStore) Delete(ctx context.Context, emp Employee) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": emp.ID, "_rev": emp.Rev})
	if err != nil {
		return mapMongoError(err)
	}
	if res.DeletedCount == 0 {
		return s.missOrConflict(ctx, emp)
	}
	return nil
}

func (s *MongoStore) FindByField(ctx context.Context, field, value string) ([]Employee, error) {
	if field != FieldReportsTo {
		return nil, fmt.Errorf("%w: no index on field %q", ErrInvalidArgument, field)
	}
	return s.find(ctx, bson.M{FieldReportsTo: value}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (s *MongoStore) ListAll(ctx context.Context) ([]Employee, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (s *MongoStore) ListPage(ctx context.Context, skip, limit int, descending bool) ([]Employee, error) {
	order := 1
	if descending {
		order = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: order}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	return s.find(ctx, bson.M{}, opts)
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.coll.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MongoStore) find(ctx context.Context, filter any, opts *options.FindOptions) ([]Employee, error) {
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapMongoError(err)
	}
	defer cur.Close(ctx)

	out := []Employee{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mapMongoError(err)
	}
	return out, nil
}

func (s *MongoStore) missOrConflict(ctx context.Context, emp Employee) error {
	exists, err := s.Exists(ctx, emp.ID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return fmt.Errorf("%w: document %s revision %d is stale", ErrStoreConflict, emp.ID, emp.Rev)
}

func mapMongoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrStoreConflict, err)
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
