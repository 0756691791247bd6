package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DocumentStore is the contract the generic CRUD handlers work against
type DocumentStore[T any] interface {
	Create(ctx context.Context, doc *T) (*T, error)
	GetByID(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, id string, update bson.M) (*T, error)
	Delete(ctx context.Context, id string) (*T, error)
	List(ctx context.Context, q *Query) ([]*T, error)
}

// documentRepo holds the Mongo plumbing shared by every collection. The scope
// filter is added to every query so hidden documents never leave the store.
type documentRepo[T any] struct {
	coll  *mongo.Collection
	scope bson.M
}

func newDocumentRepo[T any](coll *mongo.Collection, scope bson.M) *documentRepo[T] {
	return &documentRepo[T]{coll: coll, scope: scope}
}

func (r *documentRepo[T]) scoped(filter bson.M) bson.M {
	if len(r.scope) == 0 {
		return filter
	}
	if len(filter) == 0 {
		return copyM(r.scope)
	}
	for key := range r.scope {
		if _, clash := filter[key]; clash {
			return bson.M{"$and": bson.A{r.scope, filter}}
		}
	}
	merged := copyM(filter)
	for key, value := range r.scope {
		merged[key] = value
	}
	return merged
}

func (r *documentRepo[T]) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*T, error) {
	var doc T
	err := r.coll.FindOne(ctx, r.scoped(filter), opts...).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo[T]) findByID(ctx context.Context, id string) (*T, error) {
	oid, err := ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *documentRepo[T]) find(ctx context.Context, q *Query) ([]*T, error) {
	if q == nil {
		q = &Query{}
	}
	cursor, err := r.coll.Find(ctx, r.scoped(q.Filter), q.FindOptions())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []*T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepo[T]) insert(ctx context.Context, doc *T) (primitive.ObjectID, error) {
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, err
	}
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return oid, nil
}

// updateByID applies $set and returns the document as it is after the update
func (r *documentRepo[T]) updateByID(ctx context.Context, id string, set bson.M) (*T, error) {
	oid, err := ParseObjectID(id)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc T
	err = r.coll.FindOneAndUpdate(ctx, r.scoped(bson.M{"_id": oid}), bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo[T]) deleteByID(ctx context.Context, id string) (*T, error) {
	oid, err := ParseObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc T
	err = r.coll.FindOneAndDelete(ctx, r.scoped(bson.M{"_id": oid})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo[T]) aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	if len(r.scope) > 0 {
		pipeline = append(mongo.Pipeline{{{Key: "$match", Value: r.scope}}}, pipeline...)
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func copyM(m bson.M) bson.M {
	out := make(bson.M, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
