package repositories

import (
	"context"
	"time"

	"natours/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ReviewsCollection = "reviews"

type ReviewRepository interface {
	DocumentStore[models.Review]
	RatingStats(ctx context.Context, tourID primitive.ObjectID) (*models.RatingStats, error)
	AllRatingStats(ctx context.Context) ([]models.RatingStats, error)
	EnsureIndexes(ctx context.Context) error
}

type reviewRepo struct {
	*documentRepo[models.Review]
	users *documentRepo[models.User]
}

func NewReviewRepo(db *mongo.Database) ReviewRepository {
	return newReviewRepo(db)
}

func newReviewRepo(db *mongo.Database) *reviewRepo {
	return &reviewRepo{
		documentRepo: newDocumentRepo[models.Review](db.Collection(ReviewsCollection), nil),
		users:        newDocumentRepo[models.User](db.Collection(UsersCollection), activeUsersScope),
	}
}

func (r *reviewRepo) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	id, err := r.insert(ctx, review)
	if err != nil {
		return nil, err
	}
	review.ID = id
	return review, nil
}

func (r *reviewRepo) GetByID(ctx context.Context, id string) (*models.Review, error) {
	review, err := r.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.populateUsers(ctx, []*models.Review{review}); err != nil {
		return nil, err
	}
	return review, nil
}

func (r *reviewRepo) Update(ctx context.Context, id string, update bson.M) (*models.Review, error) {
	review, err := r.updateByID(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if err := r.populateUsers(ctx, []*models.Review{review}); err != nil {
		return nil, err
	}
	return review, nil
}

func (r *reviewRepo) Delete(ctx context.Context, id string) (*models.Review, error) {
	return r.deleteByID(ctx, id)
}

func (r *reviewRepo) List(ctx context.Context, q *Query) ([]*models.Review, error) {
	reviews, err := r.find(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := r.populateUsers(ctx, reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// populateUsers attaches the author's name and photo to each review
func (r *reviewRepo) populateUsers(ctx context.Context, reviews []*models.Review) error {
	var ids bson.A
	seen := map[primitive.ObjectID]bool{}
	for _, rv := range reviews {
		if !rv.UserID.IsZero() && !seen[rv.UserID] {
			seen[rv.UserID] = true
			ids = append(ids, rv.UserID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	users, err := r.users.find(ctx, &Query{
		Filter:     bson.M{"_id": bson.M{"$in": ids}},
		Projection: bson.D{{Key: "name", Value: 1}, {Key: "photo", Value: 1}},
	})
	if err != nil {
		return err
	}

	byID := make(map[primitive.ObjectID]*models.UserSummary, len(users))
	for _, u := range users {
		byID[u.ID] = u.Summary()
	}
	for _, rv := range reviews {
		rv.User = byID[rv.UserID]
	}
	return nil
}

var ratingGroup = bson.M{
	"_id":       "$tour",
	"nRating":   bson.M{"$sum": 1},
	"avgRating": bson.M{"$avg": "$rating"},
}

// RatingStats aggregates all reviews of one tour. It returns nil when the tour has none.
func (r *reviewRepo) RatingStats(ctx context.Context, tourID primitive.ObjectID) (*models.RatingStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tour": tourID}}},
		{{Key: "$group", Value: ratingGroup}},
	}

	var stats []models.RatingStats
	if err := r.aggregate(ctx, pipeline, &stats); err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, nil
	}
	return &stats[0], nil
}

func (r *reviewRepo) AllRatingStats(ctx context.Context) ([]models.RatingStats, error) {
	pipeline := mongo.Pipeline{{{Key: "$group", Value: ratingGroup}}}

	stats := []models.RatingStats{}
	if err := r.aggregate(ctx, pipeline, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// EnsureIndexes limits each user to one review per tour
func (r *reviewRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tour", Value: 1}, {Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
