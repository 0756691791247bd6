package repositories

import (
	"context"
	"math"
	"time"

	"natours/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ToursCollection = "tours"

type TourRepository interface {
	DocumentStore[models.Tour]
	Stats(ctx context.Context) ([]models.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error)
	SetRatings(ctx context.Context, tourID primitive.ObjectID, quantity int, average float64) error
	ResetRatingsExcept(ctx context.Context, rated []primitive.ObjectID) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type tourRepo struct {
	*documentRepo[models.Tour]
	users   *documentRepo[models.User]
	reviews *reviewRepo
}

// NewTourRepo returns the tours store. Secret tours are invisible to every
// read, write and aggregation issued through it.
func NewTourRepo(db *mongo.Database) TourRepository {
	return &tourRepo{
		documentRepo: newDocumentRepo[models.Tour](db.Collection(ToursCollection), bson.M{"secretTour": bson.M{"$ne": true}}),
		users:        newDocumentRepo[models.User](db.Collection(UsersCollection), activeUsersScope),
		reviews:      newReviewRepo(db),
	}
}

func (r *tourRepo) Create(ctx context.Context, tour *models.Tour) (*models.Tour, error) {
	tour.Slug = models.Slugify(tour.Name)
	if tour.RatingsAverage == 0 {
		tour.RatingsAverage = models.DefaultRatingsAverage
	}
	tour.RatingsAverage = roundRating(tour.RatingsAverage)
	if tour.CreatedAt.IsZero() {
		tour.CreatedAt = time.Now()
	}
	if tour.Images == nil {
		tour.Images = []string{}
	}
	if tour.StartDates == nil {
		tour.StartDates = []time.Time{}
	}
	if tour.Locations == nil {
		tour.Locations = []models.Location{}
	}
	if tour.GuideIDs == nil {
		tour.GuideIDs = []primitive.ObjectID{}
	}

	id, err := r.insert(ctx, tour)
	if err != nil {
		return nil, err
	}
	tour.ID = id

	if err := r.populateGuides(ctx, []*models.Tour{tour}); err != nil {
		return nil, err
	}
	return tour, nil
}

// GetByID returns a tour with its guides and reviews populated
func (r *tourRepo) GetByID(ctx context.Context, id string) (*models.Tour, error) {
	tour, err := r.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.populateGuides(ctx, []*models.Tour{tour}); err != nil {
		return nil, err
	}

	reviews, err := r.reviews.List(ctx, &Query{Filter: bson.M{"tour": tour.ID}})
	if err != nil {
		return nil, err
	}
	tour.Reviews = reviews
	return tour, nil
}

func (r *tourRepo) Update(ctx context.Context, id string, update bson.M) (*models.Tour, error) {
	if name, ok := update["name"].(string); ok {
		update["slug"] = models.Slugify(name)
	}
	if average, ok := update["ratingsAverage"].(float64); ok {
		update["ratingsAverage"] = roundRating(average)
	}
	tour, err := r.updateByID(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if err := r.populateGuides(ctx, []*models.Tour{tour}); err != nil {
		return nil, err
	}
	return tour, nil
}

func (r *tourRepo) Delete(ctx context.Context, id string) (*models.Tour, error) {
	return r.deleteByID(ctx, id)
}

func (r *tourRepo) List(ctx context.Context, q *Query) ([]*models.Tour, error) {
	tours, err := r.find(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := r.populateGuides(ctx, tours); err != nil {
		return nil, err
	}
	return tours, nil
}

// populateGuides resolves guide references with one query for all tours
func (r *tourRepo) populateGuides(ctx context.Context, tours []*models.Tour) error {
	var ids bson.A
	seen := map[primitive.ObjectID]bool{}
	for _, t := range tours {
		for _, id := range t.GuideIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	guides, err := r.users.find(ctx, &Query{
		Filter:     bson.M{"_id": bson.M{"$in": ids}},
		Projection: bson.D{{Key: "passwordChangedAt", Value: 0}},
	})
	if err != nil {
		return err
	}

	byID := make(map[primitive.ObjectID]*models.User, len(guides))
	for _, g := range guides {
		byID[g.ID] = g
	}
	for _, t := range tours {
		t.Guides = make([]*models.User, 0, len(t.GuideIDs))
		for _, id := range t.GuideIDs {
			if g, ok := byID[id]; ok {
				t.Guides = append(t.Guides, g)
			}
		}
	}
	return nil
}

// Stats groups well rated tours by difficulty
func (r *tourRepo) Stats(ctx context.Context) ([]models.TourStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"ratingsAverage": bson.M{"$gte": models.DefaultRatingsAverage}}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$difficulty",
			"numTours":  bson.M{"$sum": 1},
			"numRating": bson.M{"$sum": "$ratingsQuantity"},
			"avgRating": bson.M{"$avg": "$ratingsAverage"},
			"avgPrice":  bson.M{"$avg": "$price"},
			"minPrice":  bson.M{"$min": "$price"},
			"maxPrice":  bson.M{"$max": "$price"},
		}}},
		{{Key: "$sort", Value: bson.M{"avgPrice": 1}}},
	}

	stats := []models.TourStats{}
	if err := r.aggregate(ctx, pipeline, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// MonthlyPlan counts tour starts per month of the given year, busiest first
func (r *tourRepo) MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$startDates"}},
		{{Key: "$match", Value: bson.M{"startDates": bson.M{"$gte": from, "$lt": to}}}},
		{{Key: "$group", Value: bson.M{
			"_id":           bson.M{"$month": "$startDates"},
			"numTourStarts": bson.M{"$sum": 1},
			"tours":         bson.M{"$push": "$name"},
		}}},
		{{Key: "$addFields", Value: bson.M{"_month": "$_id"}}},
		{{Key: "$project", Value: bson.M{"_id": 0}}},
		{{Key: "$sort", Value: bson.D{{Key: "numTourStarts", Value: -1}, {Key: "_month", Value: 1}}}},
		{{Key: "$limit", Value: 12}},
	}

	plan := []models.MonthlyPlan{}
	if err := r.aggregate(ctx, pipeline, &plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// SetRatings stores the review aggregate on a tour. The average is rounded to one decimal.
func (r *tourRepo) SetRatings(ctx context.Context, tourID primitive.ObjectID, quantity int, average float64) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": tourID}, bson.M{"$set": bson.M{
		"ratingsQuantity": quantity,
		"ratingsAverage":  roundRating(average),
	}})
	return err
}

// ResetRatingsExcept restores the defaults on tours that have no reviews left
func (r *tourRepo) ResetRatingsExcept(ctx context.Context, rated []primitive.ObjectID) (int64, error) {
	if rated == nil {
		rated = []primitive.ObjectID{}
	}
	filter := bson.M{
		"_id":             bson.M{"$nin": rated},
		"ratingsQuantity": bson.M{"$ne": 0},
	}
	res, err := r.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"ratingsQuantity": 0,
		"ratingsAverage":  models.DefaultRatingsAverage,
	}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func roundRating(average float64) float64 {
	return math.Round(average*10) / 10
}

func (r *tourRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "price", Value: 1}, {Key: "ratingsAverage", Value: -1}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}
