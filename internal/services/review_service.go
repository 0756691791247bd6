package services

import (
	"context"

	"natours/internal/models"
	"natours/internal/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RatingsWriter receives recomputed review aggregates
type RatingsWriter interface {
	SetRatings(ctx context.Context, tourID primitive.ObjectID, quantity int, average float64) error
	ResetRatingsExcept(ctx context.Context, rated []primitive.ObjectID) (int64, error)
}

type ReviewService interface {
	repositories.DocumentStore[models.Review]
	CalcAverageRatings(ctx context.Context, tourID primitive.ObjectID) error
	RecalculateAll(ctx context.Context) (int, error)
}

type reviewService struct {
	repo  repositories.ReviewRepository
	tours RatingsWriter
}

func NewReviewService(repo repositories.ReviewRepository, tours RatingsWriter) ReviewService {
	return &reviewService{repo: repo, tours: tours}
}

func (s *reviewService) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	created, err := s.repo.Create(ctx, review)
	if err != nil {
		return nil, err
	}
	if err := s.CalcAverageRatings(ctx, created.TourID); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *reviewService) GetByID(ctx context.Context, id string) (*models.Review, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *reviewService) Update(ctx context.Context, id string, update bson.M) (*models.Review, error) {
	updated, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if err := s.CalcAverageRatings(ctx, updated.TourID); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *reviewService) Delete(ctx context.Context, id string) (*models.Review, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.CalcAverageRatings(ctx, deleted.TourID); err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *reviewService) List(ctx context.Context, q *repositories.Query) ([]*models.Review, error) {
	return s.repo.List(ctx, q)
}

// CalcAverageRatings stores the review count and mean rating on the tour.
// A tour without reviews goes back to 0 reviews and the default average.
func (s *reviewService) CalcAverageRatings(ctx context.Context, tourID primitive.ObjectID) error {
	stats, err := s.repo.RatingStats(ctx, tourID)
	if err != nil {
		return err
	}
	if stats == nil {
		return s.tours.SetRatings(ctx, tourID, 0, models.DefaultRatingsAverage)
	}
	return s.tours.SetRatings(ctx, tourID, stats.NRating, stats.AvgRating)
}

// RecalculateAll reconciles every tour with its reviews and returns the
// number of tours touched
func (s *reviewService) RecalculateAll(ctx context.Context) (int, error) {
	all, err := s.repo.AllRatingStats(ctx)
	if err != nil {
		return 0, err
	}

	rated := make([]primitive.ObjectID, 0, len(all))
	for _, st := range all {
		if err := s.tours.SetRatings(ctx, st.TourID, st.NRating, st.AvgRating); err != nil {
			return 0, err
		}
		rated = append(rated, st.TourID)
	}

	reset, err := s.tours.ResetRatingsExcept(ctx, rated)
	if err != nil {
		return 0, err
	}
	return len(rated) + int(reset), nil
}
