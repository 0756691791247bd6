package services

import (
	"context"
	"log"
	"time"

	"natours/internal/caching"
	"natours/internal/models"
	"natours/internal/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const TourStatsTTL = 10 * time.Minute

type TourService interface {
	repositories.DocumentStore[models.Tour]
	Stats(ctx context.Context) ([]models.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error)
	SetRatings(ctx context.Context, tourID primitive.ObjectID, quantity int, average float64) error
	ResetRatingsExcept(ctx context.Context, rated []primitive.ObjectID) (int64, error)
}

type tourService struct {
	repo     repositories.TourRepository
	cacheSvc caching.CacheService
}

// NewTourService wraps the tours store and keeps the cached aggregations in
// step with writes. cacheSvc may be nil.
func NewTourService(repo repositories.TourRepository, cacheSvc caching.CacheService) TourService {
	return &tourService{repo: repo, cacheSvc: cacheSvc}
}

func (s *tourService) Create(ctx context.Context, tour *models.Tour) (*models.Tour, error) {
	created, err := s.repo.Create(ctx, tour)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *tourService) GetByID(ctx context.Context, id string) (*models.Tour, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *tourService) Update(ctx context.Context, id string, update bson.M) (*models.Tour, error) {
	updated, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *tourService) Delete(ctx context.Context, id string) (*models.Tour, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return deleted, nil
}

func (s *tourService) List(ctx context.Context, q *repositories.Query) ([]*models.Tour, error) {
	return s.repo.List(ctx, q)
}

// Stats serves the difficulty breakdown from cache when possible
func (s *tourService) Stats(ctx context.Context) ([]models.TourStats, error) {
	if s.cacheSvc != nil {
		cached, err := s.cacheSvc.GetTourStats(ctx)
		if err != nil {
			log.Printf("WARN: tour stats cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetTourStats(ctx, stats, TourStatsTTL); err != nil {
			log.Printf("WARN: tour stats cache write failed: %v", err)
		}
	}
	return stats, nil
}

func (s *tourService) MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error) {
	if s.cacheSvc != nil {
		cached, err := s.cacheSvc.GetMonthlyPlan(ctx, year)
		if err != nil {
			log.Printf("WARN: monthly plan cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	plan, err := s.repo.MonthlyPlan(ctx, year)
	if err != nil {
		return nil, err
	}

	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetMonthlyPlan(ctx, year, plan, TourStatsTTL); err != nil {
			log.Printf("WARN: monthly plan cache write failed: %v", err)
		}
	}
	return plan, nil
}

func (s *tourService) SetRatings(ctx context.Context, tourID primitive.ObjectID, quantity int, average float64) error {
	if err := s.repo.SetRatings(ctx, tourID, quantity, average); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *tourService) ResetRatingsExcept(ctx context.Context, rated []primitive.ObjectID) (int64, error) {
	n, err := s.repo.ResetRatingsExcept(ctx, rated)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.invalidate(ctx)
	}
	return n, nil
}

func (s *tourService) invalidate(ctx context.Context) {
	if s.cacheSvc == nil {
		return
	}
	if err := s.cacheSvc.InvalidateTourCache(ctx); err != nil {
		log.Printf("WARN: failed to invalidate tour cache: %v", err)
	}
}
