package jobs

import (
	"context"
	"log"
	"time"

	"natours/internal/models"
)

const (
	ResetTokenCleanupInterval = 10 * time.Minute
	RatingsReconcileInterval  = time.Hour
	StatsWarmInterval         = 5 * time.Minute
)

// ResetTokenStore is the part of the user service the cleanup needs
type ResetTokenStore interface {
	ClearExpiredResetTokens(ctx context.Context) (int64, error)
}

// ResetTokenCleanup removes password reset tokens whose window has closed
type ResetTokenCleanup struct {
	users ResetTokenStore
}

func NewResetTokenCleanup(users ResetTokenStore) *ResetTokenCleanup {
	return &ResetTokenCleanup{users: users}
}

func (j *ResetTokenCleanup) Run(ctx context.Context) error {
	n, err := j.users.ClearExpiredResetTokens(ctx)
	if err != nil {
		log.Printf("Failed to clear expired reset tokens: %v", err)
		return err
	}
	if n > 0 {
		log.Printf("Cleared %d expired password reset tokens", n)
	}
	return nil
}

// RatingsRecalculator rebuilds the rating aggregates of every tour
type RatingsRecalculator interface {
	RecalculateAll(ctx context.Context) (int, error)
}

// RatingsReconciler repairs tour ratings that drifted from their reviews,
// e.g. after reviews were edited directly in the database
type RatingsReconciler struct {
	reviews RatingsRecalculator
}

func NewRatingsReconciler(reviews RatingsRecalculator) *RatingsReconciler {
	return &RatingsReconciler{reviews: reviews}
}

func (j *RatingsReconciler) Run(ctx context.Context) error {
	n, err := j.reviews.RecalculateAll(ctx)
	if err != nil {
		log.Printf("Failed to reconcile tour ratings: %v", err)
		return err
	}
	log.Printf("Reconciled ratings of %d tours", n)
	return nil
}

// TourReports serves the cached tour aggregations
type TourReports interface {
	Stats(ctx context.Context) ([]models.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error)
}

// StatsWarmer refills the stats and current year plan caches so the first
// request after an invalidation does not pay for the aggregation
type StatsWarmer struct {
	tours TourReports
	now   func() time.Time
}

func NewStatsWarmer(tours TourReports) *StatsWarmer {
	return &StatsWarmer{tours: tours, now: time.Now}
}

func (j *StatsWarmer) Run(ctx context.Context) error {
	if _, err := j.tours.Stats(ctx); err != nil {
		log.Printf("Failed to warm tour stats: %v", err)
		return err
	}
	year := j.now().Year()
	if _, err := j.tours.MonthlyPlan(ctx, year); err != nil {
		log.Printf("Failed to warm monthly plan for %d: %v", year, err)
		return err
	}
	return nil
}
