package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"natours/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockResetTokenStore struct {
	mock.Mock
}

func (m *MockResetTokenStore) ClearExpiredResetTokens(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockRatingsRecalculator struct {
	mock.Mock
}

func (m *MockRatingsRecalculator) RecalculateAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockTourReports struct {
	mock.Mock
}

func (m *MockTourReports) Stats(ctx context.Context) ([]models.TourStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TourStats), args.Error(1)
}

func (m *MockTourReports) MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MonthlyPlan), args.Error(1)
}

type MaintenanceTestSuite struct {
	suite.Suite
	ctx context.Context
}

func (suite *MaintenanceTestSuite) SetupTest() {
	suite.ctx = context.Background()
}

func (suite *MaintenanceTestSuite) TestResetTokenCleanup() {
	// Arrange
	users := new(MockResetTokenStore)
	users.On("ClearExpiredResetTokens", suite.ctx).Return(int64(3), nil).Once()
	users.On("ClearExpiredResetTokens", suite.ctx).Return(int64(0), errors.New("mongo down")).Once()
	job := NewResetTokenCleanup(users)

	// Act & Assert
	suite.NoError(job.Run(suite.ctx))
	suite.EqualError(job.Run(suite.ctx), "mongo down")
	users.AssertExpectations(suite.T())
}

func (suite *MaintenanceTestSuite) TestRatingsReconciler() {
	// Arrange
	reviews := new(MockRatingsRecalculator)
	reviews.On("RecalculateAll", suite.ctx).Return(9, nil)
	job := NewRatingsReconciler(reviews)

	// Act
	err := job.Run(suite.ctx)

	// Assert
	suite.NoError(err)
	reviews.AssertExpectations(suite.T())
}

func (suite *MaintenanceTestSuite) TestStatsWarmer_UsesCurrentYear() {
	// Arrange
	tours := new(MockTourReports)
	tours.On("Stats", suite.ctx).Return([]models.TourStats{}, nil)
	tours.On("MonthlyPlan", suite.ctx, 2026).Return([]models.MonthlyPlan{}, nil)
	job := NewStatsWarmer(tours)
	job.now = func() time.Time { return time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC) }

	// Act
	err := job.Run(suite.ctx)

	// Assert
	suite.NoError(err)
	tours.AssertExpectations(suite.T())
}

func (suite *MaintenanceTestSuite) TestStatsWarmer_StopsOnStatsError() {
	// Arrange
	tours := new(MockTourReports)
	tours.On("Stats", suite.ctx).Return(nil, errors.New("aggregate failed"))
	job := NewStatsWarmer(tours)

	// Act
	err := job.Run(suite.ctx)

	// Assert
	assert.EqualError(suite.T(), err, "aggregate failed")
	tours.AssertNotCalled(suite.T(), "MonthlyPlan", mock.Anything, mock.Anything)
}

func TestMaintenanceTestSuite(t *testing.T) {
	suite.Run(t, new(MaintenanceTestSuite))
}
