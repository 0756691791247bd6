package services

import (
	"context"
	"errors"
	"testing"

	"natours/internal/models"
	"natours/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TourServiceTestSuite struct {
	suite.Suite
	repo    *MockTourRepository
	cache   *MockCacheService
	service TourService
	ctx     context.Context
}

func (suite *TourServiceTestSuite) SetupTest() {
	suite.repo = &MockTourRepository{}
	suite.cache = &MockCacheService{}
	suite.service = NewTourService(suite.repo, suite.cache)
	suite.ctx = context.Background()
}

func (suite *TourServiceTestSuite) TearDownTest() {
	suite.repo.AssertExpectations(suite.T())
	suite.cache.AssertExpectations(suite.T())
}

func TestTourServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TourServiceTestSuite))
}

func (suite *TourServiceTestSuite) TestCreate_InvalidatesCache() {
	// Arrange
	tour := &models.Tour{Name: "The Forest Hiker"}
	created := &models.Tour{ID: primitive.NewObjectID(), Name: "The Forest Hiker"}
	suite.repo.On("Create", suite.ctx, tour).Return(created, nil).Once()
	suite.cache.On("InvalidateTourCache", suite.ctx).Return(nil).Once()

	// Act
	result, err := suite.service.Create(suite.ctx, tour)

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), created, result)
}

func (suite *TourServiceTestSuite) TestCreate_ErrorSkipsInvalidation() {
	tour := &models.Tour{Name: "The Forest Hiker"}
	suite.repo.On("Create", suite.ctx, tour).Return(nil, errors.New("duplicate")).Once()

	result, err := suite.service.Create(suite.ctx, tour)

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), result)
	suite.cache.AssertNotCalled(suite.T(), "InvalidateTourCache", suite.ctx)
}

func (suite *TourServiceTestSuite) TestUpdate_CacheFailureIsNotFatal() {
	id := primitive.NewObjectID()
	update := bson.M{"price": 497.0}
	updated := &models.Tour{ID: id, Price: 497}
	suite.repo.On("Update", suite.ctx, id.Hex(), update).Return(updated, nil).Once()
	suite.cache.On("InvalidateTourCache", suite.ctx).Return(errors.New("redis down")).Once()

	result, err := suite.service.Update(suite.ctx, id.Hex(), update)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), updated, result)
}

func (suite *TourServiceTestSuite) TestDelete_NotFound() {
	suite.repo.On("Delete", suite.ctx, "missing").Return(nil, repositories.ErrNotFound).Once()

	_, err := suite.service.Delete(suite.ctx, "missing")

	assert.ErrorIs(suite.T(), err, repositories.ErrNotFound)
}

func (suite *TourServiceTestSuite) TestStats_CacheHit() {
	cached := []models.TourStats{{Difficulty: "easy", NumTours: 4}}
	suite.cache.On("GetTourStats", suite.ctx).Return(cached, nil).Once()

	stats, err := suite.service.Stats(suite.ctx)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), cached, stats)
	suite.repo.AssertNotCalled(suite.T(), "Stats", suite.ctx)
}

func (suite *TourServiceTestSuite) TestStats_CacheMissStoresResult() {
	fresh := []models.TourStats{{Difficulty: "medium", NumTours: 3}}
	suite.cache.On("GetTourStats", suite.ctx).Return(nil, nil).Once()
	suite.repo.On("Stats", suite.ctx).Return(fresh, nil).Once()
	suite.cache.On("SetTourStats", suite.ctx, fresh, TourStatsTTL).Return(nil).Once()

	stats, err := suite.service.Stats(suite.ctx)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), fresh, stats)
}

func (suite *TourServiceTestSuite) TestStats_CacheReadErrorFallsBack() {
	fresh := []models.TourStats{{Difficulty: "difficult", NumTours: 2}}
	suite.cache.On("GetTourStats", suite.ctx).Return(nil, errors.New("redis down")).Once()
	suite.repo.On("Stats", suite.ctx).Return(fresh, nil).Once()
	suite.cache.On("SetTourStats", suite.ctx, fresh, TourStatsTTL).Return(errors.New("redis down")).Once()

	stats, err := suite.service.Stats(suite.ctx)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), fresh, stats)
}

func (suite *TourServiceTestSuite) TestMonthlyPlan_CacheMiss() {
	plan := []models.MonthlyPlan{{Month: 7, NumTourStarts: 3, Tours: []string{"A", "B", "C"}}}
	suite.cache.On("GetMonthlyPlan", suite.ctx, 2021).Return(nil, nil).Once()
	suite.repo.On("MonthlyPlan", suite.ctx, 2021).Return(plan, nil).Once()
	suite.cache.On("SetMonthlyPlan", suite.ctx, 2021, plan, TourStatsTTL).Return(nil).Once()

	result, err := suite.service.MonthlyPlan(suite.ctx, 2021)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), plan, result)
}

func (suite *TourServiceTestSuite) TestMonthlyPlan_RepoError() {
	suite.cache.On("GetMonthlyPlan", suite.ctx, 2021).Return(nil, nil).Once()
	suite.repo.On("MonthlyPlan", suite.ctx, 2021).Return(nil, errors.New("boom")).Once()

	_, err := suite.service.MonthlyPlan(suite.ctx, 2021)

	assert.EqualError(suite.T(), err, "boom")
}

func (suite *TourServiceTestSuite) TestSetRatings_InvalidatesCache() {
	id := primitive.NewObjectID()
	suite.repo.On("SetRatings", suite.ctx, id, 2, 4.25).Return(nil).Once()
	suite.cache.On("InvalidateTourCache", suite.ctx).Return(nil).Once()

	err := suite.service.SetRatings(suite.ctx, id, 2, 4.25)

	assert.NoError(suite.T(), err)
}

func (suite *TourServiceTestSuite) TestResetRatingsExcept_NothingChanged() {
	rated := []primitive.ObjectID{primitive.NewObjectID()}
	suite.repo.On("ResetRatingsExcept", suite.ctx, rated).Return(int64(0), nil).Once()

	n, err := suite.service.ResetRatingsExcept(suite.ctx, rated)

	assert.NoError(suite.T(), err)
	assert.Zero(suite.T(), n)
	suite.cache.AssertNotCalled(suite.T(), "InvalidateTourCache", suite.ctx)
}

func TestTourService_WithoutCache(t *testing.T) {
	repo := &MockTourRepository{}
	svc := NewTourService(repo, nil)
	ctx := context.Background()
	stats := []models.TourStats{{Difficulty: "easy"}}
	repo.On("Stats", ctx).Return(stats, nil).Once()

	result, err := svc.Stats(ctx)

	assert.NoError(t, err)
	assert.Equal(t, stats, result)
	repo.AssertExpectations(t)
}
