package services

import (
	"context"
	"errors"
	"testing"

	"natours/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewServiceTestSuite struct {
	suite.Suite
	repo    *MockReviewRepository
	tours   *MockTourRepository
	service ReviewService
	ctx     context.Context
	tourID  primitive.ObjectID
}

func (suite *ReviewServiceTestSuite) SetupTest() {
	suite.repo = &MockReviewRepository{}
	suite.tours = &MockTourRepository{}
	suite.service = NewReviewService(suite.repo, suite.tours)
	suite.ctx = context.Background()
	suite.tourID = primitive.NewObjectID()
}

func (suite *ReviewServiceTestSuite) TearDownTest() {
	suite.repo.AssertExpectations(suite.T())
	suite.tours.AssertExpectations(suite.T())
}

func TestReviewServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReviewServiceTestSuite))
}

func (suite *ReviewServiceTestSuite) TestCreate_RecalculatesRatings() {
	// Arrange
	review := &models.Review{Review: "Amazing tour, would book again", Rating: 5, TourID: suite.tourID}
	created := &models.Review{ID: primitive.NewObjectID(), Review: review.Review, Rating: 5, TourID: suite.tourID}
	suite.repo.On("Create", suite.ctx, review).Return(created, nil).Once()
	suite.repo.On("RatingStats", suite.ctx, suite.tourID).
		Return(&models.RatingStats{TourID: suite.tourID, NRating: 3, AvgRating: 4.666}, nil).Once()
	suite.tours.On("SetRatings", suite.ctx, suite.tourID, 3, 4.666).Return(nil).Once()

	// Act
	result, err := suite.service.Create(suite.ctx, review)

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), created, result)
}

func (suite *ReviewServiceTestSuite) TestCreate_StoreErrorSkipsRecalculation() {
	review := &models.Review{TourID: suite.tourID}
	suite.repo.On("Create", suite.ctx, review).Return(nil, errors.New("write failed")).Once()

	_, err := suite.service.Create(suite.ctx, review)

	assert.EqualError(suite.T(), err, "write failed")
	suite.tours.AssertNotCalled(suite.T(), "SetRatings", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReviewServiceTestSuite) TestUpdate_RecalculatesRatings() {
	id := primitive.NewObjectID()
	update := bson.M{"rating": 2.0}
	updated := &models.Review{ID: id, Rating: 2, TourID: suite.tourID}
	suite.repo.On("Update", suite.ctx, id.Hex(), update).Return(updated, nil).Once()
	suite.repo.On("RatingStats", suite.ctx, suite.tourID).
		Return(&models.RatingStats{TourID: suite.tourID, NRating: 1, AvgRating: 2}, nil).Once()
	suite.tours.On("SetRatings", suite.ctx, suite.tourID, 1, 2.0).Return(nil).Once()

	result, err := suite.service.Update(suite.ctx, id.Hex(), update)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), updated, result)
}

func (suite *ReviewServiceTestSuite) TestDelete_LastReviewResetsToDefaults() {
	id := primitive.NewObjectID()
	deleted := &models.Review{ID: id, TourID: suite.tourID}
	suite.repo.On("Delete", suite.ctx, id.Hex()).Return(deleted, nil).Once()
	suite.repo.On("RatingStats", suite.ctx, suite.tourID).Return(nil, nil).Once()
	suite.tours.On("SetRatings", suite.ctx, suite.tourID, 0, models.DefaultRatingsAverage).Return(nil).Once()

	result, err := suite.service.Delete(suite.ctx, id.Hex())

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), deleted, result)
}

func (suite *ReviewServiceTestSuite) TestRecalculateAll() {
	other := primitive.NewObjectID()
	stats := []models.RatingStats{
		{TourID: suite.tourID, NRating: 2, AvgRating: 4.5},
		{TourID: other, NRating: 1, AvgRating: 3},
	}
	suite.repo.On("AllRatingStats", suite.ctx).Return(stats, nil).Once()
	suite.tours.On("SetRatings", suite.ctx, suite.tourID, 2, 4.5).Return(nil).Once()
	suite.tours.On("SetRatings", suite.ctx, other, 1, 3.0).Return(nil).Once()
	suite.tours.On("ResetRatingsExcept", suite.ctx, []primitive.ObjectID{suite.tourID, other}).Return(int64(4), nil).Once()

	n, err := suite.service.RecalculateAll(suite.ctx)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 6, n)
}

func (suite *ReviewServiceTestSuite) TestRecalculateAll_AggregationError() {
	suite.repo.On("AllRatingStats", suite.ctx).Return(nil, errors.New("boom")).Once()

	_, err := suite.service.RecalculateAll(suite.ctx)

	assert.Error(suite.T(), err)
}
