package handlers

import (
	"net/http"
	"testing"

	"natours/internal/models"
	"natours/internal/repositories"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewHandlersTestSuite struct {
	suite.Suite
	e       *echo.Echo
	reviews *MockReviewService
	user    *models.User
	tourID  primitive.ObjectID
}

func (suite *ReviewHandlersTestSuite) SetupTest() {
	suite.e = newTestEcho()
	suite.reviews = new(MockReviewService)
	suite.user = &models.User{ID: primitive.NewObjectID(), Name: "Lourdes", Role: models.RoleUser}
	suite.tourID = primitive.NewObjectID()
	h := NewReviewHandlers(suite.reviews)

	for _, prefix := range []string{"/api/v1/reviews", "/api/v1/tours/:tourId/reviews"} {
		g := suite.e.Group(prefix, loggedIn(suite.user))
		g.GET("", h.GetAllReviews)
		g.POST("", h.CreateReview)
		g.GET("/:id", h.GetReview)
		g.PATCH("/:id", h.UpdateReview)
		g.DELETE("/:id", h.DeleteReview)
	}
}

func (suite *ReviewHandlersTestSuite) TearDownTest() {
	suite.reviews.AssertExpectations(suite.T())
}

func (suite *ReviewHandlersTestSuite) TestCreateReview_Nested() {
	// Arrange
	suite.reviews.On("Create", mock.Anything, mock.MatchedBy(func(r *models.Review) bool {
		return r.TourID == suite.tourID && r.UserID == suite.user.ID &&
			r.Review == "Amazing tour, would book again" && r.Rating == 5
	})).Return(&models.Review{ID: primitive.NewObjectID(), TourID: suite.tourID, Rating: 5}, nil)

	// Act
	rec := doRequest(suite.e, http.MethodPost, "/api/v1/tours/"+suite.tourID.Hex()+"/reviews",
		`{"review":" Amazing tour, would book again ","rating":5}`)

	// Assert
	suite.Equal(http.StatusCreated, rec.Code, rec.Body.String())
	doc := dataOf(suite.T(), decodeBody(suite.T(), rec), "data").(map[string]interface{})
	suite.Equal(suite.tourID.Hex(), doc["tour"])
}

func (suite *ReviewHandlersTestSuite) TestCreateReview_EscapesMarkup() {
	// Arrange
	suite.reviews.On("Create", mock.Anything, mock.MatchedBy(func(r *models.Review) bool {
		return r.Review == "&lt;b&gt;Loved&lt;/b&gt; every minute"
	})).Return(&models.Review{ID: primitive.NewObjectID(), TourID: suite.tourID, Rating: 4}, nil)

	// Act
	rec := doRequest(suite.e, http.MethodPost, "/api/v1/tours/"+suite.tourID.Hex()+"/reviews",
		`{"review":"<b>Loved</b> every minute","rating":4}`)

	// Assert
	suite.Equal(http.StatusCreated, rec.Code, rec.Body.String())
}

func (suite *ReviewHandlersTestSuite) TestCreateReview_Validation() {
	// Act
	rec := doRequest(suite.e, http.MethodPost, "/api/v1/reviews", `{"review":"short","rating":6}`)

	// Assert
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal("Invalid input data. review must be more than 10 character. Rating must be below 5.0. review must belong to a tour",
		decodeBody(suite.T(), rec)["message"])
}

func (suite *ReviewHandlersTestSuite) TestCreateReview_InvalidTourParam() {
	// Act
	rec := doRequest(suite.e, http.MethodPost, "/api/v1/tours/abc/reviews", `{"review":"Amazing tour, would book again","rating":4}`)

	// Assert
	suite.Equal(http.StatusBadRequest, rec.Code)
	suite.Equal("Invalid input data. Invalid value abc for field tour", decodeBody(suite.T(), rec)["message"])
}

func (suite *ReviewHandlersTestSuite) TestGetAllReviews_NestedFilter() {
	// Arrange
	suite.reviews.On("List", mock.Anything, mock.MatchedBy(func(q *repositories.Query) bool {
		return q.Filter["tour"] == suite.tourID
	})).Return([]*models.Review{{ID: primitive.NewObjectID(), TourID: suite.tourID}}, nil)

	// Act
	rec := doRequest(suite.e, http.MethodGet, "/api/v1/tours/"+suite.tourID.Hex()+"/reviews?tour=other", "")

	// Assert
	suite.Equal(http.StatusOK, rec.Code)
	suite.Equal(float64(1), decodeBody(suite.T(), rec)["results"])
}

func (suite *ReviewHandlersTestSuite) TestGetAllReviews_Unscoped() {
	// Arrange
	suite.reviews.On("List", mock.Anything, mock.MatchedBy(func(q *repositories.Query) bool {
		_, scoped := q.Filter["tour"]
		return !scoped
	})).Return([]*models.Review{}, nil)

	// Act
	rec := doRequest(suite.e, http.MethodGet, "/api/v1/reviews", "")

	// Assert
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *ReviewHandlersTestSuite) TestUpdateReview() {
	// Arrange
	id := primitive.NewObjectID()
	suite.reviews.On("Update", mock.Anything, id.Hex(), bson.M{"rating": float64(3)}).
		Return(&models.Review{ID: id, Rating: 3}, nil)

	// Act
	rec := doRequest(suite.e, http.MethodPatch, "/api/v1/reviews/"+id.Hex(), `{"rating":3}`)

	// Assert
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *ReviewHandlersTestSuite) TestDeleteReview_NotFound() {
	// Arrange
	id := primitive.NewObjectID().Hex()
	suite.reviews.On("Delete", mock.Anything, id).Return(nil, repositories.ErrNotFound)

	// Act
	rec := doRequest(suite.e, http.MethodDelete, "/api/v1/reviews/"+id, "")

	// Assert
	suite.Equal(http.StatusNotFound, rec.Code)
}

func TestReviewHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(ReviewHandlersTestSuite))
}
