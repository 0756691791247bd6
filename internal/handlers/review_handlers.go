package handlers

import (
	"strings"

	"natours/internal/common"
	"natours/internal/models"
	"natours/internal/repositories"
	"natours/internal/services"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewHandlers serves /reviews and /tours/:tourId/reviews
type ReviewHandlers struct {
	reviews services.ReviewService
}

func NewReviewHandlers(reviews services.ReviewService) *ReviewHandlers {
	return &ReviewHandlers{reviews: reviews}
}

var reviewMessages = map[string]string{
	"review.required": "Review cannot be empty",
	"review.min":      "review must be more than 10 character",
	"rating.required": "Must provide a rating",
	"rating.gte":      "Rating must be above 1.0",
	"rating.lte":      "Rating must be below 5.0",
	"tour.required":   "review must belong to a tour",
	"tour.mongodb":    "Invalid value {VALUE} for field tour",
	"user.mongodb":    "Invalid value {VALUE} for field user",
}

type CreateReviewRequest struct {
	Review string  `json:"review" validate:"required,min=10"`
	Rating float64 `json:"rating" validate:"required,gte=1,lte=5"`
	Tour   string  `json:"tour" validate:"required,mongodb"`
	User   string  `json:"user" validate:"omitempty,mongodb"`
}

func (r *CreateReviewRequest) Normalize() {
	r.Review = strings.TrimSpace(r.Review)
}

func (r *CreateReviewRequest) Messages() map[string]string { return reviewMessages }

func (r *CreateReviewRequest) Check() error {
	return common.SanitizeHTMLField(&r.Review, "review")
}

func (r *CreateReviewRequest) ToDocument() (*models.Review, error) {
	tourID, err := primitive.ObjectIDFromHex(r.Tour)
	if err != nil {
		return nil, &repositories.CastError{Path: "tour", Value: r.Tour}
	}
	review := &models.Review{
		Review: r.Review,
		Rating: r.Rating,
		TourID: tourID,
	}
	if r.User != "" {
		if review.UserID, err = primitive.ObjectIDFromHex(r.User); err != nil {
			return nil, &repositories.CastError{Path: "user", Value: r.User}
		}
	}
	return review, nil
}

type UpdateReviewRequest struct {
	Review *string  `json:"review" validate:"omitempty,min=10"`
	Rating *float64 `json:"rating" validate:"omitempty,gte=1,lte=5"`
}

func (r *UpdateReviewRequest) Normalize() {
	if r.Review != nil {
		trimmed := strings.TrimSpace(*r.Review)
		r.Review = &trimmed
	}
}

func (r *UpdateReviewRequest) Messages() map[string]string { return reviewMessages }

func (r *UpdateReviewRequest) Check() error {
	return common.SanitizeHTMLField(r.Review, "review")
}

func (r *UpdateReviewRequest) ToUpdate() (bson.M, error) {
	update := bson.M{}
	setIf(update, "review", r.Review)
	setIf(update, "rating", r.Rating)
	return update, nil
}

// setTourUserIDs defaults the tour to the nested route and the author to the
// logged in user
func setTourUserIDs(c echo.Context, r *CreateReviewRequest) error {
	if r.Tour == "" {
		r.Tour = c.Param("tourId")
	}
	if r.User == "" {
		if user, ok := common.CurrentUser(c); ok {
			r.User = user.ID.Hex()
		}
	}
	return nil
}

// tourFilter limits a list to the reviews of :tourId when nested under a tour
func tourFilter(c echo.Context) (bson.M, error) {
	hex := c.Param("tourId")
	if hex == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, &repositories.CastError{Path: "tour", Value: hex}
	}
	return bson.M{"tour": id}, nil
}

func (h *ReviewHandlers) GetAllReviews(c echo.Context) error {
	return GetAll[models.Review](h.reviews, tourFilter)(c)
}

func (h *ReviewHandlers) GetReview(c echo.Context) error {
	return GetOne[models.Review](h.reviews)(c)
}

func (h *ReviewHandlers) CreateReview(c echo.Context) error {
	return CreateOne[models.Review, CreateReviewRequest](h.reviews, setTourUserIDs)(c)
}

func (h *ReviewHandlers) UpdateReview(c echo.Context) error {
	return UpdateOne[models.Review, UpdateReviewRequest](h.reviews)(c)
}

func (h *ReviewHandlers) DeleteReview(c echo.Context) error {
	return DeleteOne[models.Review](h.reviews)(c)
}
