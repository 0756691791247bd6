package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"natours/internal/common"
	"natours/internal/models"
	"natours/internal/repositories"
	"natours/internal/services"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TourHandlers handles tour HTTP requests
type TourHandlers struct {
	tours services.TourService
}

func NewTourHandlers(tours services.TourService) *TourHandlers {
	return &TourHandlers{tours: tours}
}

var tourMessages = map[string]string{
	"name.required":         "a tour must have a name",
	"name.max":              "A tour name must have less or equal then 40 characters",
	"name.min":              "A tour name must have more or equal then 10 characters",
	"duration.required":     "A tour must have a duration",
	"maxGroupSize.required": "A tour must have a group size",
	"difficulty.required":   "A tour must have a difficulty",
	"difficulty.oneof":      "Difficulty is either: easy, medium, difficult",
	"ratingsAverage.gte":    "Rating must be above 1.0",
	"ratingsAverage.lte":    "Rating must be below 5.0",
	"price.required":        "A tour must have a price",
	"summary.required":      "A tour must have a description",
	"imageCover.required":   "A tour must have a cover image",
	"guides.mongodb":        "Invalid value {VALUE} for field guides",
}

// CreateTourRequest represents the create tour payload
type CreateTourRequest struct {
	Name            string            `json:"name" validate:"required,min=10,max=40"`
	Duration        int               `json:"duration" validate:"required,gt=0"`
	MaxGroupSize    int               `json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      string            `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	RatingsAverage  *float64          `json:"ratingsAverage" validate:"omitempty,gte=1,lte=5"`
	RatingsQuantity *int              `json:"ratingsQuantity" validate:"omitempty,gte=0"`
	Price           float64           `json:"price" validate:"required,gt=0"`
	PriceDiscount   *float64          `json:"priceDiscount" validate:"omitempty,gte=0"`
	Summary         string            `json:"summary" validate:"required"`
	Description     string            `json:"description"`
	ImageCover      string            `json:"imageCover" validate:"required"`
	Images          []string          `json:"images"`
	StartDates      []time.Time       `json:"startDates"`
	SecretTour      bool              `json:"secretTour"`
	StartLocation   *models.Location  `json:"startLocation"`
	Locations       []models.Location `json:"locations"`
	Guides          []string          `json:"guides" validate:"omitempty,dive,mongodb"`
}

func (r *CreateTourRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Summary = strings.TrimSpace(r.Summary)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *CreateTourRequest) Messages() map[string]string { return tourMessages }

func (r *CreateTourRequest) Check() error {
	if err := checkDiscount(r.PriceDiscount, r.Price); err != nil {
		return err
	}
	return checkLocations(r.StartLocation, r.Locations)
}

func (r *CreateTourRequest) ToDocument() (*models.Tour, error) {
	guides, err := objectIDs("guides", r.Guides)
	if err != nil {
		return nil, err
	}

	tour := &models.Tour{
		Name:          r.Name,
		Duration:      r.Duration,
		MaxGroupSize:  r.MaxGroupSize,
		Difficulty:    models.Difficulty(r.Difficulty),
		Price:         r.Price,
		PriceDiscount: r.PriceDiscount,
		Summary:       r.Summary,
		Description:   r.Description,
		ImageCover:    r.ImageCover,
		Images:        r.Images,
		StartDates:    r.StartDates,
		SecretTour:    r.SecretTour,
		StartLocation: r.StartLocation,
		Locations:     r.Locations,
		GuideIDs:      guides,
	}
	if r.RatingsAverage != nil {
		tour.RatingsAverage = *r.RatingsAverage
	}
	if r.RatingsQuantity != nil {
		tour.RatingsQuantity = *r.RatingsQuantity
	}
	return tour, nil
}

// UpdateTourRequest carries only the fields being changed
type UpdateTourRequest struct {
	Name            *string           `json:"name" validate:"omitempty,min=10,max=40"`
	Duration        *int              `json:"duration" validate:"omitempty,gt=0"`
	MaxGroupSize    *int              `json:"maxGroupSize" validate:"omitempty,gt=0"`
	Difficulty      *string           `json:"difficulty" validate:"omitempty,oneof=easy medium difficult"`
	RatingsAverage  *float64          `json:"ratingsAverage" validate:"omitempty,gte=1,lte=5"`
	RatingsQuantity *int              `json:"ratingsQuantity" validate:"omitempty,gte=0"`
	Price           *float64          `json:"price" validate:"omitempty,gt=0"`
	PriceDiscount   *float64          `json:"priceDiscount" validate:"omitempty,gte=0"`
	Summary         *string           `json:"summary"`
	Description     *string           `json:"description"`
	ImageCover      *string           `json:"imageCover"`
	Images          []string          `json:"images"`
	StartDates      []time.Time       `json:"startDates"`
	SecretTour      *bool             `json:"secretTour"`
	StartLocation   *models.Location  `json:"startLocation"`
	Locations       []models.Location `json:"locations"`
	Guides          []string          `json:"guides" validate:"omitempty,dive,mongodb"`
}

func (r *UpdateTourRequest) Normalize() {
	for _, s := range []*string{r.Name, r.Summary, r.Description} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
}

func (r *UpdateTourRequest) Messages() map[string]string { return tourMessages }

// Check compares the discount only when both prices are part of the update
func (r *UpdateTourRequest) Check() error {
	if r.Price != nil {
		if err := checkDiscount(r.PriceDiscount, *r.Price); err != nil {
			return err
		}
	}
	return checkLocations(r.StartLocation, r.Locations)
}

func (r *UpdateTourRequest) ToUpdate() (bson.M, error) {
	update := bson.M{}
	setIf(update, "name", r.Name)
	setIf(update, "duration", r.Duration)
	setIf(update, "maxGroupSize", r.MaxGroupSize)
	setIf(update, "difficulty", r.Difficulty)
	setIf(update, "ratingsAverage", r.RatingsAverage)
	setIf(update, "ratingsQuantity", r.RatingsQuantity)
	setIf(update, "price", r.Price)
	setIf(update, "priceDiscount", r.PriceDiscount)
	setIf(update, "summary", r.Summary)
	setIf(update, "description", r.Description)
	setIf(update, "imageCover", r.ImageCover)
	setIf(update, "secretTour", r.SecretTour)
	setIf(update, "startLocation", r.StartLocation)
	if r.Images != nil {
		update["images"] = r.Images
	}
	if r.StartDates != nil {
		update["startDates"] = r.StartDates
	}
	if r.Locations != nil {
		update["locations"] = r.Locations
	}
	if r.Guides != nil {
		guides, err := objectIDs("guides", r.Guides)
		if err != nil {
			return nil, err
		}
		update["guides"] = guides
	}
	return update, nil
}

// AliasTopTours presets the query for the five best rated cheap tours
func (h *TourHandlers) AliasTopTours(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		q := c.QueryParams()
		q.Set("limit", "5")
		q.Set("sort", "ratingsAverage,price")
		q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
		c.Request().URL.RawQuery = q.Encode()
		return next(c)
	}
}

func (h *TourHandlers) GetAllTours(c echo.Context) error {
	return GetAll[models.Tour](h.tours)(c)
}

func (h *TourHandlers) GetTour(c echo.Context) error {
	return GetOne[models.Tour](h.tours)(c)
}

func (h *TourHandlers) CreateTour(c echo.Context) error {
	return CreateOne[models.Tour, CreateTourRequest](h.tours)(c)
}

func (h *TourHandlers) UpdateTour(c echo.Context) error {
	return UpdateOne[models.Tour, UpdateTourRequest](h.tours)(c)
}

func (h *TourHandlers) DeleteTour(c echo.Context) error {
	return DeleteOne[models.Tour](h.tours)(c)
}

// GetTourStats aggregates well rated tours per difficulty
func (h *TourHandlers) GetTourStats(c echo.Context) error {
	stats, err := h.tours.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	if stats == nil {
		stats = []models.TourStats{}
	}
	return common.SendNamed(c, http.StatusOK, "stats", stats)
}

// GetMonthlyPlan counts tour starts per month of the given year
func (h *TourHandlers) GetMonthlyPlan(c echo.Context) error {
	raw := c.Param("year")
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 || year > 9999 {
		return common.NewAppErrorf(http.StatusBadRequest, "Invalid value %s for field year", raw)
	}

	plan, err := h.tours.MonthlyPlan(c.Request().Context(), year)
	if err != nil {
		return err
	}
	if plan == nil {
		plan = []models.MonthlyPlan{}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": common.StatusSuccess, "plan": plan})
}

func checkDiscount(discount *float64, price float64) error {
	if discount != nil && *discount >= price {
		return common.NewAppErrorf(http.StatusBadRequest,
			"Invalid input data. Discount price (%s) should be below the regular price", strconv.FormatFloat(*discount, 'f', -1, 64))
	}
	return nil
}

func checkLocations(start *models.Location, locations []models.Location) error {
	all := locations
	if start != nil {
		all = append([]models.Location{*start}, locations...)
	}
	for _, loc := range all {
		if loc.Type != "" && loc.Type != models.GeoPoint {
			return common.NewAppErrorf(http.StatusBadRequest, "Invalid input data. Location type must be %s", models.GeoPoint)
		}
		if len(loc.Coordinates) != 2 {
			return common.NewAppError("Invalid input data. A location needs [longitude, latitude] coordinates", http.StatusBadRequest)
		}
	}
	if start != nil && start.Type == "" {
		start.Type = models.GeoPoint
	}
	for i := range locations {
		if locations[i].Type == "" {
			locations[i].Type = models.GeoPoint
		}
	}
	return nil
}

func objectIDs(field string, hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, &repositories.CastError{Path: field, Value: h}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// setIf copies a pointer field into the update when the client sent it
func setIf[V any](update bson.M, key string, value *V) {
	if value != nil {
		update[key] = *value
	}
}
