package models

import (
	"encoding/json"
	"time"

	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

const (
	DefaultRatingsAverage = 4.5
	GeoPoint              = "Point"
)

// Location is a GeoJSON point with descriptive metadata
type Location struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
	Address     string    `bson:"address,omitempty" json:"address,omitempty"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Day         int       `bson:"day,omitempty" json:"day,omitempty"`
}

type Tour struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name            string               `bson:"name" json:"name"`
	Slug            string               `bson:"slug" json:"slug"`
	Duration        int                  `bson:"duration" json:"duration"`
	MaxGroupSize    int                  `bson:"maxGroupSize" json:"maxGroupSize"`
	Difficulty      Difficulty           `bson:"difficulty" json:"difficulty"`
	RatingsAverage  float64              `bson:"ratingsAverage" json:"ratingsAverage"`
	RatingsQuantity int                  `bson:"ratingsQuantity" json:"ratingsQuantity"`
	Price           float64              `bson:"price" json:"price"`
	PriceDiscount   *float64             `bson:"priceDiscount,omitempty" json:"priceDiscount,omitempty"`
	Summary         string               `bson:"summary" json:"summary"`
	Description     string               `bson:"description,omitempty" json:"description,omitempty"`
	ImageCover      string               `bson:"imageCover" json:"imageCover"`
	Images          []string             `bson:"images" json:"images"`
	CreatedAt       time.Time            `bson:"createdAt" json:"-"` // never selected for output
	StartDates      []time.Time          `bson:"startDates" json:"startDates"`
	SecretTour      bool                 `bson:"secretTour" json:"secretTour"`
	StartLocation   *Location            `bson:"startLocation,omitempty" json:"startLocation,omitempty"`
	Locations       []Location           `bson:"locations" json:"locations"`
	GuideIDs        []primitive.ObjectID `bson:"guides" json:"-"`

	// Populated on read
	Guides  []*User   `bson:"-" json:"guides"`
	Reviews []*Review `bson:"-" json:"reviews,omitempty"`
}

// DurationWeeks is derived, never stored
func (t *Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}

func (t *Tour) MarshalJSON() ([]byte, error) {
	type tourAlias Tour
	guides := t.Guides
	if guides == nil {
		guides = []*User{}
	}
	return json.Marshal(&struct {
		*tourAlias
		Guides        []*User `json:"guides"`
		DurationWeeks float64 `json:"durationWeeks"`
	}{
		tourAlias:     (*tourAlias)(t),
		Guides:        guides,
		DurationWeeks: t.DurationWeeks(),
	})
}

// TourStats is one difficulty bucket of the tour statistics aggregation
type TourStats struct {
	Difficulty string  `bson:"_id" json:"_id"`
	NumTours   int     `bson:"numTours" json:"numTours"`
	NumRating  int     `bson:"numRating" json:"numRating"`
	AvgRating  float64 `bson:"avgRating" json:"avgRating"`
	AvgPrice   float64 `bson:"avgPrice" json:"avgPrice"`
	MinPrice   float64 `bson:"minPrice" json:"minPrice"`
	MaxPrice   float64 `bson:"maxPrice" json:"maxPrice"`
}

// MonthlyPlan is the number of tour starts in one calendar month
type MonthlyPlan struct {
	Month         int      `bson:"_month" json:"_month"`
	NumTourStarts int      `bson:"numTourStarts" json:"numTourStarts"`
	Tours         []string `bson:"tours" json:"tours"`
}

// Slugify transliterates a name to lower-case ASCII words joined by hyphens
func Slugify(name string) string {
	return slug.Make(name)
}
