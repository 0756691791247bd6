package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Review    string             `bson:"review" json:"review"`
	Rating    float64            `bson:"rating" json:"rating"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	TourID    primitive.ObjectID `bson:"tour" json:"tour"`
	UserID    primitive.ObjectID `bson:"user,omitempty" json:"-"`

	// Populated on read
	User *UserSummary `bson:"-" json:"user"`
}

// RatingStats is the aggregate of all reviews for one tour
type RatingStats struct {
	TourID    primitive.ObjectID `bson:"_id"`
	NRating   int                `bson:"nRating"`
	AvgRating float64            `bson:"avgRating"`
}
