package repositories

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when no document matches an id or filter
var ErrNotFound = errors.New("document not found")

// CastError reports a value that cannot be converted to the type of a field
type CastError struct {
	Path  string
	Value string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cast to %s failed for value %q", e.Path, e.Value)
}

// ParseObjectID converts a hex id from a URL into an ObjectID
func ParseObjectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, &CastError{Path: "_id", Value: hex}
	}
	return id, nil
}
