package repositories

import (
	"testing"

	"natours/internal/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDocumentRepo_Scoped(t *testing.T) {
	scope := bson.M{"secretTour": bson.M{"$ne": true}}
	r := newDocumentRepo[models.Tour](nil, scope)

	t.Run("empty filter gets the scope", func(t *testing.T) {
		assert.Equal(t, scope, r.scoped(nil))
	})

	t.Run("scope is merged into disjoint filters", func(t *testing.T) {
		got := r.scoped(bson.M{"price": 500})
		assert.Equal(t, bson.M{"price": 500, "secretTour": bson.M{"$ne": true}}, got)
	})

	t.Run("clashing keys are combined with $and", func(t *testing.T) {
		filter := bson.M{"secretTour": true}
		got := r.scoped(filter)
		assert.Equal(t, bson.M{"$and": bson.A{scope, filter}}, got)
	})

	t.Run("caller filter is not mutated", func(t *testing.T) {
		filter := bson.M{"price": 500}
		r.scoped(filter)
		assert.Equal(t, bson.M{"price": 500}, filter)
	})

	t.Run("unscoped repo passes filters through", func(t *testing.T) {
		plain := newDocumentRepo[models.Review](nil, nil)
		filter := bson.M{"tour": "x"}
		assert.Equal(t, filter, plain.scoped(filter))
	})
}

func TestParseObjectID(t *testing.T) {
	_, err := ParseObjectID("not-an-id")
	var castErr *CastError
	if assert.ErrorAs(t, err, &castErr) {
		assert.Equal(t, "_id", castErr.Path)
		assert.Equal(t, "not-an-id", castErr.Value)
	}

	id, err := ParseObjectID("5c88fa8cf4afda39709c2955")
	assert.NoError(t, err)
	assert.Equal(t, "5c88fa8cf4afda39709c2955", id.Hex())
}
