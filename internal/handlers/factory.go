package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"natours/internal/common"
	"natours/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
)

const notFoundMessage = "No document found with that ID"

// CreatePayload is a request body that becomes a new document
type CreatePayload[T any, P any] interface {
	*P
	ToDocument() (*T, error)
}

// UpdatePayload is a request body that becomes a partial update
type UpdatePayload[P any] interface {
	*P
	ToUpdate() (bson.M, error)
}

// optional payload hooks, run in this order after binding
type normalizer interface{ Normalize() }
type checker interface{ Check() error }
type messenger interface{ Messages() map[string]string }

// Prepare runs after binding and before validation, e.g. to fill ids from the URL
type Prepare[P any] func(c echo.Context, payload *P) error

// BaseFilter scopes a list, e.g. to the tour of a nested route
type BaseFilter func(c echo.Context) (bson.M, error)

// CreateOne answers 201 {status, data: {data: doc}}
func CreateOne[T any, P any, PP CreatePayload[T, P]](store repositories.DocumentStore[T], prepare ...Prepare[P]) echo.HandlerFunc {
	return func(c echo.Context) error {
		payload := PP(new(P))
		if err := bindPayload(c, payload, prepare...); err != nil {
			return err
		}

		doc, err := payload.ToDocument()
		if err != nil {
			return err
		}

		created, err := store.Create(c.Request().Context(), doc)
		if err != nil {
			return err
		}
		return common.SendData(c, http.StatusCreated, created)
	}
}

// GetOne answers 200 {status, data: {data: doc}} or 404
func GetOne[T any](store repositories.DocumentStore[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		doc, err := store.GetByID(c.Request().Context(), c.Param("id"))
		if err != nil {
			return notFound(err)
		}
		return common.SendData(c, http.StatusOK, doc)
	}
}

// UpdateOne applies the provided fields and answers with the updated document
func UpdateOne[T any, P any, PP UpdatePayload[P]](store repositories.DocumentStore[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		payload := PP(new(P))
		if err := bindPayload(c, payload); err != nil {
			return err
		}

		update, err := payload.ToUpdate()
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		var doc *T
		if len(update) == 0 {
			doc, err = store.GetByID(ctx, c.Param("id"))
		} else {
			doc, err = store.Update(ctx, c.Param("id"), update)
		}
		if err != nil {
			return notFound(err)
		}
		return common.SendData(c, http.StatusOK, doc)
	}
}

// DeleteOne answers 204 or 404
func DeleteOne[T any](store repositories.DocumentStore[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := store.Delete(c.Request().Context(), c.Param("id")); err != nil {
			return notFound(err)
		}
		return common.SendNoContent(c)
	}
}

// GetAll filters, sorts, projects and paginates from the query string and
// answers 200 {status, results, data: {doc: docs}}
func GetAll[T any](store repositories.DocumentStore[T], base ...BaseFilter) echo.HandlerFunc {
	return func(c echo.Context) error {
		features := repositories.NewAPIFeatures(c.QueryParams())
		for _, b := range base {
			filter, err := b(c)
			if err != nil {
				return err
			}
			features.WithFilter(filter)
		}
		q := features.Filter().Sort().LimitFields().Paginate().Query()

		docs, err := store.List(c.Request().Context(), q)
		if err != nil {
			return err
		}

		fields, include := q.Fields()
		if len(fields) == 0 {
			return common.SendList(c, docs)
		}
		projected, err := projectAll(docs, fields, include)
		if err != nil {
			return err
		}
		return common.SendList(c, projected)
	}
}

func notFound(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return common.NewAppError(notFoundMessage, http.StatusNotFound)
	}
	return err
}

// bindPayload binds the body, runs prepare hooks, normalizes, validates and
// finally applies cross-field checks
func bindPayload[P any](c echo.Context, payload *P, prepare ...Prepare[P]) error {
	if err := c.Bind(payload); err != nil {
		return bindError(err)
	}
	for _, p := range prepare {
		if err := p(c, payload); err != nil {
			return err
		}
	}

	var target interface{} = payload
	if n, ok := target.(normalizer); ok {
		n.Normalize()
	}
	if err := c.Validate(payload); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			var overrides map[string]string
			if m, ok := target.(messenger); ok {
				overrides = m.Messages()
			}
			return common.WrapAppError(err, validationText(verrs, overrides), http.StatusBadRequest)
		}
		return err
	}
	if ch, ok := target.(checker); ok {
		if err := ch.Check(); err != nil {
			return err
		}
	}
	return nil
}

// bindError turns body decoding failures into the cast error message
func bindError(err error) error {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return err
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(he.Internal, &typeErr) {
		return common.WrapAppError(err, fmt.Sprintf("Invalid value %s for field %s", typeErr.Value, typeErr.Field), http.StatusBadRequest)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(he.Internal, &syntaxErr) {
		return common.WrapAppError(err, "Invalid JSON body", http.StatusBadRequest)
	}
	return err
}

// projectAll drops the fields a client did not select. The id is always kept.
func projectAll[T any](docs []*T, fields []string, include bool) ([]map[string]interface{}, error) {
	selected := make(map[string]bool, len(fields))
	for _, f := range fields {
		selected[f] = true
	}

	out := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		var m map[string]interface{}
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		for key := range m {
			if key == "id" {
				continue
			}
			if selected[key] != include {
				delete(m, key)
			}
		}
		out = append(out, m)
	}
	return out, nil
}
